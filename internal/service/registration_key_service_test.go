package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newKeyService(t *testing.T) (*RegistrationKeyService, *fakeKeys) {
	t.Helper()
	keys := newFakeKeys()
	classes := &fakeClasses{rows: []*model.Class{
		{ClassNumber: 3, GradYear: 2024, CurriculumUID: 1, Curriculum: "international"},
		{ClassNumber: 4, GradYear: 2024, CurriculumUID: 2, Curriculum: "domestic"},
	}}
	svc := NewRegistrationKeyService(keys, classes, 48*time.Hour, metrics.Nop(), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, keys
}

var classAdmin = &auth.Principal{StudentUID: 10, Role: model.RoleClass, ClassNumber: 3, GradYear: 2024, CurriculumUID: 1}

func TestRegistrationKeyService_CreateAndValidate(t *testing.T) {
	svc, _ := newKeyService(t)

	key, err := svc.Create(context.Background(), classAdmin, KeyCreate{ClassNumber: 3, GradYear: 2024})
	require.NoError(t, err)
	assert.Len(t, key.Key, 8)
	assert.Regexp(t, `^[A-Z2-7]{8}$`, key.Key)
	assert.Equal(t, fixedNow.Add(48*time.Hour), key.ExpirationDate)
	assert.True(t, key.Activated)
	require.NotNil(t, key.CreatedBy)
	assert.Equal(t, int64(10), *key.CreatedBy)

	info, err := svc.Validate(context.Background(), " "+key.Key+" ")
	require.NoError(t, err)
	assert.Equal(t, 3, info.ClassNumber)
	assert.Equal(t, 2024, info.GradYear)
	assert.Equal(t, "international", info.Curriculum)
}

func TestRegistrationKeyService_CreateOutsideScope(t *testing.T) {
	svc, _ := newKeyService(t)

	_, err := svc.Create(context.Background(), classAdmin, KeyCreate{ClassNumber: 4, GradYear: 2024})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.Create(context.Background(), classAdmin, KeyCreate{ClassNumber: 7, GradYear: 2024})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindReference, e.Kind)
	assert.Equal(t, "Class 7 of 2024", e.Value)
}

func TestRegistrationKeyService_DeactivateThenValidate(t *testing.T) {
	svc, _ := newKeyService(t)

	key, err := svc.Create(context.Background(), classAdmin, KeyCreate{ClassNumber: 3, GradYear: 2024})
	require.NoError(t, err)

	updated, err := svc.Deactivate(context.Background(), classAdmin, key.Key)
	require.NoError(t, err)
	assert.False(t, updated.Activated)

	_, err = svc.Validate(context.Background(), key.Key)
	assert.ErrorIs(t, err, apperr.ErrInvalidKey)

	_, err = svc.Deactivate(context.Background(), classAdmin, "MISSING0")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegistrationKeyService_DeactivateExpired(t *testing.T) {
	svc, keys := newKeyService(t)
	require.NoError(t, keys.Create(context.Background(), &model.RegistrationKey{
		Key: "EXPIRED0", ClassNumber: 3, GradYear: 2024, ExpirationDate: fixedNow.Add(-time.Minute), Activated: true,
	}))
	require.NoError(t, keys.Create(context.Background(), &model.RegistrationKey{
		Key: "FRESH000", ClassNumber: 3, GradYear: 2024, ExpirationDate: fixedNow.Add(time.Minute), Activated: true,
	}))

	n, err := svc.DeactivateExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	k, _ := keys.Get(context.Background(), "FRESH000")
	assert.True(t, k.Activated)
}

func TestRegistrationKeyService_ListRequiresAdmin(t *testing.T) {
	svc, _ := newKeyService(t)
	_, err := svc.Create(context.Background(), classAdmin, KeyCreate{ClassNumber: 3, GradYear: 2024})
	require.NoError(t, err)

	keys, err := svc.List(context.Background(), classAdmin)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	_, err = svc.List(context.Background(), &auth.Principal{StudentUID: 2, Role: model.RoleStudent})
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestRegistrationKeyService_Card(t *testing.T) {
	svc, _ := newKeyService(t)
	key, err := svc.Create(context.Background(), classAdmin, KeyCreate{ClassNumber: 3, GradYear: 2024})
	require.NoError(t, err)

	png, err := svc.Card(context.Background(), classAdmin, key.Key)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}
