package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchoolService_SearchDefaultsLimit(t *testing.T) {
	store := &fakeSchools{}
	for _, name := range []string{"Tsinghua", "Peking", "Tongji", "Fudan", "Tianjin", "Taiyuan", "Tibet"} {
		store.rows = append(store.rows, &model.School{Name: name})
	}
	svc := NewSchoolService(store, metrics.Nop(), zap.NewNop())

	page, err := svc.Search(context.Background(), search.Query{Text: "t"})
	require.NoError(t, err)
	assert.Len(t, page, search.DefaultLimit)
}

func TestSchoolService_CreateNeedsLogin(t *testing.T) {
	svc := NewSchoolService(&fakeSchools{}, metrics.Nop(), zap.NewNop())

	_, err := svc.Create(context.Background(), nil, SchoolInput{Name: "MIT"})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	school, err := svc.Create(context.Background(), &auth.Principal{StudentUID: 1}, SchoolInput{Name: "MIT", Country: "US"})
	require.NoError(t, err)
	assert.NotZero(t, school.UID)
}

func TestClassService_ListManageableAndEnsure(t *testing.T) {
	classes := &fakeClasses{rows: []*model.Class{
		{ClassNumber: 1, GradYear: 2024, CurriculumUID: 1},
		{ClassNumber: 2, GradYear: 2024, CurriculumUID: 2},
		{ClassNumber: 1, GradYear: 2025, CurriculumUID: 1},
	}}
	svc := NewClassService(classes, zap.NewNop())

	list, err := svc.ListManageable(context.Background(), &auth.Principal{Role: model.RoleYear, GradYear: 2024})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListManageable(context.Background(), &auth.Principal{Role: model.RoleStudent})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	class, err := svc.Ensure(context.Background(), 5, 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, class.ClassNumber)
	assert.Len(t, classes.rows, 4)
}
