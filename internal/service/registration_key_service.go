package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/keycard"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultKeyTTL срок действия ключа по умолчанию
const DefaultKeyTTL = 30 * 24 * time.Hour

const keyLength = 8

// KeyUpdate изменение ключа; nil поля не трогаются
type KeyUpdate struct {
	Key            string     `json:"registration_key" validate:"required"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Activated      *bool      `json:"activated"`
}

// KeyCreate параметры выпуска ключа
type KeyCreate struct {
	ClassNumber int `json:"class_number" validate:"required,min=1"`
	GradYear    int `json:"grad_year" validate:"required,min=1900,max=2999"`
}

type RegistrationKeyService struct {
	keys    RegistrationKeyStore
	classes ClassStore
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewRegistrationKeyService(
	keys RegistrationKeyStore,
	classes ClassStore,
	ttl time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RegistrationKeyService {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	return &RegistrationKeyService{
		keys:    keys,
		classes: classes,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Validate проверяет ключ и возвращает класс, к которому он привязан
func (s *RegistrationKeyService) Validate(ctx context.Context, key string) (info *model.KeyInfo, err error) {
	ctx, span := startSpan(ctx, "RegistrationKeyService.Validate")
	defer func() { endSpan(span, err) }()

	k, err := s.keys.GetValid(ctx, strings.TrimSpace(key), s.now())
	if err != nil {
		return nil, fmt.Errorf("get registration key: %w", err)
	}
	if k == nil {
		return nil, apperr.ErrInvalidKey
	}

	ki := k.Info()
	return &ki, nil
}

// generateKey генерирует уникальный ключ из 8 символов base32
func (s *RegistrationKeyService) generateKey(ctx context.Context) (string, error) {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		bytes := make([]byte, 6)
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("generate random bytes: %w", err)
		}

		key := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(bytes)
		key = key[:keyLength]

		exists, err := s.keys.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("check key exists: %w", err)
		}

		if !exists {
			return key, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique key after %d attempts", maxAttempts)
}

// Create выпускает ключ для класса из административной зоны пользователя
func (s *RegistrationKeyService) Create(ctx context.Context, p *auth.Principal, in KeyCreate) (key *model.RegistrationKey, err error) {
	ctx, span := startSpan(ctx, "RegistrationKeyService.Create")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	class, err := s.classes.Get(ctx, in.ClassNumber, in.GradYear)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class == nil {
		return nil, apperr.Reference("class", fmt.Sprintf("Class %d of %d", in.ClassNumber, in.GradYear))
	}

	if err := auth.Authorize(p, auth.ActionCreateKey, auth.ClassTarget(class)); err != nil {
		return nil, err
	}

	code, err := s.generateKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	key = &model.RegistrationKey{
		Key:            code,
		ClassNumber:    class.ClassNumber,
		GradYear:       class.GradYear,
		CurriculumUID:  class.CurriculumUID,
		Curriculum:     class.Curriculum,
		ExpirationDate: s.now().Add(s.ttl),
		Activated:      true,
	}
	if p.StudentUID != 0 {
		createdBy := p.StudentUID
		key.CreatedBy = &createdBy
	}

	if err := s.keys.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("create registration key: %w", err)
	}

	s.metrics.RecordKeyIssued()
	span.SetAttributes(attribute.Int("class_number", key.ClassNumber), attribute.Int("grad_year", key.GradYear))
	s.logger.Info("Registration key issued",
		zap.Int64("actor_uid", p.StudentUID),
		zap.Int("class_number", key.ClassNumber),
		zap.Int("grad_year", key.GradYear),
		zap.Time("expires", key.ExpirationDate))

	return key, nil
}

// List ключи в административной зоне пользователя
func (s *RegistrationKeyService) List(ctx context.Context, p *auth.Principal) (keys []*model.RegistrationKey, err error) {
	ctx, span := startSpan(ctx, "RegistrationKeyService.List")
	defer func() { endSpan(span, err) }()

	if err := auth.Authorize(p, auth.ActionListKeys, auth.Target{}); err != nil {
		return nil, err
	}

	keys, err = s.keys.ListByScope(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list registration keys: %w", err)
	}
	return keys, nil
}

// get ключ с проверкой права управления
func (s *RegistrationKeyService) get(ctx context.Context, p *auth.Principal, key string) (*model.RegistrationKey, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	k, err := s.keys.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get registration key: %w", err)
	}
	if k == nil {
		return nil, apperr.ErrNotFound
	}

	if err := auth.Authorize(p, auth.ActionManageKey, auth.KeyTarget(k)); err != nil {
		return nil, err
	}
	return k, nil
}

// Update меняет срок действия и/или активность ключа
func (s *RegistrationKeyService) Update(ctx context.Context, p *auth.Principal, in KeyUpdate) (key *model.RegistrationKey, err error) {
	ctx, span := startSpan(ctx, "RegistrationKeyService.Update")
	defer func() { endSpan(span, err) }()

	key, err = s.get(ctx, p, in.Key)
	if err != nil {
		return nil, err
	}

	if in.ExpirationDate != nil {
		key.ExpirationDate = *in.ExpirationDate
	}
	if in.Activated != nil {
		key.Activated = *in.Activated
	}

	affected, err := s.keys.Update(ctx, key.Key, key.ExpirationDate, key.Activated)
	if err != nil {
		return nil, fmt.Errorf("update registration key: %w", err)
	}
	if affected == 0 {
		return nil, apperr.ErrNotFound
	}

	s.logger.Info("Registration key updated",
		zap.Int64("actor_uid", p.StudentUID),
		zap.String("key", key.Key),
		zap.Bool("activated", key.Activated),
		zap.Time("expires", key.ExpirationDate))

	return key, nil
}

// Deactivate снимает активность ключа
func (s *RegistrationKeyService) Deactivate(ctx context.Context, p *auth.Principal, key string) (*model.RegistrationKey, error) {
	activated := false
	return s.Update(ctx, p, KeyUpdate{Key: key, Activated: &activated})
}

// DeactivateExpired снимает активность с истёкших ключей (фоновая задача)
func (s *RegistrationKeyService) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := s.keys.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired keys: %w", err)
	}
	if n > 0 {
		s.metrics.RecordKeysDeactivated(n)
	}
	return n, nil
}

// Card PNG-карточка ключа
func (s *RegistrationKeyService) Card(ctx context.Context, p *auth.Principal, key string) (png []byte, err error) {
	ctx, span := startSpan(ctx, "RegistrationKeyService.Card")
	defer func() { endSpan(span, err) }()

	k, err := s.get(ctx, p, key)
	if err != nil {
		return nil, err
	}

	png, err = keycard.Render(k, s.now())
	if err != nil {
		return nil, fmt.Errorf("render key card: %w", err)
	}
	return png, nil
}
