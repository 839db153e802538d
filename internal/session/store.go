package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// CookieName имя cookie с токеном сессии
const CookieName = "wwg_session"

const DefaultTTL = 24 * time.Hour

// Store хранит сессии в памяти: токен -> student_uid.
// Срок жизни продлевается при каждом обращении.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStore создаёт хранилище с заданным сроком жизни сессии
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache: gocache.New(ttl, ttl/2),
		ttl:   ttl,
	}
}

// TTL срок жизни сессии
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create открывает сессию и возвращает её токен
func (s *Store) Create(studentUID int64) string {
	token := uuid.NewString()
	s.cache.Set(token, studentUID, s.ttl)
	return token
}

// Lookup возвращает владельца сессии и продлевает её
func (s *Store) Lookup(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	value, found := s.cache.Get(token)
	if !found {
		return 0, false
	}

	uid, ok := value.(int64)
	if !ok {
		return 0, false
	}

	s.cache.Set(token, uid, s.ttl)
	return uid, true
}

// Delete закрывает сессию
func (s *Store) Delete(token string) {
	s.cache.Delete(token)
}

// DeleteStudent закрывает все сессии студента (после удаления аккаунта)
func (s *Store) DeleteStudent(studentUID int64) {
	for token, item := range s.cache.Items() {
		if uid, ok := item.Object.(int64); ok && uid == studentUID {
			s.cache.Delete(token)
		}
	}
}
