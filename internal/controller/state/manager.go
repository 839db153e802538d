package state

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL через столько брошенный диалог забывается
const DefaultTTL = 30 * time.Minute

// Manager шаги диалогов по telegram ID; запись живёт ttl с последнего SetState
type Manager struct {
	ttl    time.Duration
	states *gocache.Cache
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:    ttl,
		states: gocache.New(ttl, ttl),
	}
}

func (sm *Manager) GetState(telegramID int64) UserState {
	if v, ok := sm.states.Get(key(telegramID)); ok {
		return v.(UserState)
	}
	return StateNone
}

// SetState переводит диалог в state; StateNone удаляет запись
func (sm *Manager) SetState(telegramID int64, state UserState) {
	if state == StateNone {
		sm.ClearState(telegramID)
		return
	}
	sm.states.Set(key(telegramID), state, sm.ttl)
}

func (sm *Manager) ClearState(telegramID int64) {
	sm.states.Delete(key(telegramID))
}

// Active число незавершённых диалогов
func (sm *Manager) Active() int {
	return sm.states.ItemCount()
}

func key(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10)
}
