package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/wherewego/internal/search"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	calls []search.Query
	total int
}

func (f *fakeSource) fetch(_ context.Context, q search.Query) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)

	var out []string
	for i := q.Offset; i < f.total && len(out) < q.Limit; i++ {
		out = append(out, fmt.Sprintf("%s-%d", q.Text, i))
	}
	return out, nil
}

func (f *fakeSource) Calls() []search.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]search.Query(nil), f.calls...)
}

func newModel(t *testing.T, src *fakeSource, initial string) *Model[string] {
	t.Helper()
	m := New[string](context.Background(), src.fetch, Options[string]{
		Title:       "Students",
		Limit:       2,
		Interval:    10 * time.Millisecond,
		InitialText: initial,
	})
	t.Cleanup(m.Close)
	return m
}

// pump применяет состояния виджета, пока cond не выполнится
func pump(t *testing.T, m *Model[string], cond func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case st := <-m.states:
			m.Update(stateMsg[string]{state: st})
		case <-deadline:
			t.Fatal("widget state did not settle")
		}
	}
}

func typeText(m *Model[string], text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestTypingSearchesOnce(t *testing.T) {
	src := &fakeSource{total: 5}
	m := newModel(t, src, "")

	typeText(m, "ann")
	pump(t, m, func() bool { return len(m.Results()) == 2 && !m.state.Loading })

	calls := src.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, search.Query{Offset: 0, Limit: 2, Text: "ann"}, calls[0])
	assert.Contains(t, m.View(), "ctrl+n: load more")
}

func TestCtrlNLoadsMore(t *testing.T) {
	src := &fakeSource{total: 3}
	m := newModel(t, src, "")

	typeText(m, "a")
	pump(t, m, func() bool { return len(m.Results()) == 2 && !m.state.Loading })

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	pump(t, m, func() bool { return len(m.Results()) == 3 && !m.state.Loading })

	assert.Equal(t, []string{"a-0", "a-1", "a-2"}, m.Results())
	assert.True(t, strings.Contains(m.View(), "end of list"))
}

func TestInitialTextProbe(t *testing.T) {
	src := &fakeSource{total: 5}
	m := newModel(t, src, "bob")

	pump(t, m, func() bool { return len(m.Results()) == 1 && !m.state.Loading })

	calls := src.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].Limit)
	assert.Equal(t, "bob", m.input.Value())
}

func TestEscQuits(t *testing.T) {
	m := newModel(t, &fakeSource{}, "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestErrorShown(t *testing.T) {
	m := newModel(t, &fakeSource{}, "")

	m.Update(errMsg{err: fmt.Errorf("server down")})
	assert.Contains(t, m.View(), "error: server down")
}
