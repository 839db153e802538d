// Package tui терминальный поиск по справочникам WWG.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	itemStyle   = lipgloss.NewStyle().PaddingLeft(2)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// stateMsg новое состояние виджета
type stateMsg[T any] struct {
	state search.State[T]
}

type errMsg struct {
	err error
}

// Options настройки экрана поиска
type Options[T any] struct {
	Title       string
	Limit       int
	Interval    time.Duration
	InitialText string
	Format      func(T) string
}

// Model экран поиска: поле ввода и догружаемый список
type Model[T any] struct {
	title  string
	format func(T) string
	input  textinput.Model
	widget *search.Widget[T]
	cancel context.CancelFunc

	states chan search.State[T]
	errs   chan error

	state search.State[T]
	err   error
}

// New создаёт экран; Close обязателен после выхода из программы
func New[T any](ctx context.Context, fetch search.Func[T], opts Options[T]) *Model[T] {
	ctx, cancel := context.WithCancel(ctx)

	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.Prompt = "🔎 "
	ti.Width = 40
	ti.SetValue(opts.InitialText)
	ti.Focus()

	format := opts.Format
	if format == nil {
		format = func(v T) string { return fmt.Sprint(v) }
	}

	m := &Model[T]{
		title:  opts.Title,
		format: format,
		input:  ti,
		cancel: cancel,
		states: make(chan search.State[T], 16),
		errs:   make(chan error, 4),
	}

	widgetOpts := []search.Option[T]{
		search.WithLimit[T](opts.Limit),
		search.WithInterval[T](opts.Interval),
		search.WithOnChange[T](func(st search.State[T]) {
			select {
			case m.states <- st:
			case <-ctx.Done():
			}
		}),
		search.WithOnError[T](func(_ search.Query, err error) {
			select {
			case m.errs <- err:
			case <-ctx.Done():
			}
		}),
	}
	if opts.InitialText != "" {
		widgetOpts = append(widgetOpts, search.WithInitialText[T](opts.InitialText))
	}
	m.widget = search.NewWidget[T](ctx, fetch, widgetOpts...)
	m.state.Text = opts.InitialText
	return m
}

// Close останавливает виджет
func (m *Model[T]) Close() {
	m.cancel()
	m.widget.Close()
}

func (m *Model[T]) waitForState() tea.Msg {
	return stateMsg[T]{state: <-m.states}
}

func (m *Model[T]) waitForError() tea.Msg {
	return errMsg{err: <-m.errs}
}

func (m *Model[T]) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState, m.waitForError)
}

func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg[T]:
		m.state = msg.state
		if !m.state.Loading {
			m.err = nil
		}
		return m, m.waitForState

	case errMsg:
		m.err = msg.err
		return m, m.waitForError

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+n", "pgdown":
			m.widget.LoadMore()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.widget.SetText(strings.TrimSpace(after))
	}
	return m, cmd
}

func (m *Model[T]) View() string {
	var sb strings.Builder

	if m.title != "" {
		sb.WriteString(titleStyle.Render(m.title))
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	for i, item := range m.state.Results {
		sb.WriteString(itemStyle.Render(fmt.Sprintf("%d. %s", i+1, m.format(item))))
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(statusStyle.Render(m.status()))
	if m.err != nil {
		sb.WriteByte('\n')
		sb.WriteString(errorStyle.Render("error: " + m.err.Error()))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (m *Model[T]) status() string {
	switch {
	case m.state.Text == "":
		return "esc: quit"
	case m.state.Loading:
		return "searching..."
	case m.state.Exhausted && len(m.state.Results) == 0:
		return "no matches · esc: quit"
	case m.state.Exhausted:
		return fmt.Sprintf("%d results, end of list · esc: quit", len(m.state.Results))
	case m.state.CanLoadMore(m.widget.Limit()):
		return fmt.Sprintf("%d results · ctrl+n: load more · esc: quit", len(m.state.Results))
	}
	return fmt.Sprintf("%d results · esc: quit", len(m.state.Results))
}

// Results текущие результаты
func (m *Model[T]) Results() []T {
	return m.state.Results
}
