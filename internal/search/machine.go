package search

// DefaultLimit размер страницы по умолчанию
const DefaultLimit = 5

// bootstrapLimit размер пробного запроса для начального значения
const bootstrapLimit = 1

// Query аргументы одного вызова удалённого поиска
type Query struct {
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Text   string `json:"value"`
}

// Mode определяет, как ответ применяется к накопленным результатам
type Mode int

const (
	ModeReplace Mode = iota // новый текст: результаты заменяются
	ModeAppend              // "загрузить ещё": страница дописывается в конец
)

// Request одна выданная страница, помеченная поколением запроса
type Request struct {
	Query
	Mode       Mode
	Generation uint64
}

// State снимок состояния поиска
type State[T any] struct {
	Text       string
	Offset     int
	Exhausted  bool
	Loading    bool
	Results    []T
	Generation uint64
}

// CanLoadMore доступна ли кнопка "загрузить ещё"
func (s State[T]) CanLoadMore(limit int) bool {
	return !s.Loading && !s.Exhausted && len(s.Results) >= limit
}

// Machine конечный автомат поиска.
// Не потокобезопасен: Widget сериализует события под мьютексом.
type Machine[T any] struct {
	limit int
	state State[T]
}

// NewMachine создаёт автомат с заданным размером страницы
func NewMachine[T any](limit int) *Machine[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Machine[T]{limit: limit}
}

// Limit возвращает размер страницы
func (m *Machine[T]) Limit() int {
	return m.limit
}

// TextChanged обрабатывает изменение текста запроса.
// Для пустого текста результаты очищаются и запрос не выдаётся.
func (m *Machine[T]) TextChanged(text string) (Request, bool) {
	return m.reset(text, m.limit)
}

// Bootstrap выдаёт пробный запрос для начального значения (limit=1)
func (m *Machine[T]) Bootstrap(text string) (Request, bool) {
	return m.reset(text, bootstrapLimit)
}

func (m *Machine[T]) reset(text string, limit int) (Request, bool) {
	m.state.Generation++
	m.state.Text = text
	m.state.Offset = 0
	m.state.Exhausted = false
	m.state.Results = nil

	if text == "" {
		m.state.Loading = false
		return Request{}, false
	}

	m.state.Loading = true
	return Request{
		Query:      Query{Offset: 0, Limit: limit, Text: text},
		Mode:       ModeReplace,
		Generation: m.state.Generation,
	}, true
}

// LoadMore выдаёт запрос следующей страницы, если он допустим
func (m *Machine[T]) LoadMore() (Request, bool) {
	if !m.state.CanLoadMore(m.limit) {
		return Request{}, false
	}

	m.state.Loading = true
	return Request{
		Query: Query{
			Offset: m.state.Offset + m.limit,
			Limit:  m.limit,
			Text:   m.state.Text,
		},
		Mode:       ModeAppend,
		Generation: m.state.Generation,
	}, true
}

// Receive применяет ответ на запрос.
// Возвращает false, если ответ устарел и был отброшен.
func (m *Machine[T]) Receive(req Request, items []T, err error) bool {
	if req.Generation != m.state.Generation {
		return false
	}

	m.state.Loading = false
	if err != nil {
		return true
	}

	m.state.Offset = req.Offset
	// Исчерпание считается относительно размера страницы, а не лимита запроса:
	// пробный запрос с limit=1 всегда закрывает "загрузить ещё"
	if len(items) < m.limit {
		m.state.Exhausted = true
	}

	switch req.Mode {
	case ModeAppend:
		m.state.Results = append(m.state.Results, items...)
	default:
		m.state.Results = append([]T(nil), items...)
	}

	return true
}

// Snapshot возвращает копию состояния
func (m *Machine[T]) Snapshot() State[T] {
	st := m.state
	st.Results = append([]T(nil), m.state.Results...)
	return st
}
