package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Func удалённая функция поиска.
// nil без ошибки и страница короче лимита одинаково означают конец выдачи.
type Func[T any] func(ctx context.Context, q Query) ([]T, error)

// Option настраивает Widget
type Option[T any] func(*Widget[T])

// WithLimit задаёт размер страницы
func WithLimit[T any](limit int) Option[T] {
	return func(w *Widget[T]) { w.limit = limit }
}

// WithInterval задаёт окно троттлинга ввода
func WithInterval[T any](d time.Duration) Option[T] {
	return func(w *Widget[T]) { w.interval = d }
}

// WithInitialText задаёт начальное значение (один пробный запрос с limit=1)
func WithInitialText[T any](text string) Option[T] {
	return func(w *Widget[T]) { w.initialText = text }
}

// WithOnChange подписывает на изменения состояния. Вызовы последовательны
// и получают состояние не старее предыдущего; из fn нельзя вызывать
// SetText и LoadMore того же виджета
func WithOnChange[T any](fn func(State[T])) Option[T] {
	return func(w *Widget[T]) { w.onChange = fn }
}

// WithOnError передаёт ошибки поиска вызывающему коду
func WithOnError[T any](fn func(Query, error)) Option[T] {
	return func(w *Widget[T]) { w.onError = fn }
}

// WithLogger задаёт логгер
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(w *Widget[T]) { w.logger = logger }
}

// Widget инкрементальный поиск: ввод троттлится, страницы догружаются,
// устаревшие ответы отбрасываются по поколению запроса
type Widget[T any] struct {
	search      Func[T]
	limit       int
	interval    time.Duration
	initialText string
	onChange    func(State[T])
	onError     func(Query, error)
	logger      *zap.Logger

	// notifyMu берётся до mu и держится на время onChange
	notifyMu sync.Mutex

	mu       sync.Mutex
	machine  *Machine[T]
	throttle *Throttler
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWidget создаёт виджет поиска
func NewWidget[T any](ctx context.Context, search Func[T], opts ...Option[T]) *Widget[T] {
	w := &Widget[T]{
		search:   search,
		limit:    DefaultLimit,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.machine = NewMachine[T](w.limit)
	w.limit = w.machine.Limit()
	w.throttle = NewThrottler(w.interval)

	if w.initialText != "" {
		w.mu.Lock()
		req, ok := w.machine.Bootstrap(w.initialText)
		w.mu.Unlock()
		if ok {
			w.dispatch(req)
		}
	}

	return w
}

// Limit размер страницы
func (w *Widget[T]) Limit() int {
	return w.limit
}

// SetText обрабатывает ввод пользователя
func (w *Widget[T]) SetText(text string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	req, ok := w.machine.TextChanged(text)
	w.mu.Unlock()

	w.notify()

	if !ok {
		w.throttle.Cancel()
		return
	}

	w.throttle.Call(func() { w.dispatch(req) })
}

// LoadMore запрашивает следующую страницу.
// Возвращает false, если догрузка сейчас недоступна.
func (w *Widget[T]) LoadMore() bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	req, ok := w.machine.LoadMore()
	w.mu.Unlock()

	if !ok {
		return false
	}

	w.notify()
	w.dispatch(req)
	return true
}

// Snapshot текущее состояние
func (w *Widget[T]) Snapshot() State[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.machine.Snapshot()
}

// Close отменяет ожидающие и текущие запросы и ждёт их завершения
func (w *Widget[T]) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.throttle.Cancel()
	w.cancel()
	w.wg.Wait()
}

func (w *Widget[T]) dispatch(req Request) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.run(req)
	}()
}

func (w *Widget[T]) run(req Request) {
	w.logger.Debug("Search request issued",
		zap.String("text", req.Text),
		zap.Int("offset", req.Offset),
		zap.Int("limit", req.Limit),
		zap.Uint64("generation", req.Generation))

	items, err := w.search(w.ctx, req.Query)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	applied := w.machine.Receive(req, items, err)
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("Search request failed",
			zap.String("text", req.Text),
			zap.Int("offset", req.Offset),
			zap.Error(err))
		if w.onError != nil && applied {
			w.onError(req.Query, err)
		}
	}

	if !applied {
		w.logger.Debug("Stale search response dropped",
			zap.String("text", req.Text),
			zap.Uint64("generation", req.Generation))
		return
	}

	w.notify()
}

// notify отдаёт подписчику свежий снимок; снимок берётся под notifyMu,
// поэтому более старое состояние не обгонит новое
func (w *Widget[T]) notify() {
	if w.onChange == nil {
		return
	}

	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()

	w.mu.Lock()
	st := w.machine.Snapshot()
	w.mu.Unlock()

	w.onChange(st)
}
