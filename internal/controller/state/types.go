package state

// UserState текущий шаг диалога с администратором
type UserState string

const (
	StateNone UserState = ""

	// ждём "класс год" для нового ключа
	StateNewKeyClass UserState = "new_key_class"

	// текст сообщений уходит в поиск студентов
	StateSearching UserState = "searching"
)
