package model

// Role роль пользователя; администраторские роли упорядочены по ширине зоны
type Role string

const (
	RoleStudent    Role = "student"
	RoleClass      Role = "class"      // администратор класса
	RoleCurriculum Role = "curriculum" // администратор программы в пределах года выпуска
	RoleYear       Role = "year"       // администратор года выпуска
	RoleSystem     Role = "system"
)

var roleRank = map[Role]int{
	RoleStudent:    0,
	RoleClass:      1,
	RoleCurriculum: 2,
	RoleYear:       3,
	RoleSystem:     4,
}

// Rank возвращает ширину зоны роли; неизвестная роль равна студенту
func (r Role) Rank() int {
	return roleRank[r]
}

// IsAdmin администратор ли
func (r Role) IsAdmin() bool {
	return r.Rank() > 0
}

// Valid проверяет, что роль известна
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}
