package auth

import (
	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/model"
)

type Action string

const (
	ActionReadStudent   Action = "read_student"
	ActionUpdateStudent Action = "update_student"
	ActionDeleteStudent Action = "delete_student"
	ActionCreateKey     Action = "create_key"
	ActionManageKey     Action = "manage_key"
	ActionListKeys      Action = "list_keys"
	ActionReadFeedback  Action = "read_feedback"
)

var (
	ErrUnauthenticated = apperr.ErrUnauthorized
	ErrForbidden       = apperr.ErrForbidden
)

// Target объект, над которым выполняется действие
type Target struct {
	StudentUID    int64
	Role          model.Role
	ClassNumber   int
	GradYear      int
	CurriculumUID int64
	Visibility    model.Visibility
}

// StudentTarget цель для действий над анкетой
func StudentTarget(s *model.Student) Target {
	return Target{
		StudentUID:    s.UID,
		Role:          s.Role,
		ClassNumber:   s.ClassNumber,
		GradYear:      s.GradYear,
		CurriculumUID: s.CurriculumUID,
		Visibility:    s.Visibility,
	}
}

// ClassTarget цель для действий над классом (ключи регистрации)
func ClassTarget(c *model.Class) Target {
	return Target{
		ClassNumber:   c.ClassNumber,
		GradYear:      c.GradYear,
		CurriculumUID: c.CurriculumUID,
	}
}

// KeyTarget цель для действий над ключом регистрации
func KeyTarget(k *model.RegistrationKey) Target {
	return Target{
		ClassNumber:   k.ClassNumber,
		GradYear:      k.GradYear,
		CurriculumUID: k.CurriculumUID,
	}
}

// Authorize единая точка решения: nil, ErrUnauthenticated или ErrForbidden
func Authorize(p *Principal, action Action, target Target) error {
	if p == nil {
		return ErrUnauthenticated
	}

	self := target.StudentUID != 0 && target.StudentUID == p.StudentUID

	var ok bool
	switch action {
	case ActionReadStudent:
		ok = self || Covers(p, target) || Visible(p, target)
	case ActionUpdateStudent:
		ok = self || (Covers(p, target) && p.Role.Rank() > target.Role.Rank())
	case ActionDeleteStudent:
		// удалить себя нельзя даже администратору
		ok = !self && Covers(p, target) && p.Role.Rank() > target.Role.Rank()
	case ActionCreateKey, ActionManageKey:
		ok = Covers(p, target)
	case ActionListKeys:
		ok = p.Role.IsAdmin()
	case ActionReadFeedback:
		ok = self || p.Role == model.RoleSystem
	}

	if !ok {
		return ErrForbidden
	}
	return nil
}

// Covers лежит ли цель в административной зоне пользователя
func Covers(p *Principal, t Target) bool {
	switch p.Role {
	case model.RoleSystem:
		return true
	case model.RoleYear:
		return t.GradYear == p.GradYear
	case model.RoleCurriculum:
		return t.GradYear == p.GradYear && t.CurriculumUID == p.CurriculumUID
	case model.RoleClass:
		return t.GradYear == p.GradYear && t.ClassNumber == p.ClassNumber
	}
	return false
}

// Visible разрешает ли настройка видимости цели чтение пользователем
func Visible(p *Principal, t Target) bool {
	switch t.Visibility {
	case model.VisibilityStudents:
		return true
	case model.VisibilityYear:
		return t.GradYear == p.GradYear
	case model.VisibilityCurriculum:
		return t.GradYear == p.GradYear && t.CurriculumUID == p.CurriculumUID
	case model.VisibilityClass:
		return t.GradYear == p.GradYear && t.ClassNumber == p.ClassNumber
	}
	return false
}
