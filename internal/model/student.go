package model

import "time"

// Visibility определяет круг пользователей, которым видна анкета студента
// (администраторы видят всё в пределах своей зоны)
type Visibility string

const (
	VisibilityPrivate    Visibility = "private"    // только сам пользователь
	VisibilityClass      Visibility = "class"      // одноклассники
	VisibilityCurriculum Visibility = "curriculum" // та же программа обучения и год выпуска
	VisibilityYear       Visibility = "year"       // тот же год выпуска
	VisibilityStudents   Visibility = "students"   // все зарегистрированные
)

// Valid проверяет, что значение из списка
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityClass, VisibilityCurriculum, VisibilityYear, VisibilityStudents:
		return true
	}
	return false
}

type Student struct {
	UID           int64      `json:"student_uid"`
	Name          string     `json:"name"`
	PhoneNumber   *string    `json:"phone_number,omitempty"`
	Email         *string    `json:"email,omitempty"`
	PasswordHash  string     `json:"-"`
	WxID          *string    `json:"wxid,omitempty"`
	Department    *string    `json:"department,omitempty"`
	Major         *string    `json:"major,omitempty"`
	ClassNumber   int        `json:"class_number"`
	GradYear      int        `json:"grad_year"`
	CurriculumUID int64      `json:"curriculum_uid"`
	SchoolUID     *int64     `json:"school_uid,omitempty"`
	Role          Role       `json:"role"`
	Visibility    Visibility `json:"visibility"`
	CreatedAt     time.Time  `json:"created_at"`

	// Дополнительные поля для удобства (не из таблицы student)
	Curriculum string `json:"curriculum,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
}

// StudentBrief строка результатов поиска
type StudentBrief struct {
	UID         int64  `json:"student_uid"`
	Name        string `json:"name"`
	ClassNumber int    `json:"class_number"`
	GradYear    int    `json:"grad_year"`
	Curriculum  string `json:"curriculum"`
	SchoolName  string `json:"school_name,omitempty"`
}

// Brief сокращённое представление
func (s *Student) Brief() StudentBrief {
	return StudentBrief{
		UID:         s.UID,
		Name:        s.Name,
		ClassNumber: s.ClassNumber,
		GradYear:    s.GradYear,
		Curriculum:  s.Curriculum,
		SchoolName:  s.SchoolName,
	}
}
