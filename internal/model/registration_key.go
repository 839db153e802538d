package model

import "time"

// RegistrationKey ключ с ограниченным сроком действия, разрешающий создание
// аккаунта студента и привязывающий его к классу
type RegistrationKey struct {
	Key            string    `json:"registration_key"`
	ClassNumber    int       `json:"class_number"`
	GradYear       int       `json:"grad_year"`
	CurriculumUID  int64     `json:"curriculum_uid"`
	ExpirationDate time.Time `json:"expiration_date"`
	Activated      bool      `json:"activated"`
	CreatedBy      *int64    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Название программы (join с curriculum)
	Curriculum string `json:"curriculum"`
}

// IsValid проверяет, можно ли зарегистрироваться по ключу в момент now
func (k *RegistrationKey) IsValid(now time.Time) bool {
	return k.Activated && now.Before(k.ExpirationDate)
}

// KeyInfo то, что видит будущий студент при проверке ключа
type KeyInfo struct {
	ClassNumber    int       `json:"class_number"`
	GradYear       int       `json:"grad_year"`
	Curriculum     string    `json:"curriculum"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// Info возвращает публичную часть ключа
func (k *RegistrationKey) Info() KeyInfo {
	return KeyInfo{
		ClassNumber:    k.ClassNumber,
		GradYear:       k.GradYear,
		Curriculum:     k.Curriculum,
		ExpirationDate: k.ExpirationDate,
	}
}
