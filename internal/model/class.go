package model

// Curriculum программа обучения (например, международная или национальная)
type Curriculum struct {
	UID  int64  `json:"curriculum_uid"`
	Name string `json:"name"`
}

// Class класс определяется номером и годом выпуска
type Class struct {
	ClassNumber   int    `json:"class_number"`
	GradYear      int    `json:"grad_year"`
	CurriculumUID int64  `json:"curriculum_uid"`
	Curriculum    string `json:"curriculum"`
}

// School учебное заведение, куда поступил выпускник
type School struct {
	UID     int64  `json:"school_uid"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}
