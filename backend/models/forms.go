package models

import "gorm.io/gorm"

const (
	QuestionTypeNumber = "number"
	QuestionTypeText   = "text"
)

type Form struct {
	gorm.Model
	Name      string `gorm:"not null"`
	UserID    uint   // создатель (менеджер)
	Questions []FormQuestion
}

type FormQuestion struct {
	gorm.Model
	FormID   uint
	Type     string `gorm:"default:number"` // number, text
	Question string `gorm:"not null"`
	RefMin   *int   // nil = без нижней границы
	RefMax   *int   // nil = без верхней границы
}

// FormAssignment отмечает, что форма назначена пользователю.
// Не больше одной живой строки на пару (form, user) — следит
// сервисный слой, повторное назначение ничего не создаёт.
type FormAssignment struct {
	gorm.Model
	FormID uint `gorm:"index"`
	UserID uint `gorm:"index"`
}

// UserRefRange — индивидуальные референсные границы пользователя
// для вопроса, перекрывают границы самого вопроса.
type UserRefRange struct {
	gorm.Model
	UserID     uint `gorm:"index"`
	QuestionID uint `gorm:"index"`
	RefMin     *int
	RefMax     *int
}

type FormSubmission struct {
	gorm.Model
	FormID  uint
	UserID  uint
	Answers []FormAnswer `gorm:"foreignKey:SubmissionID"`
}

type FormAnswer struct {
	gorm.Model
	SubmissionID uint
	QuestionID   uint
	Answer       string
}
