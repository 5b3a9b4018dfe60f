package services

import (
	"errors"

	"medforms/backend/models"

	"gorm.io/gorm"
)

// SubmissionService — приём ответов на формы и сборка отправок
// с эффективными референсными границами для просмотра менеджером.
type SubmissionService struct {
	DB *gorm.DB
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{DB: db}
}

// AnswerInput — один ответ из пакета отправки.
type AnswerInput struct {
	FieldID uint   `json:"field_id"`
	Answer  string `json:"answer"`
}

// FullAnswer — ответ с вопросом и эффективными границами.
type FullAnswer struct {
	FieldID  uint   `json:"field_id"`
	Question string `json:"question"`
	Type     string `json:"type"`
	Answer   string `json:"answer"`
	RefMin   *int   `json:"ref_min"`
	RefMax   *int   `json:"ref_max"`
}

// FullSubmission — одна отправка, сгруппированная под ФИО пациента.
type FullSubmission struct {
	FIO     string       `json:"fio"`
	Answers []FullAnswer `json:"answers"`
}

// CreateSubmission всегда создаёт новую отправку: повторные отправки
// одной пары (form, user) допустимы.
func (s *SubmissionService) CreateSubmission(formID, userID uint) (*models.FormSubmission, error) {
	return createSubmission(s.DB, formID, userID)
}

// RecordAnswer записывает ответ на вопрос отправки. Вопрос из чужой
// формы отклоняется с ErrConflict.
func (s *SubmissionService) RecordAnswer(submissionID, questionID uint, answer string) (*models.FormAnswer, error) {
	return recordAnswer(s.DB, submissionID, questionID, answer)
}

// SubmitForm создаёт отправку и записывает ответы в порядке их
// следования. Операция атомарна: ошибка на любом ответе откатывает
// и отправку, и уже записанные ответы.
func (s *SubmissionService) SubmitForm(formID, userID uint, answers []AnswerInput) (*models.FormSubmission, error) {
	var submission *models.FormSubmission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		submission, err = createSubmission(tx, formID, userID)
		if err != nil {
			return err
		}
		for _, a := range answers {
			if _, err := recordAnswer(tx, submission.ID, a.FieldID, a.Answer); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// ListSubmissions собирает все отправки формы. Для каждого ответа
// берётся индивидуальная граница пары (пользователь, вопрос), если
// она есть, иначе граница самого вопроса — отдельно по каждому концу
// диапазона: отсутствующий конец индивидуальной границы не затирает
// границу вопроса.
func (s *SubmissionService) ListSubmissions(formID uint) ([]FullSubmission, error) {
	var form models.Form
	if err := s.DB.First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var questions []models.FormQuestion
	if err := s.DB.Where("form_id = ?", formID).Find(&questions).Error; err != nil {
		return nil, err
	}
	questionByID := make(map[uint]models.FormQuestion, len(questions))
	for _, q := range questions {
		questionByID[q.ID] = q
	}

	var submissions []models.FormSubmission
	if err := s.DB.Where("form_id = ?", formID).
		Order("id ASC").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_answers.id ASC")
		}).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	result := make([]FullSubmission, 0, len(submissions))
	for _, sub := range submissions {
		var user models.User
		if err := s.DB.First(&user, sub.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		overrides, err := s.refRangesFor(sub.UserID)
		if err != nil {
			return nil, err
		}

		full := FullSubmission{
			FIO:     user.FullName,
			Answers: make([]FullAnswer, 0, len(sub.Answers)),
		}
		for _, a := range sub.Answers {
			question, ok := questionByID[a.QuestionID]
			if !ok {
				// вопрос другой формы или удалён — пропускаем
				continue
			}

			refMin, refMax := question.RefMin, question.RefMax
			if rng, ok := overrides[question.ID]; ok {
				if rng.RefMin != nil {
					refMin = rng.RefMin
				}
				if rng.RefMax != nil {
					refMax = rng.RefMax
				}
			}

			full.Answers = append(full.Answers, FullAnswer{
				FieldID:  question.ID,
				Question: question.Question,
				Type:     question.Type,
				Answer:   a.Answer,
				RefMin:   refMin,
				RefMax:   refMax,
			})
		}
		result = append(result, full)
	}
	return result, nil
}

func (s *SubmissionService) refRangesFor(userID uint) (map[uint]models.UserRefRange, error) {
	var rows []models.UserRefRange
	if err := s.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	byQuestion := make(map[uint]models.UserRefRange, len(rows))
	for _, r := range rows {
		byQuestion[r.QuestionID] = r
	}
	return byQuestion, nil
}

func createSubmission(tx *gorm.DB, formID, userID uint) (*models.FormSubmission, error) {
	var form models.Form
	if err := tx.First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	submission := models.FormSubmission{FormID: formID, UserID: userID}
	if err := tx.Create(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func recordAnswer(tx *gorm.DB, submissionID, questionID uint, answer string) (*models.FormAnswer, error) {
	var submission models.FormSubmission
	if err := tx.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var question models.FormQuestion
	if err := tx.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if question.FormID != submission.FormID {
		return nil, ErrConflict
	}

	row := models.FormAnswer{
		SubmissionID: submissionID,
		QuestionID:   questionID,
		Answer:       answer,
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
