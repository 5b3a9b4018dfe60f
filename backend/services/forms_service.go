package services

import (
	"errors"

	"medforms/backend/models"

	"gorm.io/gorm"
)

// FormService — каталог форм и назначения: формы, их вопросы,
// назначение форм пользователям и индивидуальные референсные границы.
type FormService struct {
	DB *gorm.DB
}

func NewFormService(db *gorm.DB) *FormService {
	return &FormService{DB: db}
}

// QuestionInput описывает создаваемый или обновляемый вопрос формы.
type QuestionInput struct {
	Type     string `json:"type"`
	Question string `json:"question"`
	RefMin   *int   `json:"ref_min"`
	RefMax   *int   `json:"ref_max"`
}

// QuestionRef — индивидуальная граница, передаваемая при назначении формы.
type QuestionRef struct {
	ID     uint `json:"id"`
	RefMin *int `json:"ref_min"`
	RefMax *int `json:"ref_max"`
}

func (s *FormService) CreateForm(name string, creatorID uint) (*models.Form, error) {
	if _, err := requireManager(s.DB, creatorID); err != nil {
		return nil, err
	}

	form := models.Form{Name: name, UserID: creatorID}
	if err := s.DB.Create(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (s *FormService) GetForm(formID uint) (*models.Form, error) {
	var form models.Form
	err := s.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("form_questions.id ASC")
	}).First(&form, formID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (s *FormService) ListForms(page, pageSize int) ([]models.Form, int64, error) {
	var total int64
	if err := s.DB.Model(&models.Form{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var forms []models.Form
	err := s.DB.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&forms).Error
	return forms, total, err
}

// ListAssignedForms возвращает только формы, для которых есть строка
// назначения на данного пользователя.
func (s *FormService) ListAssignedForms(userID uint, page, pageSize int) ([]models.Form, int64, error) {
	base := s.DB.Model(&models.Form{}).
		Joins("JOIN form_assignments ON form_assignments.form_id = forms.id").
		Where("form_assignments.user_id = ? AND form_assignments.deleted_at IS NULL", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var forms []models.Form
	err := base.Order("forms.id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&forms).Error
	return forms, total, err
}

func (s *FormService) UpdateForm(formID, actorID uint, name string) (*models.Form, error) {
	form, err := s.ownedForm(formID, actorID)
	if err != nil {
		return nil, err
	}

	form.Name = name
	if err := s.DB.Save(form).Error; err != nil {
		return nil, err
	}
	return form, nil
}

// DeleteForm удаляет форму вместе с вопросами, их индивидуальными
// границами, назначениями, отправками и ответами.
func (s *FormService) DeleteForm(formID, actorID uint) error {
	if _, err := s.ownedForm(formID, actorID); err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&models.FormQuestion{}).
			Where("form_id = ?", formID).
			Pluck("id", &questionIDs).Error; err != nil {
			return err
		}

		var submissionIDs []uint
		if err := tx.Model(&models.FormSubmission{}).
			Where("form_id = ?", formID).
			Pluck("id", &submissionIDs).Error; err != nil {
			return err
		}

		if len(submissionIDs) > 0 {
			if err := tx.Where("submission_id IN ?", submissionIDs).
				Delete(&models.FormAnswer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("form_id = ?", formID).
			Delete(&models.FormSubmission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", formID).
			Delete(&models.FormAssignment{}).Error; err != nil {
			return err
		}
		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).
				Delete(&models.UserRefRange{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("form_id = ?", formID).
			Delete(&models.FormQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Form{}, formID).Error
	})
}

func (s *FormService) AppendQuestion(formID, actorID uint, input QuestionInput) (*models.FormQuestion, error) {
	if _, err := requireManager(s.DB, actorID); err != nil {
		return nil, err
	}
	if _, err := s.ownedForm(formID, actorID); err != nil {
		return nil, err
	}

	qType := input.Type
	if qType == "" {
		qType = models.QuestionTypeNumber
	}

	question := models.FormQuestion{
		FormID:   formID,
		Type:     qType,
		Question: input.Question,
		RefMin:   input.RefMin,
		RefMax:   input.RefMax,
	}
	if err := s.DB.Create(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// ListQuestions возвращает вопросы формы в порядке создания.
func (s *FormService) ListQuestions(formID uint) ([]models.FormQuestion, error) {
	if _, err := s.GetForm(formID); err != nil {
		return nil, err
	}

	var questions []models.FormQuestion
	err := s.DB.Where("form_id = ?", formID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

func (s *FormService) GetQuestion(questionID uint) (*models.FormQuestion, error) {
	var question models.FormQuestion
	err := s.DB.First(&question, questionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *FormService) UpdateQuestion(questionID, actorID uint, input QuestionInput) (*models.FormQuestion, error) {
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedForm(question.FormID, actorID); err != nil {
		return nil, err
	}

	if input.Type != "" {
		question.Type = input.Type
	}
	if input.Question != "" {
		question.Question = input.Question
	}
	question.RefMin = input.RefMin
	question.RefMax = input.RefMax

	if err := s.DB.Save(question).Error; err != nil {
		return nil, err
	}
	return question, nil
}

func (s *FormService) DeleteQuestion(questionID, actorID uint) error {
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return err
	}
	if _, err := s.ownedForm(question.FormID, actorID); err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).
			Delete(&models.UserRefRange{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", questionID).
			Delete(&models.FormAnswer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FormQuestion{}, questionID).Error
	})
}

// AssignForm назначает форму пользователю и записывает индивидуальные
// границы. Повторное назначение пары (form, user) ничего не меняет.
// Вся операция выполняется в одной транзакции: ошибка на любой границе
// откатывает пакет целиком.
func (s *FormService) AssignForm(formID, targetUserID uint, refs []QuestionRef) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, targetUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var form models.Form
		if err := tx.First(&form, formID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var assignment models.FormAssignment
		err := tx.Where("form_id = ? AND user_id = ?", formID, targetUserID).
			First(&assignment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			assignment = models.FormAssignment{FormID: formID, UserID: targetUserID}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		for _, ref := range refs {
			if err := upsertRefRange(tx, targetUserID, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

// upsertRefRange перезаписывает существующую границу пары
// (user, question) или создаёт новую.
func upsertRefRange(tx *gorm.DB, userID uint, ref QuestionRef) error {
	var question models.FormQuestion
	if err := tx.First(&question, ref.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var rng models.UserRefRange
	err := tx.Where("user_id = ? AND question_id = ?", userID, ref.ID).
		First(&rng).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rng = models.UserRefRange{
			UserID:     userID,
			QuestionID: ref.ID,
			RefMin:     ref.RefMin,
			RefMax:     ref.RefMax,
		}
		return tx.Create(&rng).Error
	}
	if err != nil {
		return err
	}

	rng.RefMin = ref.RefMin
	rng.RefMax = ref.RefMax
	return tx.Save(&rng).Error
}

func (s *FormService) ownedForm(formID, actorID uint) (*models.Form, error) {
	var form models.Form
	err := s.DB.First(&form, formID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if form.UserID != actorID {
		return nil, ErrPermissionDenied
	}
	return &form, nil
}

func requireManager(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !user.IsManager {
		return nil, ErrPermissionDenied
	}
	return &user, nil
}
