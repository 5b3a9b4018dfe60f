package controllers

import (
	"strconv"

	"medforms/backend/config"
	"medforms/backend/middleware"
	"medforms/backend/models"
	"medforms/backend/services"
	"medforms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type FormsController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Forms       *services.FormService
	Submissions *services.SubmissionService
}

func NewFormsController(db *gorm.DB, cfg *config.Config) *FormsController {
	return &FormsController{
		DB:          db,
		Cfg:         cfg,
		Forms:       services.NewFormService(db),
		Submissions: services.NewSubmissionService(db),
	}
}

// ListForms — все формы, видят только менеджеры.
func (fc *FormsController) ListForms(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	forms, total, err := fc.Forms.ListForms(page, pageSize)
	if err != nil {
		return utils.ServiceError(c, err)
	}

	return utils.Paginate(c, listFormMaps(forms), total, page, pageSize)
}

// ListAssignedForms — формы, назначенные текущему пользователю.
func (fc *FormsController) ListAssignedForms(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page, pageSize := pageParams(c)

	forms, total, err := fc.Forms.ListAssignedForms(user.ID, page, pageSize)
	if err != nil {
		return utils.ServiceError(c, err)
	}

	return utils.Paginate(c, listFormMaps(forms), total, page, pageSize)
}

func (fc *FormsController) CreateForm(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	form, err := fc.Forms.CreateForm(input.Name, user.ID)
	if err != nil {
		return utils.ServiceError(c, err)
	}

	return fc.fullFormResponse(c, form.ID)
}

func (fc *FormsController) GetForm(c *fiber.Ctx) error {
	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}
	return fc.fullFormResponse(c, uint(formID))
}

func (fc *FormsController) UpdateForm(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if _, err := fc.Forms.UpdateForm(uint(formID), user.ID, input.Name); err != nil {
		return utils.ServiceError(c, err)
	}
	return fc.fullFormResponse(c, uint(formID))
}

func (fc *FormsController) DeleteForm(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}

	if err := fc.Forms.DeleteForm(uint(formID), user.ID); err != nil {
		return utils.ServiceError(c, err)
	}
	return c.JSON(fiber.Map{"detail": "deleted"})
}

func (fc *FormsController) ListQuestions(c *fiber.Ctx) error {
	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}

	questions, err := fc.Forms.ListQuestions(uint(formID))
	if err != nil {
		return utils.ServiceError(c, err)
	}

	result := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		result = append(result, questionMap(&q))
	}
	return c.JSON(result)
}

func (fc *FormsController) AddQuestion(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}

	var input services.QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	question, err := fc.Forms.AppendQuestion(uint(formID), user.ID, input)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return c.JSON(questionMap(question))
}

func (fc *FormsController) GetQuestion(c *fiber.Ctx) error {
	questionID, err := strconv.Atoi(c.Params("fieldId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field ID",
		})
	}

	question, err := fc.Forms.GetQuestion(uint(questionID))
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return c.JSON(questionMap(question))
}

func (fc *FormsController) UpdateQuestion(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	questionID, err := strconv.Atoi(c.Params("fieldId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field ID",
		})
	}

	var input services.QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	question, err := fc.Forms.UpdateQuestion(uint(questionID), user.ID, input)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return c.JSON(questionMap(question))
}

func (fc *FormsController) DeleteQuestion(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	questionID, err := strconv.Atoi(c.Params("fieldId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field ID",
		})
	}

	if err := fc.Forms.DeleteQuestion(uint(questionID), user.ID); err != nil {
		return utils.ServiceError(c, err)
	}
	return c.JSON(fiber.Map{"detail": "deleted"})
}

// AssignForm назначает форму пациенту с индивидуальными границами.
// Назначать может только создатель формы.
func (fc *FormsController) AssignForm(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}

	var input struct {
		UserID       uint                   `json:"user_id"`
		QuestionRefs []services.QuestionRef `json:"question_refs"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	form, err := fc.Forms.GetForm(uint(formID))
	if err != nil {
		return utils.ServiceError(c, err)
	}
	if form.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to access this form",
		})
	}

	if err := fc.Forms.AssignForm(uint(formID), input.UserID, input.QuestionRefs); err != nil {
		return utils.ServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "created"})
}

// SubmitForm принимает ответы текущего пользователя. Назначение формы
// для отправки не требуется.
func (fc *FormsController) SubmitForm(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}

	var answers []services.AnswerInput
	if err := c.BodyParser(&answers); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if _, err := fc.Submissions.SubmitForm(uint(formID), user.ID, answers); err != nil {
		return utils.ServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "created"})
}

// ListSubmissions отдаёт собранные отправки формы её создателю.
func (fc *FormsController) ListSubmissions(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	formID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form ID",
		})
	}

	form, err := fc.Forms.GetForm(uint(formID))
	if err != nil {
		return utils.ServiceError(c, err)
	}
	if form.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to access this form",
		})
	}

	submissions, err := fc.Submissions.ListSubmissions(uint(formID))
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return c.JSON(submissions)
}

func (fc *FormsController) fullFormResponse(c *fiber.Ctx, formID uint) error {
	form, err := fc.Forms.GetForm(formID)
	if err != nil {
		return utils.ServiceError(c, err)
	}

	var creator models.User
	fc.DB.First(&creator, form.UserID)

	questions := make([]fiber.Map, 0, len(form.Questions))
	for _, q := range form.Questions {
		questions = append(questions, fiber.Map{
			"id":       q.ID,
			"type":     q.Type,
			"question": q.Question,
		})
	}

	return c.JSON(fiber.Map{
		"id":        form.ID,
		"name":      form.Name,
		"user":      publicUserInfo(&creator),
		"questions": questions,
	})
}

func listFormMaps(forms []models.Form) []fiber.Map {
	result := make([]fiber.Map, 0, len(forms))
	for _, form := range forms {
		result = append(result, fiber.Map{
			"id":   form.ID,
			"name": form.Name,
		})
	}
	return result
}

func questionMap(q *models.FormQuestion) fiber.Map {
	return fiber.Map{
		"id":       q.ID,
		"type":     q.Type,
		"question": q.Question,
		"ref_min":  q.RefMin,
		"ref_max":  q.RefMax,
	}
}
