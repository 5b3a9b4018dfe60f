package controllers

import (
	"errors"
	"strconv"

	"medforms/backend/config"
	"medforms/backend/models"
	"medforms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UsersController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUsersController(db *gorm.DB, cfg *config.Config) *UsersController {
	return &UsersController{DB: db, Cfg: cfg}
}

// ListUsers возвращает пациентов (без менеджеров) постранично.
func (uc *UsersController) ListUsers(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	query := uc.DB.Model(&models.User{}).Where("is_manager = ?", false)

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		result = append(result, fiber.Map{
			"key":                user.ID,
			"fio":                user.FullName,
			"age":                user.Age(),
			"gender":             user.Gender,
			"latest_form_result": user.LatestFormResult,
		})
	}

	return utils.Paginate(c, result, total, page, pageSize)
}

func (uc *UsersController) GetUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"key":                user.ID,
		"email":              user.Email,
		"fio":                user.FullName,
		"age":                user.Age(),
		"gender":             user.Gender,
		"latest_form_result": user.LatestFormResult,
		"disabled":           user.Disabled,
		"is_manager":         user.IsManager,
	})
}

func (uc *UsersController) UpdateUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var input struct {
		Email     string `json:"email"`
		FullName  string `json:"fullname"`
		Disabled  *bool  `json:"disabled"`
		IsManager *bool  `json:"is_manager"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Email != "" && input.Email != user.Email {
		// Проверяем, не занят ли email другим пользователем
		var existing models.User
		if err := uc.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
			if existing.ID != user.ID {
				return utils.Conflict(c, "Email already taken")
			}
		}
		user.Email = input.Email
	}
	if input.FullName != "" {
		user.FullName = input.FullName
	}
	if input.Disabled != nil {
		user.Disabled = *input.Disabled
	}
	if input.IsManager != nil {
		user.IsManager = *input.IsManager
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Profile updated",
	})
}

func (uc *UsersController) DeleteUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := uc.DB.Delete(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "User deleted",
	})
}

func pageParams(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
