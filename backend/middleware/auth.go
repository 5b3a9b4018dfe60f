package middleware

import (
	"medforms/backend/config"
	"medforms/backend/models"
	"medforms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthMiddleware проверяет токен и что пользователь существует
// и не отключён. Пользователь кладётся в locals под ключом "user".
func AuthMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		if user.Disabled {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Inactive user",
			})
		}

		c.Locals("user", &user)
		return c.Next()
	}
}

// ManagerMiddleware пропускает только менеджеров. Ставится после
// AuthMiddleware.
func ManagerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		if !user.IsManager {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden - Manager access required",
			})
		}
		return c.Next()
	}
}

// CurrentUser достаёт пользователя, записанного AuthMiddleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
