package routes

import (
	"medforms/backend/config"
	"medforms/backend/controllers"
	"medforms/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/signup", authController.Signup)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg)
	managerMiddleware := middleware.ManagerMiddleware()

	app.Get("/api/auth/me", authMiddleware, authController.Me)

	// User routes (roster is manager-only)
	usersController := controllers.NewUsersController(db, cfg)
	users := app.Group("/api/users", authMiddleware, managerMiddleware)
	users.Get("/", usersController.ListUsers)
	users.Get("/:id", usersController.GetUser)
	users.Put("/:id", usersController.UpdateUser)
	users.Delete("/:id", usersController.DeleteUser)

	// Posts routes
	postsController := controllers.NewPostsController(db, cfg)
	posts := app.Group("/api/posts", authMiddleware)
	posts.Get("/", postsController.ListPosts)
	posts.Get("/:id", postsController.GetPost)
	posts.Post("/", postsController.CreatePost)

	// Forms routes
	formsController := controllers.NewFormsController(db, cfg)
	forms := app.Group("/api/forms", authMiddleware)
	forms.Get("/", managerMiddleware, formsController.ListForms)
	forms.Get("/assigned", formsController.ListAssignedForms)
	forms.Post("/", managerMiddleware, formsController.CreateForm)

	forms.Get("/fields/:fieldId", formsController.GetQuestion)
	forms.Put("/fields/:fieldId", managerMiddleware, formsController.UpdateQuestion)
	forms.Delete("/fields/:fieldId", managerMiddleware, formsController.DeleteQuestion)

	forms.Get("/:id", formsController.GetForm)
	forms.Put("/:id", managerMiddleware, formsController.UpdateForm)
	forms.Delete("/:id", managerMiddleware, formsController.DeleteForm)
	forms.Get("/:id/fields", managerMiddleware, formsController.ListQuestions)
	forms.Post("/:id/fields", managerMiddleware, formsController.AddQuestion)
	forms.Post("/:id/assign", managerMiddleware, formsController.AssignForm)
	forms.Post("/:id/submit", formsController.SubmitForm)
	forms.Get("/:id/submissions", managerMiddleware, formsController.ListSubmissions)
}
