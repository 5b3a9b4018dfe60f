package controllers

import (
	"errors"
	"strconv"

	"medforms/backend/config"
	"medforms/backend/middleware"
	"medforms/backend/models"
	"medforms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PostsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewPostsController(db *gorm.DB, cfg *config.Config) *PostsController {
	return &PostsController{DB: db, Cfg: cfg}
}

func (pc *PostsController) ListPosts(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	var total int64
	pc.DB.Model(&models.Post{}).Count(&total)

	var posts []models.Post
	if err := pc.DB.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(posts))
	for _, post := range posts {
		result = append(result, fiber.Map{
			"id":   post.ID,
			"name": post.Name,
		})
	}

	return utils.Paginate(c, result, total, page, pageSize)
}

func (pc *PostsController) GetPost(c *fiber.Ctx) error {
	postID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid post ID")
	}

	var post models.Post
	if err := pc.DB.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Post not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var author models.User
	pc.DB.First(&author, post.UserID)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":          post.ID,
		"name":        post.Name,
		"description": post.Description,
		"user":        publicUserInfo(&author),
	})
}

// CreatePost доступен только менеджеру.
func (pc *PostsController) CreatePost(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	if !user.IsManager {
		return utils.Forbidden(c, "Only managers can create posts")
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	post := models.Post{
		Name:        input.Name,
		Description: input.Description,
		UserID:      user.ID,
	}
	if err := pc.DB.Create(&post).Error; err != nil {
		return utils.InternalServerError(c, "Could not create post")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":          post.ID,
		"name":        post.Name,
		"description": post.Description,
	})
}
