package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/docs-hub/internal/api/dto"
	"github.com/spec-kit/docs-hub/internal/auth"
	"github.com/spec-kit/docs-hub/internal/domain"
	"github.com/spec-kit/docs-hub/internal/service"
	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

// PostsHandler serves the post endpoints.
type PostsHandler struct {
	service *service.PostService
}

// NewPostsHandler constructs handler.
func NewPostsHandler(postService *service.PostService) *PostsHandler {
	return &PostsHandler{service: postService}
}

// ListAll GET /api/posts.
func (h *PostsHandler) ListAll(c *fiber.Ctx) error {
	posts, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPostResponses(posts)})
}

// ListPublic GET /api/posts/public with an optional ?q= substring filter.
func (h *PostsHandler) ListPublic(c *fiber.Ctx) error {
	posts, err := h.service.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPostSummaries(posts)})
}

// Get GET /api/posts/:identifier.
func (h *PostsHandler) Get(c *fiber.Ctx) error {
	_, isAdmin := auth.AdminFromContext(c)
	post, err := h.service.Resolve(c.UserContext(), c.Params("identifier"), isAdmin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPostResponse(post)})
}

// Create POST /api/posts.
func (h *PostsHandler) Create(c *fiber.Ctx) error {
	admin, _ := auth.AdminFromContext(c)
	req, err := parsePostRequest(c)
	if err != nil {
		return err
	}
	post, err := h.service.Create(c.UserContext(), adminEmail(admin), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPostResponse(post)})
}

// Update PUT /api/posts/:identifier.
func (h *PostsHandler) Update(c *fiber.Ctx) error {
	admin, _ := auth.AdminFromContext(c)
	req, err := parsePostRequest(c)
	if err != nil {
		return err
	}

	existing, err := h.service.Resolve(c.UserContext(), c.Params("identifier"), true)
	if err != nil {
		return err
	}
	post, err := h.service.Update(c.UserContext(), adminEmail(admin), existing.ID, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPostResponse(post)})
}

// Delete DELETE /api/posts/:identifier.
func (h *PostsHandler) Delete(c *fiber.Ctx) error {
	admin, _ := auth.AdminFromContext(c)
	existing, err := h.service.Resolve(c.UserContext(), c.Params("identifier"), true)
	if err != nil {
		return err
	}
	deleted, err := h.service.Delete(c.UserContext(), adminEmail(admin), existing.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("Post", nil)
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "Post deleted successfully"}})
}

func parsePostRequest(c *fiber.Ctx) (dto.PostRequest, error) {
	var req dto.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req, dto.PostMessages); err != nil {
		return req, err
	}
	return req, nil
}

func adminEmail(payload *domain.AdminPayload) string {
	if payload == nil {
		return ""
	}
	return payload.Email
}
