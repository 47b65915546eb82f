package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/itops/support-portal/internal/api/dto"
	"github.com/itops/support-portal/internal/auth"
	"github.com/itops/support-portal/internal/service"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// UsersHandler covers registration, login and admin account management.
type UsersHandler struct {
	authSvc *service.AuthService
	users   *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authSvc *service.AuthService, users *service.UserService) *UsersHandler {
	return &UsersHandler{authSvc: authSvc, users: users}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.authSvc.Register(c.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	session, err := h.authSvc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(session.User),
	}})
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(actor)})
}

// List GET /admin/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	users, err := h.users.List(c.Context(), actor, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /admin/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	user, err := h.users.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ChangeRole PUT /admin/users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.users.ChangeRole(c.Context(), actor, c.Params("id"), req.Role); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetActive PUT /admin/users/:id/active.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.users.SetActive(c.Context(), actor, c.Params("id"), req.Active); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
