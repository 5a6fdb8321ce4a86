package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"papaya-users/internal/cqrs"
	"papaya-users/internal/domain"
	"papaya-users/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger       *zap.Logger
	userServ     *service.UserService
	cookieName   string
	secureCookie bool
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, cookieName string, secureCookie bool) *UserHandler {
	if cookieName == "" {
		cookieName = service.DefaultAuthCookie
	}
	return &UserHandler{
		logger:       logger,
		userServ:     userServ,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

// Login maneja POST /users/login. Ademas del body, deja el token en una cookie HttpOnly.
func (h *UserHandler) Login(c *gin.Context) {
	var req cqrs.LoginUserCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}

	result, err := h.userServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, result.AccessToken, int(result.ExpiresIn), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, result)
}

// CreateUser maneja POST /users.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req cqrs.CreateUserCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}

	user, err := h.userServ.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser maneja GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userServ.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers maneja GET /users?page=&limit=.
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := intQuery(c, "page", defaultPage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
		return
	}
	limit, err := intQuery(c, "limit", defaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	result, err := h.userServ.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateUser maneja PUT /users/:id.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Avatar    *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}

	user, err := h.userServ.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:    c.Param("id"),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser maneja DELETE /users/:id.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userServ.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me maneja GET /users/me; requiere JWTAuthMiddleware.
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	user, err := h.userServ.GetUser(c.Request.Context(), claims.Subject)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrValidationFailed.Error(), "details": verr.Fields})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrDuplicateEmail.Error()})
	case errors.Is(err, domain.ErrAuthenticationFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrAuthenticationFailed.Error()})
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *UserHandler) invalidPayload(c *gin.Context, err error) {
	h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	details := map[string]string{"payload": "invalid payload"}
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		details["payload"] = "invalid json"
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": details})
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
