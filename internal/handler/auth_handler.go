package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anujitha615/WayFindersHub/internal/models"
	"github.com/anujitha615/WayFindersHub/internal/service"
	"github.com/anujitha615/WayFindersHub/pkg/response"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Please fill in all fields", err)
		return
	}

	user, err := h.service.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Please enter your email and password", err)
		return
	}

	resp, err := h.service.Login(req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, resp)
}
