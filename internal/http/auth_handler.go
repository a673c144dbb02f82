package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"llm-insurance/internal/domain"
	"llm-insurance/internal/service"
)

// AuthHandler mantiene dependencias para endpoints de autenticacion y perfil.
type AuthHandler struct {
	logger   *zap.Logger
	accounts *service.AccountService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		accounts: accounts,
	}
}

type signupRequest struct {
	UserID        string   `json:"userId" binding:"required,min=4,max=20,userid"`
	Password      string   `json:"password" binding:"required,min=8,max=20,password"`
	Email         string   `json:"email" binding:"required,email"`
	Name          string   `json:"name" binding:"required,notblank,min=2,max=50"`
	PhoneNumber   string   `json:"phoneNumber" binding:"required,signup_phone"`
	BirthDate     string   `json:"birthDate" binding:"required,pastdate"`
	Gender        string   `json:"gender" binding:"required,gender"`
	IsMarried     *bool    `json:"isMarried" binding:"required"`
	Job           string   `json:"job" binding:"required,notblank,min=2,max=100"`
	Diseases      []string `json:"diseases"`
	Subscriptions []string `json:"subscriptions"`
}

type loginRequest struct {
	UserID   string `json:"userId" binding:"required,notblank"`
	Password string `json:"password" binding:"required,notblank"`
}

type profileUpdateRequest struct {
	Email         *string  `json:"email" binding:"omitnil,email"`
	Name          *string  `json:"name" binding:"omitnil,notblank,min=1,max=50"`
	PhoneNumber   *string  `json:"phoneNumber" binding:"omitnil,update_phone"`
	BirthDate     *string  `json:"birthDate" binding:"omitnil,pastdate"`
	Gender        *string  `json:"gender" binding:"omitnil,gender"`
	IsMarried     *bool    `json:"isMarried"`
	Job           *string  `json:"job" binding:"omitnil,notblank,min=1,max=50"`
	Diseases      []string `json:"diseases"`
	Subscriptions []string `json:"subscriptions"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	domain.Profile
}

// Signup maneja POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !h.bind(c, &req, "signup") {
		return
	}

	birthDate, err := domain.ParseDate(req.BirthDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, validationBody(map[string]string{"birthDate": pastDateMessage}))
		return
	}

	err = h.accounts.Signup(c.Request.Context(), service.SignupInput{
		UserID:        req.UserID,
		Password:      req.Password,
		Email:         req.Email,
		Name:          req.Name,
		PhoneNumber:   req.PhoneNumber,
		BirthDate:     birthDate.Time,
		Gender:        domain.Gender(req.Gender),
		IsMarried:     *req.IsMarried,
		Job:           req.Job,
		Diseases:      req.Diseases,
		Subscriptions: req.Subscriptions,
	})
	if err != nil {
		h.writeServiceError(c, "signup", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signup completed"})
}

// Login maneja POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req, "login") {
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		// no distinguir cuenta inexistente de password incorrecto
		if errors.Is(err, service.ErrAccountNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Warn("login rejected", zap.String("user_id", req.UserID), zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.writeServiceError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		Profile:     res.Profile,
	})
}

// CheckUserID maneja GET /api/v1/auth/check-userid/:userId.
func (h *AuthHandler) CheckUserID(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	available, err := h.accounts.CheckUserIDAvailable(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, "check user id", err)
		return
	}
	if !available {
		c.JSON(http.StatusBadRequest, gin.H{"available": false, "error": "user id is already taken"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "message": "user id is available"})
}

// GetProfile maneja GET /api/v1/auth/profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := GetAuthSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	profile, err := h.accounts.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile maneja PUT /api/v1/auth/profile con semantica de actualizacion parcial.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := GetAuthSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req profileUpdateRequest
	if !h.bind(c, &req, "update profile") {
		return
	}

	input := service.ProfileUpdateInput{
		Email:         req.Email,
		Name:          req.Name,
		PhoneNumber:   req.PhoneNumber,
		IsMarried:     req.IsMarried,
		Job:           req.Job,
		Diseases:      req.Diseases,
		Subscriptions: req.Subscriptions,
	}
	if req.BirthDate != nil {
		d, err := domain.ParseDate(*req.BirthDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, validationBody(map[string]string{"birthDate": pastDateMessage}))
			return
		}
		birth := d.Time
		input.BirthDate = &birth
	}
	if req.Gender != nil {
		gender := domain.Gender(*req.Gender)
		input.Gender = &gender
	}

	profile, err := h.accounts.UpdateProfile(c.Request.Context(), userID, input)
	if err != nil {
		h.writeServiceError(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Logout maneja POST /api/v1/auth/logout. El token sigue vigente hasta su exp.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := GetAuthSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), userID); err != nil {
		h.writeServiceError(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) bind(c *gin.Context, req any, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if fields, ok := fieldErrors(err); ok {
			h.logger.Warn("validation failed", zap.String("op", op), zap.Any("fields", fields))
			c.JSON(http.StatusBadRequest, validationBody(fields))
			return false
		}
		h.logger.Warn("invalid request", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

// writeServiceError traduce errores del servicio a status y mensaje sin filtrar detalles internos.
func (h *AuthHandler) writeServiceError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is already taken"})
	case errors.Is(err, service.ErrPersistenceConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not save changes, check the submitted data"})
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func validationBody(fields map[string]string) gin.H {
	return gin.H{"error": "validation failed", "fields": fields}
}
