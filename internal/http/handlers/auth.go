package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"ridemate/internal/domain"
	"ridemate/internal/domain/models"
	"ridemate/internal/http/middleware"
	"ridemate/internal/repositories"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

// POST /api/auth/register
func Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	var fields []domain.ValidationError
	if req.Name == "" {
		fields = append(fields, domain.ValidationError{Field: "name", Msg: "name is required"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields = append(fields, domain.ValidationError{Field: "email", Msg: "valid email is required"})
	}
	if len(req.Phone) != 10 {
		fields = append(fields, domain.ValidationError{Field: "phone", Msg: "valid 10-digit phone number is required"})
	}
	if len(req.Password) < 6 {
		fields = append(fields, domain.ValidationError{Field: "password", Msg: "password must be at least 6 characters"})
	}
	if len(fields) > 0 {
		RespondDomainError(c, domain.ValidationErrors{Fields: fields})
		return
	}

	users := repositories.UserRepo{}
	exists, err := users.EmailOrPhoneExists(c.Request.Context(), req.Email, req.Phone)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if exists {
		RespondDomainError(c, domain.ValidationError{Field: "email", Msg: "email or phone already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         "user",
		Gender:       strings.ToLower(strings.TrimSpace(req.Gender)),
	}
	if err := users.Create(c.Request.Context(), &user); err != nil {
		RespondDomainError(c, err)
		return
	}

	token, err := middleware.IssueToken(user.ID, user.Role)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "registration successful",
		"token":   token,
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	users := repositories.UserRepo{}
	user, err := users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		RespondDomainError(c, err)
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is deactivated"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	_ = users.TouchLastLogin(c.Request.Context(), user.ID, time.Now())

	token, err := middleware.IssueToken(user.ID, user.Role)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
