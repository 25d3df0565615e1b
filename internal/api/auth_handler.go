package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakutaro/tanabota/internal/auth"
	"github.com/sakutaro/tanabota/internal/middleware"
	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

// AuthHandler serves registration, login and the current-user endpoint.
type AuthHandler struct {
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	Store         storage.Store
}

type registerRequest struct {
	LastName    string `json:"last_name" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Birthdate   string `json:"birthdate" binding:"omitempty,dateonly"`
	PostalCode  string `json:"postal_code"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
	Occupation  string `json:"occupation"`
	CompanyName string `json:"company_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	LastName    string `json:"last_name"`
	FirstName   string `json:"first_name"`
	Email       string `json:"email"`
	Birthdate   string `json:"birthdate,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		LastName:    user.LastName,
		FirstName:   user.FirstName,
		Email:       user.Email,
		Birthdate:   user.Birthdate,
		PostalCode:  user.PostalCode,
		Address:     user.Address,
		PhoneNumber: user.PhoneNumber,
		Occupation:  user.Occupation,
		CompanyName: user.CompanyName,
		CreatedAt:   user.CreatedAt,
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user := &models.User{
		LastName:    req.LastName,
		FirstName:   req.FirstName,
		Email:       req.Email,
		Birthdate:   req.Birthdate,
		PostalCode:  req.PostalCode,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Occupation:  req.Occupation,
		CompanyName: req.CompanyName,
	}
	created, err := h.Authenticator.Register(c.Request.Context(), user, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    toUserResponse(created),
	})
}

// Login verifies credentials and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.Authenticator.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.JWT.Generate(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    toUserResponse(user),
	})
}

// Logout exists for client symmetry. Tokens are stateless, so there is
// nothing to invalidate server-side; clients drop the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.Store.GetUserByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
