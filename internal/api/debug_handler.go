package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sakutaro/tanabota/internal/auth"
	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

// DebugHandler serves unauthenticated inspection endpoints for local
// development. Not mounted in production deployments.
type DebugHandler struct {
	Store storage.Store
}

// ListUsers dumps every user row. Password hashes are truncated.
func (h *DebugHandler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, len(users))
	for i, user := range users {
		hash := user.PasswordHash
		if len(hash) > 20 {
			hash = hash[:20] + "..."
		}
		out[i] = gin.H{
			"id":            user.ID,
			"last_name":     user.LastName,
			"first_name":    user.FirstName,
			"email":         user.Email,
			"birthdate":     user.Birthdate,
			"postal_code":   user.PostalCode,
			"address":       user.Address,
			"phone_number":  user.PhoneNumber,
			"occupation":    user.Occupation,
			"company_name":  user.CompanyName,
			"password_hash": hash,
			"created_at":    user.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"total_users": len(users),
		"users":       out,
	})
}

// CreateTestUser inserts one throwaway account. A random UUID suffix keeps
// repeated calls from colliding on the unique email.
func (h *DebugHandler) CreateTestUser(c *gin.Context) {
	suffix := uuid.NewString()[:8]

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		LastName:     "田中",
		FirstName:    "太郎",
		Email:        fmt.Sprintf("test-user-%s@example.com", suffix),
		Birthdate:    "1990-01-01",
		PostalCode:   "123-4567",
		Address:      fmt.Sprintf("東京都新宿区テスト町1-%s番地", suffix[:3]),
		PhoneNumber:  "09012345678",
		Occupation:   "テストエンジニア",
		CompanyName:  fmt.Sprintf("テスト株式会社-%s", suffix[:4]),
		PasswordHash: hash,
	}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}
