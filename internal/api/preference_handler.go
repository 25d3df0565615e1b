package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakutaro/tanabota/internal/middleware"
	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/service"
)

// PreferenceHandler serves the onboarding questionnaire endpoints.
type PreferenceHandler struct {
	Preferences *service.PreferenceService
}

type preferenceRequest struct {
	Question        string   `json:"question" binding:"required"`
	SelectedAnswers []string `json:"selected_answers" binding:"required,min=1"`
}

type preferenceResponse struct {
	ID              int64    `json:"id"`
	UserID          int64    `json:"user_id"`
	Question        string   `json:"question"`
	SelectedAnswers []string `json:"selected_answers"`
}

// CreateBatch saves the authenticated user's questionnaire answers. All
// rows are saved in one transaction.
func (h *PreferenceHandler) CreateBatch(c *gin.Context) {
	var reqs []preferenceRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "at least one preference is required"})
		return
	}

	userID := middleware.UserID(c)
	prefs := make([]*models.Preference, len(reqs))
	for i, req := range reqs {
		prefs[i] = &models.Preference{
			UserID:          userID,
			Question:        req.Question,
			SelectedAnswers: req.SelectedAnswers,
		}
	}
	if err := h.Preferences.CreateBatch(c.Request.Context(), prefs); err != nil {
		respondError(c, err)
		return
	}

	out := make([]preferenceResponse, len(prefs))
	for i, pref := range prefs {
		out[i] = preferenceResponse{
			ID:              pref.ID,
			UserID:          pref.UserID,
			Question:        pref.Question,
			SelectedAnswers: pref.SelectedAnswers,
		}
	}
	c.JSON(http.StatusCreated, out)
}

// List returns the authenticated user's stored answers.
func (h *PreferenceHandler) List(c *gin.Context) {
	prefs, err := h.Preferences.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]preferenceResponse, len(prefs))
	for i, pref := range prefs {
		out[i] = preferenceResponse{
			ID:              pref.ID,
			UserID:          pref.UserID,
			Question:        pref.Question,
			SelectedAnswers: pref.SelectedAnswers,
		}
	}
	c.JSON(http.StatusOK, out)
}
