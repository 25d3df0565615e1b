package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakutaro/tanabota/internal/middleware"
	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/service"
)

// RecipeHandler serves the recipe template catalog and users' copied
// recipes.
type RecipeHandler struct {
	Recipes *service.RecipeService
}

type copyRecipeRequest struct {
	TemplateID int64 `json:"template_id" binding:"required,min=1"`
}

type recipeTemplateResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	AuthorID        int64   `json:"author_id"`
	LikesCount      int64   `json:"likes_count"`
	CopiesCount     int64   `json:"copies_count"`
	RuleTemplateIDs []int64 `json:"rule_template_ids"`
}

type ruleResponse struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	TriggerID     int64         `json:"trigger_id"`
	TriggerParams models.Params `json:"trigger_params"`
	ActionID      int64         `json:"action_id"`
	ActionParams  models.Params `json:"action_params"`
}

type recipeResponse struct {
	ID          int64          `json:"id"`
	TemplateID  int64          `json:"template_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedAt   int64          `json:"created_at"`
	Rules       []ruleResponse `json:"rules"`
}

func toRecipeResponse(recipe *models.Recipe) recipeResponse {
	rules := make([]ruleResponse, len(recipe.Rules))
	for i, rule := range recipe.Rules {
		rules[i] = ruleResponse{
			ID:            rule.ID,
			Name:          rule.Name,
			Description:   rule.Description,
			Category:      string(rule.Category),
			TriggerID:     rule.TriggerID,
			TriggerParams: rule.TriggerParams,
			ActionID:      rule.ActionID,
			ActionParams:  rule.ActionParams,
		}
	}
	return recipeResponse{
		ID:          recipe.ID,
		TemplateID:  recipe.TemplateID,
		Name:        recipe.Name,
		Description: recipe.Description,
		CreatedAt:   recipe.CreatedAt,
		Rules:       rules,
	}
}

// ListTemplates returns the public recipe template catalog.
func (h *RecipeHandler) ListTemplates(c *gin.Context) {
	templates, err := h.Recipes.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]recipeTemplateResponse, len(templates))
	for i, tmpl := range templates {
		out[i] = recipeTemplateResponse{
			ID:              tmpl.ID,
			Name:            tmpl.Name,
			Description:     tmpl.Description,
			AuthorID:        tmpl.AuthorID,
			LikesCount:      tmpl.LikesCount,
			CopiesCount:     tmpl.CopiesCount,
			RuleTemplateIDs: tmpl.RuleTemplateIDs,
		}
	}
	c.JSON(http.StatusOK, out)
}

// CopyTemplate instantiates a recipe template for the authenticated user.
func (h *RecipeHandler) CopyTemplate(c *gin.Context) {
	var req copyRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	recipe, err := h.Recipes.CopyTemplate(c.Request.Context(), req.TemplateID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipeResponse(recipe))
}

// ListRecipes returns the authenticated user's recipes with their rules.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	recipes, err := h.Recipes.ListRecipes(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]recipeResponse, len(recipes))
	for i, recipe := range recipes {
		out[i] = toRecipeResponse(recipe)
	}
	c.JSON(http.StatusOK, out)
}
