package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

// RecipeService manages recipe templates and users' copied recipes.
type RecipeService struct {
	store storage.Store
}

// NewRecipeService creates a RecipeService with the given storage backend.
func NewRecipeService(store storage.Store) *RecipeService {
	return &RecipeService{store: store}
}

// ListTemplates returns the public recipe template catalog.
func (s *RecipeService) ListTemplates(ctx context.Context) ([]*models.RecipeTemplate, error) {
	return s.store.ListRecipeTemplates(ctx)
}

// CopyTemplate instantiates a recipe template for a user: it snapshots each
// bundled rule template into a rule owned by the user, links the rules to a
// new recipe and bumps the template's copy counter. Everything happens in
// one transaction.
//
// Rules hold copies of the template parameter bags, not references; editing
// a template later never changes already-copied recipes.
func (s *RecipeService) CopyTemplate(ctx context.Context, templateID, userID int64) (*models.Recipe, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}

	var recipe *models.Recipe
	err = s.store.InTx(ctx, func(txStore storage.Store) error {
		tmpl, err := txStore.GetRecipeTemplate(ctx, templateID)
		if err != nil {
			return fmt.Errorf("recipe template %d: %w", templateID, err)
		}

		recipe = &models.Recipe{
			UserID:      userID,
			TemplateID:  tmpl.ID,
			Name:        tmpl.Name,
			Description: tmpl.Description,
		}
		if err := txStore.CreateRecipe(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}

		for _, ruleTemplateID := range tmpl.RuleTemplateIDs {
			ruleTmpl, err := txStore.GetRuleTemplate(ctx, ruleTemplateID)
			if err != nil {
				return fmt.Errorf("rule template %d: %w", ruleTemplateID, err)
			}
			rule := &models.Rule{
				UserID:        userID,
				Name:          ruleTmpl.Name,
				Description:   ruleTmpl.Description,
				Category:      ruleTmpl.Category,
				TemplateID:    ruleTmpl.ID,
				TriggerID:     ruleTmpl.TriggerID,
				TriggerParams: ruleTmpl.TriggerParams.Clone(),
				ActionID:      ruleTmpl.ActionID,
				ActionParams:  ruleTmpl.ActionParams.Clone(),
			}
			if err := txStore.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("create rule: %w", err)
			}
			if err := txStore.LinkRecipeRule(ctx, recipe.ID, rule.ID); err != nil {
				return fmt.Errorf("link rule %d: %w", rule.ID, err)
			}
			recipe.Rules = append(recipe.Rules, *rule)
		}

		return txStore.IncrementTemplateCopies(ctx, tmpl.ID)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("recipe template copied",
		"template_id", templateID,
		"user_id", userID,
		"recipe_id", recipe.ID,
		"rules", len(recipe.Rules),
	)
	return recipe, nil
}

// ListRecipes returns the user's copied recipes with their rules.
func (s *RecipeService) ListRecipes(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}
	return s.store.ListRecipesByUser(ctx, userID)
}
