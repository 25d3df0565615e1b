// Package seed loads the embedded master data (trigger and action catalog,
// rule and recipe templates, demo accounts) into the store at startup.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sakutaro/tanabota/internal/auth"
	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

//go:embed data.yaml
var rawData []byte

type triggerRow struct {
	ID             int64         `yaml:"id"`
	Kind           string        `yaml:"kind"`
	Name           string        `yaml:"name"`
	Description    string        `yaml:"description"`
	RequiredParams models.Params `yaml:"required_params"`
}

type actionRow struct {
	ID             int64         `yaml:"id"`
	Name           string        `yaml:"name"`
	Description    string        `yaml:"description"`
	RequiredParams models.Params `yaml:"required_params"`
}

type ruleTemplateRow struct {
	ID            int64         `yaml:"id"`
	Name          string        `yaml:"name"`
	Description   string        `yaml:"description"`
	Category      string        `yaml:"category"`
	AuthorID      int64         `yaml:"author_id"`
	TriggerID     int64         `yaml:"trigger_id"`
	TriggerParams models.Params `yaml:"trigger_params"`
	ActionID      int64         `yaml:"action_id"`
	ActionParams  models.Params `yaml:"action_params"`
}

type recipeTemplateRow struct {
	ID              int64   `yaml:"id"`
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	AuthorID        int64   `yaml:"author_id"`
	IsPublic        bool    `yaml:"is_public"`
	LikesCount      int64   `yaml:"likes_count"`
	RuleTemplateIDs []int64 `yaml:"rule_template_ids"`
}

type userRow struct {
	LastName    string `yaml:"last_name"`
	FirstName   string `yaml:"first_name"`
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	Birthdate   string `yaml:"birthdate"`
	PostalCode  string `yaml:"postal_code"`
	Address     string `yaml:"address"`
	PhoneNumber string `yaml:"phone_number"`
	Occupation  string `yaml:"occupation"`
	CompanyName string `yaml:"company_name"`
}

type preferenceRow struct {
	UserEmail string   `yaml:"user_email"`
	Question  string   `yaml:"question"`
	Answers   []string `yaml:"answers"`
}

type seedData struct {
	Triggers        []triggerRow        `yaml:"triggers"`
	Actions         []actionRow         `yaml:"actions"`
	RuleTemplates   []ruleTemplateRow   `yaml:"rule_templates"`
	RecipeTemplates []recipeTemplateRow `yaml:"recipe_templates"`
	Users           []userRow           `yaml:"users"`
	Preferences     []preferenceRow     `yaml:"preferences"`
}

// Apply loads the embedded master data into the store. Catalog rows carry
// explicit IDs and are inserted with insert-or-ignore semantics; demo users
// and preferences are skipped when they already exist, so Apply is safe to
// run on every startup.
func Apply(ctx context.Context, store storage.Store) error {
	var data seedData
	if err := yaml.Unmarshal(rawData, &data); err != nil {
		return fmt.Errorf("failed to parse seed data: %w", err)
	}

	return store.InTx(ctx, func(s storage.Store) error {
		now := time.Now().Unix()

		for _, row := range data.Triggers {
			trigger := &models.Trigger{
				ID:             row.ID,
				Kind:           row.Kind,
				Name:           row.Name,
				Description:    row.Description,
				RequiredParams: row.RequiredParams,
			}
			if err := s.UpsertTrigger(ctx, trigger); err != nil {
				return fmt.Errorf("failed to seed trigger %d: %w", row.ID, err)
			}
		}

		for _, row := range data.Actions {
			action := &models.Action{
				ID:             row.ID,
				Name:           row.Name,
				Description:    row.Description,
				RequiredParams: row.RequiredParams,
			}
			if err := s.UpsertAction(ctx, action); err != nil {
				return fmt.Errorf("failed to seed action %d: %w", row.ID, err)
			}
		}

		if err := seedUsers(ctx, s, data.Users); err != nil {
			return err
		}

		for _, row := range data.RuleTemplates {
			tmpl := &models.RuleTemplate{
				ID:            row.ID,
				Name:          row.Name,
				Description:   row.Description,
				Category:      models.RuleCategory(row.Category),
				AuthorID:      row.AuthorID,
				TriggerID:     row.TriggerID,
				TriggerParams: row.TriggerParams,
				ActionID:      row.ActionID,
				ActionParams:  row.ActionParams,
				IsPublic:      true,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.UpsertRuleTemplate(ctx, tmpl); err != nil {
				return fmt.Errorf("failed to seed rule template %d: %w", row.ID, err)
			}
		}

		for _, row := range data.RecipeTemplates {
			tmpl := &models.RecipeTemplate{
				ID:              row.ID,
				Name:            row.Name,
				Description:     row.Description,
				AuthorID:        row.AuthorID,
				IsPublic:        row.IsPublic,
				LikesCount:      row.LikesCount,
				RuleTemplateIDs: row.RuleTemplateIDs,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.UpsertRecipeTemplate(ctx, tmpl); err != nil {
				return fmt.Errorf("failed to seed recipe template %d: %w", row.ID, err)
			}
		}

		if err := seedPreferences(ctx, s, data.Preferences); err != nil {
			return err
		}

		slog.Info("seed data applied",
			"triggers", len(data.Triggers),
			"actions", len(data.Actions),
			"rule_templates", len(data.RuleTemplates),
			"recipe_templates", len(data.RecipeTemplates),
			"users", len(data.Users))
		return nil
	})
}

func seedUsers(ctx context.Context, s storage.Store, rows []userRow) error {
	for _, row := range rows {
		_, err := s.GetUserByEmail(ctx, row.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to look up seed user %q: %w", row.Email, err)
		}

		hash, err := auth.HashPassword(row.Password)
		if err != nil {
			return fmt.Errorf("failed to hash seed password for %q: %w", row.Email, err)
		}
		user := &models.User{
			LastName:     row.LastName,
			FirstName:    row.FirstName,
			Email:        row.Email,
			Birthdate:    row.Birthdate,
			PostalCode:   row.PostalCode,
			Address:      row.Address,
			PhoneNumber:  row.PhoneNumber,
			Occupation:   row.Occupation,
			CompanyName:  row.CompanyName,
			PasswordHash: hash,
		}
		if err := s.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user %q: %w", row.Email, err)
		}
	}
	return nil
}

func seedPreferences(ctx context.Context, s storage.Store, rows []preferenceRow) error {
	// Rows are grouped by email; cache the existing-question set per user.
	existing := make(map[int64]map[string]bool)

	for _, row := range rows {
		user, err := s.GetUserByEmail(ctx, row.UserEmail)
		if err != nil {
			return fmt.Errorf("failed to resolve seed preference user %q: %w", row.UserEmail, err)
		}

		questions, ok := existing[user.ID]
		if !ok {
			prefs, err := s.ListPreferencesByUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to list preferences for %q: %w", row.UserEmail, err)
			}
			questions = make(map[string]bool, len(prefs))
			for _, p := range prefs {
				questions[p.Question] = true
			}
			existing[user.ID] = questions
		}
		if questions[row.Question] {
			continue
		}

		pref := &models.Preference{
			UserID:          user.ID,
			Question:        row.Question,
			SelectedAnswers: row.Answers,
		}
		if err := s.CreatePreference(ctx, pref); err != nil {
			return fmt.Errorf("failed to seed preference for %q: %w", row.UserEmail, err)
		}
		questions[row.Question] = true
	}
	return nil
}
