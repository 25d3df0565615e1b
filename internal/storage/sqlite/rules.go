package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

// UpsertTrigger inserts a trigger master row with an explicit ID, skipping
// rows that already exist.
func (s *SQLiteStore) UpsertTrigger(ctx context.Context, trigger *models.Trigger) error {
	params, err := encodeParams(trigger.RequiredParams)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO triggers (id, kind, name, description, required_params)
		 VALUES (?, ?, ?, ?, ?)`,
		trigger.ID, trigger.Kind, trigger.Name, trigger.Description, params,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trigger: %w", err)
	}
	return nil
}

// UpsertAction inserts an action master row with an explicit ID, skipping
// rows that already exist.
func (s *SQLiteStore) UpsertAction(ctx context.Context, action *models.Action) error {
	params, err := encodeParams(action.RequiredParams)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO actions (id, name, description, required_params)
		 VALUES (?, ?, ?, ?)`,
		action.ID, action.Name, action.Description, params,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert action: %w", err)
	}
	return nil
}

// UpsertRuleTemplate inserts a rule template with an explicit ID, skipping
// rows that already exist.
func (s *SQLiteStore) UpsertRuleTemplate(ctx context.Context, tmpl *models.RuleTemplate) error {
	now := time.Now().Unix()
	if tmpl.CreatedAt == 0 {
		tmpl.CreatedAt = now
	}
	if tmpl.UpdatedAt == 0 {
		tmpl.UpdatedAt = now
	}
	triggerParams, err := encodeParams(tmpl.TriggerParams)
	if err != nil {
		return err
	}
	actionParams, err := encodeParams(tmpl.ActionParams)
	if err != nil {
		return err
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO rule_templates
		   (id, name, description, category, author_id, trigger_id, trigger_params,
		    action_id, action_params, is_public, likes_count, copies_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.Name, tmpl.Description, string(tmpl.Category), tmpl.AuthorID,
		tmpl.TriggerID, triggerParams, tmpl.ActionID, actionParams,
		tmpl.IsPublic, tmpl.LikesCount, tmpl.CopiesCount, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rule template: %w", err)
	}
	return nil
}

// UpsertRecipeTemplate inserts a recipe template and its rule template
// links with explicit IDs, skipping rows that already exist.
func (s *SQLiteStore) UpsertRecipeTemplate(ctx context.Context, tmpl *models.RecipeTemplate) error {
	now := time.Now().Unix()
	if tmpl.CreatedAt == 0 {
		tmpl.CreatedAt = now
	}
	if tmpl.UpdatedAt == 0 {
		tmpl.UpdatedAt = now
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO recipe_templates
		   (id, name, description, author_id, is_public, likes_count, copies_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.Name, tmpl.Description, tmpl.AuthorID,
		tmpl.IsPublic, tmpl.LikesCount, tmpl.CopiesCount, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert recipe template: %w", err)
	}

	for _, ruleTemplateID := range tmpl.RuleTemplateIDs {
		_, err := s.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_template_rules (recipe_template_id, rule_template_id)
			 VALUES (?, ?)`,
			tmpl.ID, ruleTemplateID,
		)
		if err != nil {
			return fmt.Errorf("failed to link rule template: %w", err)
		}
	}
	return nil
}

// GetRecipeTemplate retrieves one recipe template with its rule template IDs.
func (s *SQLiteStore) GetRecipeTemplate(ctx context.Context, id int64) (*models.RecipeTemplate, error) {
	tmpl := &models.RecipeTemplate{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, description, author_id, is_public, likes_count, copies_count, created_at, updated_at
		 FROM recipe_templates WHERE id = ?`, id,
	).Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &tmpl.AuthorID,
		&tmpl.IsPublic, &tmpl.LikesCount, &tmpl.CopiesCount, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recipe template %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe template: %w", err)
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT rule_template_id FROM recipe_template_rules
		 WHERE recipe_template_id = ? ORDER BY rule_template_id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule template links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ruleTemplateID int64
		if err := rows.Scan(&ruleTemplateID); err != nil {
			return nil, fmt.Errorf("failed to scan rule template link: %w", err)
		}
		tmpl.RuleTemplateIDs = append(tmpl.RuleTemplateIDs, ruleTemplateID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule template links: %w", err)
	}
	return tmpl, nil
}

// ListRecipeTemplates returns all public recipe templates ordered by ID.
func (s *SQLiteStore) ListRecipeTemplates(ctx context.Context) ([]*models.RecipeTemplate, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id FROM recipe_templates WHERE is_public = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe templates: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan recipe template id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe templates: %w", err)
	}

	templates := make([]*models.RecipeTemplate, 0, len(ids))
	for _, id := range ids {
		tmpl, err := s.GetRecipeTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// GetRuleTemplate retrieves one rule template.
func (s *SQLiteStore) GetRuleTemplate(ctx context.Context, id int64) (*models.RuleTemplate, error) {
	tmpl := &models.RuleTemplate{}
	var category, triggerParams, actionParams string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, description, category, author_id, trigger_id, trigger_params,
		        action_id, action_params, is_public, likes_count, copies_count, created_at, updated_at
		 FROM rule_templates WHERE id = ?`, id,
	).Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &category, &tmpl.AuthorID,
		&tmpl.TriggerID, &triggerParams, &tmpl.ActionID, &actionParams,
		&tmpl.IsPublic, &tmpl.LikesCount, &tmpl.CopiesCount, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule template %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule template: %w", err)
	}

	tmpl.Category = models.RuleCategory(category)
	if tmpl.TriggerParams, err = decodeParams(triggerParams); err != nil {
		return nil, err
	}
	if tmpl.ActionParams, err = decodeParams(actionParams); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// CreateRule persists a user's rule instance, assigning its ID.
func (s *SQLiteStore) CreateRule(ctx context.Context, rule *models.Rule) error {
	now := time.Now().Unix()
	if rule.CreatedAt == 0 {
		rule.CreatedAt = now
	}
	if rule.UpdatedAt == 0 {
		rule.UpdatedAt = now
	}
	triggerParams, err := encodeParams(rule.TriggerParams)
	if err != nil {
		return err
	}
	actionParams, err := encodeParams(rule.ActionParams)
	if err != nil {
		return err
	}

	var templateID any
	if rule.TemplateID != 0 {
		templateID = rule.TemplateID
	}

	err = s.q.QueryRowContext(ctx,
		`INSERT INTO rules (user_id, name, description, category, template_id,
		   trigger_id, trigger_params, action_id, action_params, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		rule.UserID, rule.Name, rule.Description, string(rule.Category), templateID,
		rule.TriggerID, triggerParams, rule.ActionID, actionParams,
		rule.CreatedAt, rule.UpdatedAt,
	).Scan(&rule.ID)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// CreateRecipe persists a user's recipe instance, assigning its ID.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	now := time.Now().Unix()
	if recipe.CreatedAt == 0 {
		recipe.CreatedAt = now
	}
	if recipe.UpdatedAt == 0 {
		recipe.UpdatedAt = now
	}

	var templateID any
	if recipe.TemplateID != 0 {
		templateID = recipe.TemplateID
	}

	err := s.q.QueryRowContext(ctx,
		`INSERT INTO recipes (user_id, template_id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		recipe.UserID, templateID, recipe.Name, recipe.Description,
		recipe.CreatedAt, recipe.UpdatedAt,
	).Scan(&recipe.ID)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// LinkRecipeRule attaches a rule to a recipe.
func (s *SQLiteStore) LinkRecipeRule(ctx context.Context, recipeID, ruleID int64) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO recipe_rules (recipe_id, rule_id) VALUES (?, ?)`,
		recipeID, ruleID,
	)
	if err != nil {
		return fmt.Errorf("failed to link recipe rule: %w", err)
	}
	return nil
}

// IncrementTemplateCopies bumps a recipe template's copies_count.
func (s *SQLiteStore) IncrementTemplateCopies(ctx context.Context, templateID int64) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE recipe_templates SET copies_count = copies_count + 1 WHERE id = ?`,
		templateID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment template copies: %w", err)
	}
	return nil
}

// ListRecipesByUser returns a user's recipes, each populated with its rules.
func (s *SQLiteStore) ListRecipesByUser(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, COALESCE(template_id, 0), name, description, created_at, updated_at
		 FROM recipes WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe := &models.Recipe{}
		if err := rows.Scan(&recipe.ID, &recipe.UserID, &recipe.TemplateID,
			&recipe.Name, &recipe.Description, &recipe.CreatedAt, &recipe.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	for _, recipe := range recipes {
		rules, err := s.rulesForRecipe(ctx, recipe.ID)
		if err != nil {
			return nil, err
		}
		recipe.Rules = rules
	}
	return recipes, nil
}

func (s *SQLiteStore) rulesForRecipe(ctx context.Context, recipeID int64) ([]models.Rule, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.name, r.description, r.category, COALESCE(r.template_id, 0),
		        r.trigger_id, r.trigger_params, r.action_id, r.action_params, r.created_at, r.updated_at
		 FROM rules r
		 JOIN recipe_rules rr ON rr.rule_id = r.id
		 WHERE rr.recipe_id = ?
		 ORDER BY r.id`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe rules: %w", err)
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var rule models.Rule
		var category, triggerParams, actionParams string
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Name, &rule.Description, &category,
			&rule.TemplateID, &rule.TriggerID, &triggerParams, &rule.ActionID, &actionParams,
			&rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Category = models.RuleCategory(category)
		if rule.TriggerParams, err = decodeParams(triggerParams); err != nil {
			return nil, err
		}
		if rule.ActionParams, err = decodeParams(actionParams); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

// RulesForUser returns the flattened candidate rule set for the settlement
// engine: every rule reachable through the user's recipes, joined with its
// trigger kind, in stable catalog order. Duplicates are preserved; the
// engine deduplicates by rule ID.
func (s *SQLiteStore) RulesForUser(ctx context.Context, userID int64) ([]models.CandidateRule, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT r.id, t.kind, r.trigger_params, r.action_id, r.action_params
		 FROM rules r
		 JOIN recipe_rules rr ON rr.rule_id = r.id
		 JOIN recipes rc ON rc.id = rr.recipe_id
		 JOIN triggers t ON t.id = r.trigger_id
		 WHERE rc.user_id = ?
		 ORDER BY rc.id, r.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules for user: %w", err)
	}
	defer rows.Close()

	var candidates []models.CandidateRule
	for rows.Next() {
		var cand models.CandidateRule
		var triggerParams, actionParams string
		if err := rows.Scan(&cand.RuleID, &cand.TriggerKind, &triggerParams,
			&cand.ActionID, &actionParams); err != nil {
			return nil, fmt.Errorf("failed to scan candidate rule: %w", err)
		}
		if cand.TriggerParams, err = decodeParams(triggerParams); err != nil {
			return nil, err
		}
		if cand.ActionParams, err = decodeParams(actionParams); err != nil {
			return nil, err
		}
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidate rules: %w", err)
	}
	return candidates, nil
}
