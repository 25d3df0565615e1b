// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/sakutaro/tanabota/internal/models"
)

// ErrNotFound is wrapped by store methods when the requested row does not
// exist. Callers map it to a 404.
var ErrNotFound = errors.New("not found")

// UserStore persists user accounts and onboarding preferences.
type UserStore interface {
	// CreateUser persists a new user. The user's ID and CreatedAt are
	// populated by the store.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// UserExists reports whether a user with the given ID exists.
	UserExists(ctx context.Context, id int64) (bool, error)

	// ListUsers returns all users, ordered by ID. Debug surface only.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreatePreference persists one onboarding preference row.
	CreatePreference(ctx context.Context, pref *models.Preference) error

	// ListPreferencesByUser returns a user's preferences in insertion order.
	ListPreferencesByUser(ctx context.Context, userID int64) ([]*models.Preference, error)
}

// CatalogStore persists the trigger/action/rule/recipe catalog.
type CatalogStore interface {
	// UpsertTrigger / UpsertAction / UpsertRuleTemplate /
	// UpsertRecipeTemplate insert master data with explicit IDs, skipping
	// rows that already exist. Used by the seeder.
	UpsertTrigger(ctx context.Context, trigger *models.Trigger) error
	UpsertAction(ctx context.Context, action *models.Action) error
	UpsertRuleTemplate(ctx context.Context, tmpl *models.RuleTemplate) error
	UpsertRecipeTemplate(ctx context.Context, tmpl *models.RecipeTemplate) error

	// GetRecipeTemplate retrieves one recipe template with its rule
	// template IDs.
	GetRecipeTemplate(ctx context.Context, id int64) (*models.RecipeTemplate, error)

	// ListRecipeTemplates returns all public recipe templates.
	ListRecipeTemplates(ctx context.Context) ([]*models.RecipeTemplate, error)

	// GetRuleTemplate retrieves one rule template.
	GetRuleTemplate(ctx context.Context, id int64) (*models.RuleTemplate, error)

	// CreateRule persists a user's rule instance; ID assigned by the store.
	CreateRule(ctx context.Context, rule *models.Rule) error

	// CreateRecipe persists a user's recipe instance; ID assigned by the
	// store.
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error

	// LinkRecipeRule attaches a rule to a recipe.
	LinkRecipeRule(ctx context.Context, recipeID, ruleID int64) error

	// IncrementTemplateCopies bumps a recipe template's copies_count.
	IncrementTemplateCopies(ctx context.Context, templateID int64) error

	// ListRecipesByUser returns a user's recipes, each populated with its
	// rules.
	ListRecipesByUser(ctx context.Context, userID int64) ([]*models.Recipe, error)

	// RulesForUser returns the flattened candidate rule set the settlement
	// engine evaluates, in stable catalog order.
	RulesForUser(ctx context.Context, userID int64) ([]models.CandidateRule, error)
}

// LedgerStore persists settlement transactions and their log rows. The
// three write methods form one unit of work; run them inside InTx so the
// header, its rows and the final total commit together or not at all.
type LedgerStore interface {
	// CreateTransaction persists a header with tanabota_total 0, filling
	// in the assigned ID and CreatedAt.
	CreateTransaction(ctx context.Context, tx *models.TanabotaTransaction) error

	// AppendActionLogs persists log rows; IDs are assigned by the store.
	AppendActionLogs(ctx context.Context, logs []*models.TanabotaActionLog) error

	// FinalizeTotal sets a transaction's tanabota_total.
	FinalizeTotal(ctx context.Context, txID, total int64) error

	// GetTransaction retrieves a ledger header with its log rows.
	GetTransaction(ctx context.Context, id int64) (*models.TanabotaTransaction, []*models.TanabotaActionLog, error)
}

// Store is the full persistence interface. The abstraction allows swapping
// storage backends (SQLite, MySQL, ...) without changing the service layer.
type Store interface {
	UserStore
	CatalogStore
	LedgerStore

	// InTx runs fn against a transaction-scoped view of the store and
	// commits if fn returns nil, rolling back otherwise. Nested calls
	// reuse the enclosing transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
