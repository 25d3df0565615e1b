package models

// RuleCategory classifies a rule by what it does with the user's money.
type RuleCategory string

const (
	CategoryIncreaseSavings RuleCategory = "貯金"
	CategoryAssetManagement RuleCategory = "投資"
	CategoryReduceExpenses  RuleCategory = "節約"
)

// Trigger is a master-data row describing one trigger condition type.
//
// Kind is the machine identifier the settlement engine dispatches on
// (e.g. "any-spend", "category-spend"). Calendar and accumulation triggers
// also live in this table but carry kinds the synchronous engine ignores.
type Trigger struct {
	ID          int64
	Kind        string
	Name        string
	Description string
	// RequiredParams documents the parameter shape a rule using this trigger
	// should provide. Informational only; the engine never reads it.
	RequiredParams Params
}

// Action is a master-data row describing one savings action type.
type Action struct {
	ID             int64
	Name           string
	Description    string
	RequiredParams Params
}

// Rule is a user's (trigger, action) pair. Every rule has exactly one
// trigger and one action; the parameter bags live on the rule itself and
// are snapshots of the template the rule was copied from.
type Rule struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Category    RuleCategory

	// TemplateID is the rule template this rule was copied from, if any.
	TemplateID int64

	TriggerID     int64
	TriggerParams Params
	ActionID      int64
	ActionParams  Params

	CreatedAt int64
	UpdatedAt int64
}

// RuleTemplate is a shareable rule definition authored by a user.
// Copying a recipe template stamps its rule templates into Rules.
type RuleTemplate struct {
	ID          int64
	Name        string
	Description string
	Category    RuleCategory
	AuthorID    int64

	TriggerID     int64
	TriggerParams Params
	ActionID      int64
	ActionParams  Params

	IsPublic   bool
	LikesCount int64
	// CopiesCount counts how many users instantiated this template.
	CopiesCount int64

	CreatedAt int64
	UpdatedAt int64
}

// Recipe is a user's instantiated copy of a recipe template. It bundles the
// rules that were stamped out of the template's rule templates.
type Recipe struct {
	ID          int64
	UserID      int64
	TemplateID  int64
	Name        string
	Description string
	CreatedAt   int64
	UpdatedAt   int64

	// Rules are the rules reachable through this recipe, populated on reads.
	Rules []Rule
}

// CandidateRule is the read-only view of one rule the settlement engine
// evaluates: the rule id, its trigger definition and its action definition,
// flattened out of the recipes → rules → triggers/actions join. The same
// rule appears once per recipe it is reachable through; the engine
// deduplicates by RuleID.
type CandidateRule struct {
	RuleID        int64
	TriggerKind   string
	TriggerParams Params
	ActionID      int64
	ActionParams  Params
}

// RecipeTemplate is a curated bundle of rule templates users can copy.
type RecipeTemplate struct {
	ID          int64
	Name        string
	Description string
	AuthorID    int64
	IsPublic    bool
	LikesCount  int64
	CopiesCount int64
	CreatedAt   int64
	UpdatedAt   int64

	// RuleTemplateIDs are the rule templates bundled in this recipe template.
	RuleTemplateIDs []int64
}
