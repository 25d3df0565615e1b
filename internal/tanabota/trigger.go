package tanabota

import (
	"fmt"

	"github.com/sakutaro/tanabota/internal/models"
)

// TriggerKind identifies one trigger condition type. The settlement engine
// recognizes a closed, event-synchronous vocabulary; calendar and
// accumulation kinds exist in the catalog but never match here — they
// belong to a time-driven scheduler this engine does not provide.
type TriggerKind string

const (
	// TriggerAnySpend fires on every payment, optionally gated by min_amount.
	TriggerAnySpend TriggerKind = "any-spend"
	// TriggerCategorySpend fires when the payment category is in the
	// configured set.
	TriggerCategorySpend TriggerKind = "category-spend"
	// TriggerConditionalSpend compares the amount against a threshold,
	// optionally scoped to one category.
	TriggerConditionalSpend TriggerKind = "conditional-spend"
	// TriggerRandomChance fires probabilistically on each payment.
	TriggerRandomChance TriggerKind = "random-chance"
	// TriggerMirrorCategory mirrors spending in the configured categories.
	TriggerMirrorCategory TriggerKind = "mirror-category"
)

// Trigger is one parsed trigger condition.
type Trigger interface {
	// Matches reports whether the condition holds for a payment of
	// amountPaid yen in the given category (empty = absent). Only the
	// random-chance variant consumes entropy.
	Matches(amountPaid int64, category string, rng Rand) bool
}

// ParseTrigger resolves a trigger kind and parameter bag into its typed
// variant. Unrecognized kinds and malformed numeric fields degrade to a
// trigger that never matches, so one bad rule cannot abort a settlement;
// the returned error reports the problem for strict callers.
func ParseTrigger(kind string, p models.Params) (Trigger, error) {
	switch TriggerKind(kind) {
	case TriggerAnySpend:
		return parseAnySpend(p)
	case TriggerCategorySpend:
		return parseCategoryTrigger(stringList(p, "categories"))
	case TriggerConditionalSpend:
		return parseConditionalSpend(p)
	case TriggerRandomChance:
		return parseRandomChance(p)
	case TriggerMirrorCategory:
		return parseCategoryTrigger(stringList(p, "mirror_categories"))
	default:
		return neverTrigger{}, fmt.Errorf("trigger kind %q is not event-synchronous", kind)
	}
}

// anySpendTrigger matches every payment unless a minimum amount is set and
// the payment falls below it.
type anySpendTrigger struct {
	min    int64
	hasMin bool
}

func (t anySpendTrigger) Matches(amountPaid int64, _ string, _ Rand) bool {
	return !t.hasMin || amountPaid >= t.min
}

func parseAnySpend(p models.Params) (Trigger, error) {
	min, present, ok := intParam(p, "min_amount")
	if !ok {
		return neverTrigger{}, fmt.Errorf("non-numeric min_amount %v", p["min_amount"])
	}
	return anySpendTrigger{min: min, hasMin: present}, nil
}

// categoryTrigger matches payments whose category is in the set. An empty
// set is a misconfigured rule; it matches unconditionally as a deliberate
// fallback so the rule keeps working rather than going silently dead.
type categoryTrigger struct {
	categories map[string]struct{}
}

func (t categoryTrigger) Matches(_ int64, category string, _ Rand) bool {
	if len(t.categories) == 0 {
		return true
	}
	if category == "" {
		return false
	}
	_, ok := t.categories[category]
	return ok
}

func parseCategoryTrigger(list []string) (Trigger, error) {
	set := make(map[string]struct{}, len(list))
	for _, c := range list {
		set[c] = struct{}{}
	}
	if len(set) == 0 {
		return categoryTrigger{}, fmt.Errorf("empty category set matches every payment")
	}
	return categoryTrigger{categories: set}, nil
}

// conditionalSpendTrigger compares the payment amount against a threshold
// with a configurable operator, optionally requiring an exact category
// match first.
type conditionalSpendTrigger struct {
	threshold int64
	operator  string
	category  string
}

func (t conditionalSpendTrigger) Matches(amountPaid int64, category string, _ Rand) bool {
	if t.category != "" && category != t.category {
		return false
	}
	switch t.operator {
	case ">":
		return amountPaid > t.threshold
	case ">=":
		return amountPaid >= t.threshold
	case "<":
		return amountPaid < t.threshold
	case "<=":
		return amountPaid <= t.threshold
	default:
		// Unknown operators match unconditionally.
		return true
	}
}

func parseConditionalSpend(p models.Params) (Trigger, error) {
	thr, present, ok := intParam(p, "amount")
	if !present || !ok {
		return neverTrigger{}, fmt.Errorf("missing or non-numeric threshold amount %v", p["amount"])
	}
	op, _ := p["operator"].(string)
	if op == "" {
		op = ">"
	}
	cat, _ := p["category"].(string)
	return conditionalSpendTrigger{threshold: thr, operator: op, category: cat}, nil
}

// randomChanceTrigger fires with trigger_probability percent chance
// (default 30, clamped to [0, 100]) by drawing a uniform integer in
// [1, 100].
type randomChanceTrigger struct {
	probability int64
}

func (t randomChanceTrigger) Matches(_ int64, _ string, rng Rand) bool {
	draw := int64(rng.IntN(100)) + 1
	return draw <= t.probability
}

func parseRandomChance(p models.Params) (Trigger, error) {
	prob, present, ok := intParam(p, "trigger_probability")
	if !ok {
		return neverTrigger{}, fmt.Errorf("non-numeric trigger_probability %v", p["trigger_probability"])
	}
	if !present {
		prob = 30
	}
	if prob < 0 {
		prob = 0
	}
	if prob > 100 {
		prob = 100
	}
	return randomChanceTrigger{probability: prob}, nil
}

// neverTrigger is the degraded form of an unrecognized or malformed
// trigger: it never fires.
type neverTrigger struct{}

func (neverTrigger) Matches(_ int64, _ string, _ Rand) bool { return false }

// Match is the one-shot form of ParseTrigger + Matches with the lenient
// degradation applied: unknown kinds and malformed bags never match.
func Match(kind string, p models.Params, amountPaid int64, category string, rng Rand) bool {
	trig, _ := ParseTrigger(kind, p)
	return trig.Matches(amountPaid, category, rng)
}
