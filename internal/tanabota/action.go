package tanabota

import (
	"fmt"

	"github.com/sakutaro/tanabota/internal/models"
)

// ActionKind classifies an action formula. The same vocabulary is used for
// dispatch and for the action_type snapshot on ledger log rows.
type ActionKind string

const (
	ActionSavePercentage  ActionKind = "save_percentage"
	ActionFixed           ActionKind = "fixed"
	ActionRoundup         ActionKind = "roundup"
	ActionPenaltyOverBase ActionKind = "penalty_over_base"
	ActionRandomRange     ActionKind = "random_range"
	ActionUnknown         ActionKind = "unknown"
)

// Action is one parsed savings formula. Compute never returns a negative
// amount and uses integer floor arithmetic throughout: percentages of yen
// never produce fractional yen.
type Action interface {
	Kind() ActionKind
	Compute(amountPaid int64, rng Rand) int64
}

// ParseAction resolves a parameter bag into its formula variant. The
// formula is selected by which keys are present; an explicit "type" field
// wins when supplied. Dispatch order on key presence: percentage keys,
// base_amount, min_amount+max_amount, amount, to.
//
// Unrecognized shapes and malformed numeric fields degrade to a formula
// that computes 0 (so one badly configured rule cannot abort a settlement);
// the returned error reports what was wrong for callers that want strict
// configuration checking.
func ParseAction(p models.Params) (Action, error) {
	kind, _ := p["type"].(string)
	if kind == "" {
		switch {
		case hasPercentageKey(p):
			kind = string(ActionSavePercentage)
		case hasKey(p, "base_amount"):
			kind = string(ActionPenaltyOverBase)
		case hasKey(p, "min_amount") && hasKey(p, "max_amount"):
			kind = string(ActionRandomRange)
		case hasKey(p, "amount"):
			kind = string(ActionFixed)
		case hasKey(p, "to"):
			kind = string(ActionRoundup)
		default:
			return zeroAction{}, fmt.Errorf("action params have no recognized formula keys")
		}
	}

	switch ActionKind(kind) {
	case ActionSavePercentage:
		return parsePercentage(p)
	case ActionFixed:
		return parseFixed(p)
	case ActionRoundup:
		return parseRoundup(p)
	case ActionPenaltyOverBase:
		return parsePenalty(p)
	case ActionRandomRange:
		return parseRandomRange(p)
	default:
		return zeroAction{}, fmt.Errorf("unknown action type %q", kind)
	}
}

func hasKey(p models.Params, key string) bool {
	_, ok := p[key]
	return ok
}

func hasPercentageKey(p models.Params) bool {
	return hasKey(p, "percentage") || hasKey(p, "percent") || hasKey(p, "growth_multiplier")
}

// percentageAction saves a percentage of the paid amount plus an optional
// flat level bonus. percentage=10, amount=10000 → 1000; with
// level_bonus=500 → 1500.
type percentageAction struct {
	percent int64
	bonus   int64
}

func (percentageAction) Kind() ActionKind { return ActionSavePercentage }

func (a percentageAction) Compute(amountPaid int64, _ Rand) int64 {
	var amt int64
	if a.percent > 0 {
		amt = amountPaid * a.percent / 100
	}
	return clampNonNegative(amt + a.bonus)
}

func parsePercentage(p models.Params) (Action, error) {
	var act percentageAction
	var err error

	// growth_multiplier(1.5) is accepted as 150% when no explicit
	// percentage is given.
	if hasKey(p, "growth_multiplier") && !hasKey(p, "percentage") && !hasKey(p, "percent") {
		f, ok := asFloat(p["growth_multiplier"])
		if ok {
			act.percent = roundToInt(f * 100)
		} else {
			err = fmt.Errorf("non-numeric growth_multiplier %v", p["growth_multiplier"])
		}
	} else {
		raw := p["percent"]
		if !hasKey(p, "percent") {
			raw = p["percentage"]
		}
		if raw != nil {
			pct, ok := asInt(raw)
			if ok {
				act.percent = pct
			} else {
				err = fmt.Errorf("non-numeric percentage %v", raw)
			}
		}
	}

	if bonus, present, ok := intParam(p, "level_bonus"); present {
		if ok {
			act.bonus = bonus
		} else if err == nil {
			err = fmt.Errorf("non-numeric level_bonus %v", p["level_bonus"])
		}
	}
	return act, err
}

// fixedAction saves a flat amount regardless of the payment size.
type fixedAction struct {
	amount int64
}

func (fixedAction) Kind() ActionKind { return ActionFixed }

func (a fixedAction) Compute(_ int64, _ Rand) int64 {
	return clampNonNegative(a.amount)
}

func parseFixed(p models.Params) (Action, error) {
	amt, _, ok := intParam(p, "amount")
	if !ok {
		return fixedAction{}, fmt.Errorf("non-numeric amount %v", p["amount"])
	}
	return fixedAction{amount: amt}, nil
}

// roundupAction saves the difference needed to round the payment up to the
// next multiple of step. amount=250, to=100 → 50; amount=300 → 0.
type roundupAction struct {
	step int64
}

func (roundupAction) Kind() ActionKind { return ActionRoundup }

func (a roundupAction) Compute(amountPaid int64, _ Rand) int64 {
	if a.step <= 0 {
		return 0
	}
	rem := amountPaid % a.step
	if rem == 0 {
		return 0
	}
	return a.step - rem
}

func parseRoundup(p models.Params) (Action, error) {
	step, present, ok := intParam(p, "to")
	if !ok {
		return roundupAction{}, fmt.Errorf("non-numeric roundup step %v", p["to"])
	}
	if !present {
		step = 100
	}
	return roundupAction{step: step}, nil
}

// penaltyAction saves the overage beyond a base amount:
// max(0, amount - base_amount).
type penaltyAction struct {
	base int64
}

func (penaltyAction) Kind() ActionKind { return ActionPenaltyOverBase }

func (a penaltyAction) Compute(amountPaid int64, _ Rand) int64 {
	return clampNonNegative(amountPaid - a.base)
}

func parsePenalty(p models.Params) (Action, error) {
	base, _, ok := intParam(p, "base_amount")
	if !ok {
		// Malformed base degrades to 0, saving the full amount.
		return penaltyAction{}, fmt.Errorf("non-numeric base_amount %v", p["base_amount"])
	}
	return penaltyAction{base: base}, nil
}

// randomRangeAction saves a uniform random amount between min_amount and
// max_amount; bounds are swapped if reversed.
type randomRangeAction struct {
	lo, hi int64
}

func (randomRangeAction) Kind() ActionKind { return ActionRandomRange }

func (a randomRangeAction) Compute(_ int64, rng Rand) int64 {
	if a.hi <= 0 {
		return 0
	}
	v := a.lo + int64(rng.IntN(int(a.hi-a.lo+1)))
	return clampNonNegative(v)
}

func parseRandomRange(p models.Params) (Action, error) {
	lo, _, loOK := intParam(p, "min_amount")
	hi, _, hiOK := intParam(p, "max_amount")
	if !loOK || !hiOK {
		return randomRangeAction{}, fmt.Errorf("non-numeric random range bounds")
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return randomRangeAction{lo: lo, hi: hi}, nil
}

// zeroAction is the degraded form of an unrecognized bag: it contributes
// nothing, so the rule never reaches the ledger.
type zeroAction struct{}

func (zeroAction) Kind() ActionKind              { return ActionUnknown }
func (zeroAction) Compute(_ int64, _ Rand) int64 { return 0 }

// InferActionType classifies a parameter bag for the ledger snapshot. It
// deliberately uses its own key-presence order, distinct from the compute
// dispatch, to stay consistent with historical log rows. Never used for
// control flow.
func InferActionType(p models.Params) string {
	if len(p) == 0 {
		return string(ActionUnknown)
	}
	if t, _ := p["type"].(string); t != "" {
		return t
	}
	switch {
	case hasPercentageKey(p):
		return string(ActionSavePercentage)
	case hasKey(p, "amount"):
		return string(ActionFixed)
	case hasKey(p, "to"):
		return string(ActionRoundup)
	case hasKey(p, "base_amount"):
		return string(ActionPenaltyOverBase)
	case hasKey(p, "min_amount") && hasKey(p, "max_amount"):
		return string(ActionRandomRange)
	case hasKey(p, "level_bonus"):
		return "percentage_plus_bonus"
	default:
		return string(ActionUnknown)
	}
}

// ComputeAmount is the one-shot form of ParseAction + Compute with the
// lenient degradation applied: unrecognized shapes yield 0.
func ComputeAmount(p models.Params, amountPaid int64, rng Rand) int64 {
	act, _ := ParseAction(p)
	return act.Compute(amountPaid, rng)
}
