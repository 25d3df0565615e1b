// Package tanabota implements the trigger/action settlement engine: given
// one point-of-sale payment event it evaluates the user's rules, computes a
// windfall ("tanabota") amount per firing rule and stages an immutable
// ledger entry.
package tanabota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakutaro/tanabota/internal/models"
)

// ErrUserNotFound is returned when the payment event names a user the
// store does not know. No ledger row is written in that case.
var ErrUserNotFound = errors.New("user not found")

// ConfigError reports a rule whose stored parameter bag could not be
// parsed. Only surfaced when the engine runs with strict params.
type ConfigError struct {
	RuleID int64
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %d is misconfigured: %v", e.RuleID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SettlementStore is the persistence surface one settlement call needs.
// Implementations decide the commit boundary: the engine stages the header,
// the log rows and the final total through these calls, and the caller must
// commit or roll back all of them as one unit.
type SettlementStore interface {
	// UserExists reports whether the user is known.
	UserExists(ctx context.Context, userID int64) (bool, error)

	// RulesForUser returns the user's full candidate rule set in catalog
	// order. The same rule may appear more than once when reachable
	// through multiple recipes.
	RulesForUser(ctx context.Context, userID int64) ([]models.CandidateRule, error)

	// CreateTransaction persists a ledger header with total 0 and fills
	// in its assigned ID and creation timestamp.
	CreateTransaction(ctx context.Context, tx *models.TanabotaTransaction) error

	// AppendActionLogs persists the staged log rows for a transaction.
	AppendActionLogs(ctx context.Context, logs []*models.TanabotaActionLog) error

	// FinalizeTotal sets the transaction's tanabota_total exactly once.
	FinalizeTotal(ctx context.Context, txID, total int64) error
}

// Engine evaluates settlements. It is stateless apart from its random
// source and safe to share across requests.
type Engine struct {
	rand   Rand
	strict bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source used by the random-chance trigger and
// the random_range action. Tests pass a deterministic sequence here.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithStrictParams makes unparseable trigger/action parameter bags abort
// the settlement with a *ConfigError instead of silently degrading to
// no-match / zero amount.
func WithStrictParams() Option {
	return func(e *Engine) { e.strict = true }
}

// NewEngine creates a settlement engine. By default it draws from the
// process-wide random source and degrades silently on misconfigured rules,
// matching the historical behavior of the catalog data.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{rand: SystemRand()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settle runs one payment event against the user's rule set.
//
// Order of operations is part of the contract: the header row is created
// (and its ID assigned) before any rule is evaluated, log rows are staged
// against that ID, and the exact total of staged amounts is finalized last.
// The store's commit boundary covers all three phases; if Settle returns an
// error the caller must roll the whole unit back.
//
// Rules are deduplicated by ID, so a rule reachable through several recipes
// fires at most once. A firing rule whose computed amount is 0 is excluded
// from the ledger entirely.
func (e *Engine) Settle(ctx context.Context, store SettlementStore, ev models.PaymentEvent) (*models.TanabotaTransaction, []*models.TanabotaActionLog, error) {
	if ev.AmountPaid < 0 {
		return nil, nil, fmt.Errorf("amount paid must not be negative: %d", ev.AmountPaid)
	}

	exists, err := store.UserExists(ctx, ev.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("user lookup: %w", err)
	}
	if !exists {
		return nil, nil, fmt.Errorf("%w: %d", ErrUserNotFound, ev.UserID)
	}

	// Header first: log rows need its ID as their foreign key.
	tx := &models.TanabotaTransaction{
		UserID:     ev.UserID,
		AmountPaid: ev.AmountPaid,
	}
	if err := store.CreateTransaction(ctx, tx); err != nil {
		return nil, nil, fmt.Errorf("create transaction: %w", err)
	}

	candidates, err := store.RulesForUser(ctx, ev.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load rules: %w", err)
	}

	var (
		total int64
		logs  []*models.TanabotaActionLog
		seen  = make(map[int64]struct{}, len(candidates))
	)
	for _, cand := range candidates {
		if _, dup := seen[cand.RuleID]; dup {
			continue
		}
		seen[cand.RuleID] = struct{}{}

		trig, terr := ParseTrigger(cand.TriggerKind, cand.TriggerParams)
		if terr != nil && e.strict {
			return nil, nil, &ConfigError{RuleID: cand.RuleID, Err: terr}
		}
		if !trig.Matches(ev.AmountPaid, ev.Category, e.rand) {
			continue
		}

		act, aerr := ParseAction(cand.ActionParams)
		if aerr != nil && e.strict {
			return nil, nil, &ConfigError{RuleID: cand.RuleID, Err: aerr}
		}
		amount := act.Compute(ev.AmountPaid, e.rand)
		if amount <= 0 {
			continue
		}

		slog.Debug("rule fired",
			"rule_id", cand.RuleID,
			"trigger_kind", cand.TriggerKind,
			"tanabota_amount", amount,
		)
		logs = append(logs, &models.TanabotaActionLog{
			TransactionID:  tx.ID,
			RuleID:         cand.RuleID,
			ActionID:       cand.ActionID,
			ActionType:     InferActionType(cand.ActionParams),
			ActionParams:   cand.ActionParams.Clone(),
			TanabotaAmount: amount,
		})
		total += amount
	}

	if len(logs) > 0 {
		if err := store.AppendActionLogs(ctx, logs); err != nil {
			return nil, nil, fmt.Errorf("append action logs: %w", err)
		}
	}
	if err := store.FinalizeTotal(ctx, tx.ID, total); err != nil {
		return nil, nil, fmt.Errorf("finalize total: %w", err)
	}
	tx.TanabotaTotal = total

	return tx, logs, nil
}
