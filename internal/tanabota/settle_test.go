package tanabota

import (
	"context"
	"errors"
	"testing"

	"github.com/sakutaro/tanabota/internal/models"
)

// fakeStore is an in-memory SettlementStore recording every write.
type fakeStore struct {
	users      map[int64]bool
	candidates []models.CandidateRule

	nextTxID   int64
	created    []*models.TanabotaTransaction
	logs       []*models.TanabotaActionLog
	finalized  map[int64]int64
	finalCalls int
}

func newFakeStore(userID int64, candidates ...models.CandidateRule) *fakeStore {
	return &fakeStore{
		users:      map[int64]bool{userID: true},
		candidates: candidates,
		nextTxID:   1,
		finalized:  make(map[int64]int64),
	}
}

func (s *fakeStore) UserExists(_ context.Context, userID int64) (bool, error) {
	return s.users[userID], nil
}

func (s *fakeStore) RulesForUser(_ context.Context, _ int64) ([]models.CandidateRule, error) {
	return s.candidates, nil
}

func (s *fakeStore) CreateTransaction(_ context.Context, tx *models.TanabotaTransaction) error {
	tx.ID = s.nextTxID
	s.nextTxID++
	s.created = append(s.created, tx)
	return nil
}

func (s *fakeStore) AppendActionLogs(_ context.Context, logs []*models.TanabotaActionLog) error {
	s.logs = append(s.logs, logs...)
	return nil
}

func (s *fakeStore) FinalizeTotal(_ context.Context, txID, total int64) error {
	s.finalized[txID] = total
	s.finalCalls++
	return nil
}

func TestSettle(t *testing.T) {
	const userID = int64(7)

	tests := []struct {
		name       string
		candidates []models.CandidateRule
		event      models.PaymentEvent
		opts       []Option
		wantErr    bool
		validate   func(t *testing.T, store *fakeStore, tx *models.TanabotaTransaction, logs []*models.TanabotaActionLog)
	}{
		{
			name: "oshikatsu payment fires percentage and fixed rules",
			candidates: []models.CandidateRule{
				{
					RuleID:        1,
					TriggerKind:   "category-spend",
					TriggerParams: models.Params{"categories": []any{"推し活", "エンタメ"}},
					ActionID:      102,
					ActionParams:  models.Params{"percentage": 10},
				},
				{
					RuleID:        2,
					TriggerKind:   "any-spend",
					TriggerParams: models.Params{},
					ActionID:      101,
					ActionParams:  models.Params{"amount": 500},
				},
				{
					RuleID:        3,
					TriggerKind:   "conditional-spend",
					TriggerParams: models.Params{"category": "食費-ランチ", "operator": ">", "amount": 700},
					ActionID:      105,
					ActionParams:  models.Params{"base_amount": 700},
				},
			},
			event: models.PaymentEvent{UserID: userID, AmountPaid: 8000, Category: "推し活"},
			validate: func(t *testing.T, store *fakeStore, tx *models.TanabotaTransaction, logs []*models.TanabotaActionLog) {
				if tx.TanabotaTotal != 1300 {
					t.Errorf("TanabotaTotal = %d, want 1300", tx.TanabotaTotal)
				}
				if len(logs) != 2 {
					t.Fatalf("len(logs) = %d, want 2", len(logs))
				}
				if logs[0].RuleID != 1 || logs[0].TanabotaAmount != 800 {
					t.Errorf("logs[0] = rule %d amount %d, want rule 1 amount 800", logs[0].RuleID, logs[0].TanabotaAmount)
				}
				if logs[1].RuleID != 2 || logs[1].TanabotaAmount != 500 {
					t.Errorf("logs[1] = rule %d amount %d, want rule 2 amount 500", logs[1].RuleID, logs[1].TanabotaAmount)
				}
				if logs[0].ActionType != "save_percentage" || logs[1].ActionType != "fixed" {
					t.Errorf("action types = %q, %q", logs[0].ActionType, logs[1].ActionType)
				}
				if store.finalized[tx.ID] != 1300 {
					t.Errorf("finalized total = %d, want 1300", store.finalized[tx.ID])
				}
			},
		},
		{
			name: "duplicate rule reachable through two recipes fires once",
			candidates: []models.CandidateRule{
				{RuleID: 1, TriggerKind: "any-spend", TriggerParams: models.Params{}, ActionID: 101, ActionParams: models.Params{"amount": 100}},
				{RuleID: 1, TriggerKind: "any-spend", TriggerParams: models.Params{}, ActionID: 101, ActionParams: models.Params{"amount": 100}},
			},
			event: models.PaymentEvent{UserID: userID, AmountPaid: 1000},
			validate: func(t *testing.T, store *fakeStore, tx *models.TanabotaTransaction, logs []*models.TanabotaActionLog) {
				if len(logs) != 1 {
					t.Fatalf("len(logs) = %d, want 1", len(logs))
				}
				if tx.TanabotaTotal != 100 {
					t.Errorf("TanabotaTotal = %d, want 100", tx.TanabotaTotal)
				}
			},
		},
		{
			name: "zero amount rules are not logged",
			candidates: []models.CandidateRule{
				// Roundup on an exact multiple computes 0.
				{RuleID: 1, TriggerKind: "any-spend", TriggerParams: models.Params{}, ActionID: 101, ActionParams: models.Params{"to": 100}},
				// Empty bag computes 0.
				{RuleID: 2, TriggerKind: "any-spend", TriggerParams: models.Params{}, ActionID: 101, ActionParams: models.Params{}},
			},
			event: models.PaymentEvent{UserID: userID, AmountPaid: 300},
			validate: func(t *testing.T, store *fakeStore, tx *models.TanabotaTransaction, logs []*models.TanabotaActionLog) {
				if len(logs) != 0 {
					t.Fatalf("len(logs) = %d, want 0", len(logs))
				}
				if tx.TanabotaTotal != 0 {
					t.Errorf("TanabotaTotal = %d, want 0", tx.TanabotaTotal)
				}
				// The header row is still written for a no-fire settlement.
				if len(store.created) != 1 {
					t.Errorf("created headers = %d, want 1", len(store.created))
				}
				if store.finalCalls != 1 {
					t.Errorf("finalize calls = %d, want 1", store.finalCalls)
				}
			},
		},
		{
			name: "misconfigured rule degrades silently by default",
			candidates: []models.CandidateRule{
				{RuleID: 1, TriggerKind: "weekly", TriggerParams: models.Params{"day_of_week": "Sunday"}, ActionID: 101, ActionParams: models.Params{"amount": 500}},
				{RuleID: 2, TriggerKind: "any-spend", TriggerParams: models.Params{}, ActionID: 101, ActionParams: models.Params{"amount": 200}},
			},
			event: models.PaymentEvent{UserID: userID, AmountPaid: 1000},
			validate: func(t *testing.T, store *fakeStore, tx *models.TanabotaTransaction, logs []*models.TanabotaActionLog) {
				if len(logs) != 1 || logs[0].RuleID != 2 {
					t.Fatalf("expected only rule 2 to fire, got %d logs", len(logs))
				}
			},
		},
		{
			name: "strict mode surfaces misconfigured rules",
			candidates: []models.CandidateRule{
				{RuleID: 9, TriggerKind: "weekly", TriggerParams: models.Params{}, ActionID: 101, ActionParams: models.Params{"amount": 500}},
			},
			event:   models.PaymentEvent{UserID: userID, AmountPaid: 1000},
			opts:    []Option{WithStrictParams()},
			wantErr: true,
			validate: func(t *testing.T, store *fakeStore, tx *models.TanabotaTransaction, logs []*models.TanabotaActionLog) {
				if len(store.logs) != 0 {
					t.Errorf("no logs should be staged, got %d", len(store.logs))
				}
			},
		},
		{
			name:    "negative amount is rejected",
			event:   models.PaymentEvent{UserID: userID, AmountPaid: -1},
			wantErr: true,
			validate: func(t *testing.T, store *fakeStore, tx *models.TanabotaTransaction, logs []*models.TanabotaActionLog) {
				if len(store.created) != 0 {
					t.Errorf("no header should be written, got %d", len(store.created))
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(userID, tt.candidates...)
			engine := NewEngine(append(tt.opts, WithRand(&seqRand{vals: []int{0}}))...)

			tx, logs, err := engine.Settle(context.Background(), store, tt.event)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Settle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.validate != nil {
				tt.validate(t, store, tx, logs)
			}
		})
	}
}

func TestSettleUnknownUser(t *testing.T) {
	store := newFakeStore(1)
	engine := NewEngine()

	_, _, err := engine.Settle(context.Background(), store, models.PaymentEvent{UserID: 42, AmountPaid: 1000})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Settle() error = %v, want ErrUserNotFound", err)
	}
	if len(store.created) != 0 || len(store.logs) != 0 || store.finalCalls != 0 {
		t.Error("no rows should be written for an unknown user")
	}
}

func TestSettleStrictConfigError(t *testing.T) {
	store := newFakeStore(1, models.CandidateRule{
		RuleID:        5,
		TriggerKind:   "conditional-spend",
		TriggerParams: models.Params{"amount": "lots"},
		ActionID:      105,
		ActionParams:  models.Params{"base_amount": 700},
	})
	engine := NewEngine(WithStrictParams())

	_, _, err := engine.Settle(context.Background(), store, models.PaymentEvent{UserID: 1, AmountPaid: 1000})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Settle() error = %v, want *ConfigError", err)
	}
	if cfgErr.RuleID != 5 {
		t.Errorf("ConfigError.RuleID = %d, want 5", cfgErr.RuleID)
	}
}

func TestSettleDeterministicWithSeededRand(t *testing.T) {
	candidates := []models.CandidateRule{
		{
			RuleID:        1,
			TriggerKind:   "random-chance",
			TriggerParams: models.Params{"trigger_probability": 30},
			ActionID:      101,
			ActionParams:  models.Params{"min_amount": 1, "max_amount": 1000},
		},
	}
	event := models.PaymentEvent{UserID: 1, AmountPaid: 500}

	run := func() int64 {
		store := newFakeStore(1, candidates...)
		engine := NewEngine(WithRand(&seqRand{vals: []int{10, 499}}))
		tx, _, err := engine.Settle(context.Background(), store, event)
		if err != nil {
			t.Fatalf("Settle() error = %v", err)
		}
		return tx.TanabotaTotal
	}

	first := run()
	if first != 500 {
		t.Errorf("TanabotaTotal = %d, want 500", first)
	}
	if second := run(); second != first {
		t.Errorf("second run total = %d, want %d", second, first)
	}
}
