package models

// PaymentEvent is one point-of-sale payment to settle against a user's
// rules. It is consumed immediately and never stored verbatim.
type PaymentEvent struct {
	// UserID identifies the paying user.
	UserID int64

	// AmountPaid is the payment amount in yen, always >= 0.
	AmountPaid int64

	// Category is an optional free-text spend category
	// (e.g. "コンビニ", "推し活", "食費-ランチ"). Empty means absent.
	Category string
}

// TanabotaTransaction is the ledger header written once per settlement call.
//
// The header is created with TanabotaTotal 0 before any rule is evaluated so
// log rows can reference its ID; the total is set exactly once before commit
// and the row is immutable afterwards.
type TanabotaTransaction struct {
	// ID is assigned by the store, monotonically increasing.
	ID int64

	UserID int64

	// AmountPaid echoes the payment event's amount.
	AmountPaid int64

	// TanabotaTotal is the exact sum of the tanabota amounts of all log rows
	// belonging to this transaction.
	TanabotaTotal int64

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}

// TanabotaActionLog is one ledger detail row, written per firing rule.
//
// Log rows are exclusively owned by their transaction (cascade-delete) and
// are never mutated or deleted independently. A row's TanabotaAmount is
// always > 0: rules computing zero are not logged at all.
type TanabotaActionLog struct {
	ID int64

	// TransactionID is the owning ledger header.
	TransactionID int64

	// RuleID and ActionID reference the rule that fired and its action.
	// Deleting a referenced rule or action is restricted while log rows
	// exist, so history cannot silently vanish.
	RuleID   int64
	ActionID int64

	// ActionType is the classification of the action inferred at firing
	// time, snapshotted for the log only.
	ActionType string

	// ActionParams is a snapshot of the action's parameter bag at firing
	// time, so later rule edits do not retroactively alter history.
	ActionParams Params

	// TanabotaAmount is the computed windfall amount in yen, > 0.
	TanabotaAmount int64

	// Result is optional free-form result metadata.
	Result Params
}
