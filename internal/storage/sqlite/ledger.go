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

// CreateTransaction persists a ledger header with tanabota_total 0,
// assigning its ID and CreatedAt. Run inside InTx together with
// AppendActionLogs and FinalizeTotal so the settlement commits as a unit.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *models.TanabotaTransaction) error {
	if tx.CreatedAt == 0 {
		tx.CreatedAt = time.Now().Unix()
	}

	err := s.q.QueryRowContext(ctx,
		`INSERT INTO tanabota_transactions (user_id, amount_paid, tanabota_total, created_at)
		 VALUES (?, ?, 0, ?)
		 RETURNING id`,
		tx.UserID, tx.AmountPaid, tx.CreatedAt,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// AppendActionLogs persists log rows for a transaction, assigning their IDs.
func (s *SQLiteStore) AppendActionLogs(ctx context.Context, logs []*models.TanabotaActionLog) error {
	for _, log := range logs {
		actionParams, err := encodeParams(log.ActionParams)
		if err != nil {
			return err
		}

		var result any
		if log.Result != nil {
			encoded, err := encodeParams(log.Result)
			if err != nil {
				return err
			}
			result = encoded
		}

		err = s.q.QueryRowContext(ctx,
			`INSERT INTO tanabota_action_logs
			   (transaction_id, rule_id, action_id, action_type, action_params, tanabota_amount, result)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 RETURNING id`,
			log.TransactionID, log.RuleID, log.ActionID, log.ActionType,
			actionParams, log.TanabotaAmount, result,
		).Scan(&log.ID)
		if err != nil {
			return fmt.Errorf("failed to append action log: %w", err)
		}
	}
	return nil
}

// FinalizeTotal sets a transaction's tanabota_total. The settlement engine
// calls this exactly once per transaction, after staging all log rows.
func (s *SQLiteStore) FinalizeTotal(ctx context.Context, txID, total int64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE tanabota_transactions SET tanabota_total = ? WHERE id = ?`,
		total, txID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize total: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finalize total: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", txID, storage.ErrNotFound)
	}
	return nil
}

// GetTransaction retrieves a ledger header with its log rows.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id int64) (*models.TanabotaTransaction, []*models.TanabotaActionLog, error) {
	tx := &models.TanabotaTransaction{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, amount_paid, tanabota_total, created_at
		 FROM tanabota_transactions WHERE id = ?`, id,
	).Scan(&tx.ID, &tx.UserID, &tx.AmountPaid, &tx.TanabotaTotal, &tx.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT id, transaction_id, rule_id, action_id, action_type, action_params, tanabota_amount, result
		 FROM tanabota_action_logs WHERE transaction_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get action logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.TanabotaActionLog
	for rows.Next() {
		log := &models.TanabotaActionLog{}
		var actionParams string
		var result sql.NullString
		if err := rows.Scan(&log.ID, &log.TransactionID, &log.RuleID, &log.ActionID,
			&log.ActionType, &actionParams, &log.TanabotaAmount, &result); err != nil {
			return nil, nil, fmt.Errorf("failed to scan action log: %w", err)
		}
		if log.ActionParams, err = decodeParams(actionParams); err != nil {
			return nil, nil, err
		}
		if result.Valid {
			if log.Result, err = decodeParams(result.String); err != nil {
				return nil, nil, err
			}
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate action logs: %w", err)
	}
	return tx, logs, nil
}
