package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

const userColumns = `id, last_name, first_name, email, birthdate, postal_code,
	address, phone_number, occupation, company_name, password_hash, created_at`

// CreateUser inserts a new user, assigning its ID and CreatedAt.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	err := s.q.QueryRowContext(ctx,
		`INSERT INTO users (last_name, first_name, email, birthdate, postal_code,
		   address, phone_number, occupation, company_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		user.LastName, user.FirstName, user.Email, user.Birthdate, user.PostalCode,
		user.Address, user.PhoneNumber, user.Occupation, user.CompanyName,
		user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.LastName, &user.FirstName, &user.Email, &user.Birthdate,
		&user.PostalCode, &user.Address, &user.PhoneNumber, &user.Occupation,
		&user.CompanyName, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// UserExists reports whether a user with the given ID exists.
func (s *SQLiteStore) UserExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return true, nil
}

// ListUsers returns all users ordered by ID.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CreatePreference persists one onboarding preference row. Selected
// answers are stored semicolon-joined.
func (s *SQLiteStore) CreatePreference(ctx context.Context, pref *models.Preference) error {
	if pref.CreatedAt == 0 {
		pref.CreatedAt = time.Now().Unix()
	}

	err := s.q.QueryRowContext(ctx,
		`INSERT INTO preferences (user_id, question, selected_answers, created_at)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		pref.UserID, pref.Question, strings.Join(pref.SelectedAnswers, ";"), pref.CreatedAt,
	).Scan(&pref.ID)
	if err != nil {
		return fmt.Errorf("failed to create preference: %w", err)
	}
	return nil
}

// ListPreferencesByUser returns a user's preferences in insertion order.
func (s *SQLiteStore) ListPreferencesByUser(ctx context.Context, userID int64) ([]*models.Preference, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, question, selected_answers, created_at
		 FROM preferences WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*models.Preference
	for rows.Next() {
		pref := &models.Preference{}
		var answers string
		if err := rows.Scan(&pref.ID, &pref.UserID, &pref.Question, &answers, &pref.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		if answers != "" {
			pref.SelectedAnswers = strings.Split(answers, ";")
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return prefs, nil
}
