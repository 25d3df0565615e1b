package service

import (
	"context"
	"fmt"

	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

// PreferenceService stores the onboarding questionnaire answers.
type PreferenceService struct {
	store storage.Store
}

// NewPreferenceService creates a PreferenceService with the given storage
// backend.
func NewPreferenceService(store storage.Store) *PreferenceService {
	return &PreferenceService{store: store}
}

// Create persists one question/answers pair for a user.
func (s *PreferenceService) Create(ctx context.Context, pref *models.Preference) error {
	exists, err := s.store.UserExists(ctx, pref.UserID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %d: %w", pref.UserID, storage.ErrNotFound)
	}
	return s.store.CreatePreference(ctx, pref)
}

// CreateBatch persists several preferences in one transaction; either all
// rows are saved or none.
func (s *PreferenceService) CreateBatch(ctx context.Context, prefs []*models.Preference) error {
	return s.store.InTx(ctx, func(txStore storage.Store) error {
		for _, pref := range prefs {
			exists, err := txStore.UserExists(ctx, pref.UserID)
			if err != nil {
				return fmt.Errorf("user lookup: %w", err)
			}
			if !exists {
				return fmt.Errorf("user %d: %w", pref.UserID, storage.ErrNotFound)
			}
			if err := txStore.CreatePreference(ctx, pref); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns a user's stored preferences in insertion order.
func (s *PreferenceService) List(ctx context.Context, userID int64) ([]*models.Preference, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}
	return s.store.ListPreferencesByUser(ctx, userID)
}
