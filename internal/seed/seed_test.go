package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sakutaro/tanabota/internal/storage/sqlite"
)

func TestApplyIsIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tanabota-seed-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := Apply(ctx, store); err != nil {
			t.Fatalf("Apply run %d failed: %v", i+1, err)
		}
	}

	templates, err := store.ListRecipeTemplates(ctx)
	if err != nil {
		t.Fatalf("ListRecipeTemplates failed: %v", err)
	}
	if len(templates) != 3 {
		t.Errorf("len(templates) = %d, want 3", len(templates))
	}

	tmpl, err := store.GetRecipeTemplate(ctx, 202)
	if err != nil {
		t.Fatalf("GetRecipeTemplate failed: %v", err)
	}
	if len(tmpl.RuleTemplateIDs) != 4 {
		t.Errorf("template 202 rule links = %v, want 4 entries", tmpl.RuleTemplateIDs)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("len(users) = %d, want 3", len(users))
	}

	hato, err := store.GetUserByEmail(ctx, "hato.tanaka@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	prefs, err := store.ListPreferencesByUser(ctx, hato.ID)
	if err != nil {
		t.Fatalf("ListPreferencesByUser failed: %v", err)
	}
	if len(prefs) != 7 {
		t.Errorf("len(prefs) = %d, want 7", len(prefs))
	}
}
