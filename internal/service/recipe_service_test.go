package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/storage"
)

func TestRecipeServiceCopyTemplate(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()
	recipes := NewRecipeService(store)

	riricho, err := store.GetUserByEmail(ctx, "riricho@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	recipe, err := recipes.CopyTemplate(ctx, 202, riricho.ID)
	if err != nil {
		t.Fatalf("CopyTemplate failed: %v", err)
	}

	if recipe.Name != "ヒヨコ貯金チャレンジ" {
		t.Errorf("Name = %q", recipe.Name)
	}
	if recipe.TemplateID != 202 {
		t.Errorf("TemplateID = %d, want 202", recipe.TemplateID)
	}
	if len(recipe.Rules) != 4 {
		t.Fatalf("len(Rules) = %d, want 4", len(recipe.Rules))
	}
	for _, rule := range recipe.Rules {
		if rule.ID == 0 {
			t.Error("Expected copied rule to have an ID")
		}
		if rule.UserID != riricho.ID {
			t.Errorf("rule.UserID = %d, want %d", rule.UserID, riricho.ID)
		}
		if rule.TemplateID == 0 {
			t.Error("Expected copied rule to reference its template")
		}
	}

	// Copying bumps the template counter.
	tmpl, err := store.GetRecipeTemplate(ctx, 202)
	if err != nil {
		t.Fatalf("GetRecipeTemplate failed: %v", err)
	}
	if tmpl.CopiesCount != 1 {
		t.Errorf("CopiesCount = %d, want 1", tmpl.CopiesCount)
	}

	// The copy shows up in the user's recipe list with its rules.
	list, err := recipes.ListRecipes(ctx, riricho.ID)
	if err != nil {
		t.Fatalf("ListRecipes failed: %v", err)
	}
	if len(list) != 1 || len(list[0].Rules) != 4 {
		t.Fatalf("list = %d recipes, want 1 with 4 rules", len(list))
	}
}

func TestRecipeServiceCopyTemplateErrors(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()
	recipes := NewRecipeService(store)

	riricho, err := store.GetUserByEmail(ctx, "riricho@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	t.Run("unknown template", func(t *testing.T) {
		_, err := recipes.CopyTemplate(ctx, 999, riricho.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
		// Nothing is left behind by the failed copy.
		list, err := recipes.ListRecipes(ctx, riricho.ID)
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("len(list) = %d, want 0", len(list))
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := recipes.CopyTemplate(ctx, 202, 424242)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestPreferenceService(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()
	prefs := NewPreferenceService(store)

	riricho, err := store.GetUserByEmail(ctx, "riricho@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	batch := []*models.Preference{
		{UserID: riricho.ID, Question: "あなたの推しはなにブヒ？", SelectedAnswers: []string{"スポーツ選手"}},
		{UserID: riricho.ID, Question: "家族構成を教えてブヒ", SelectedAnswers: []string{"一人暮らし"}},
	}
	if err := prefs.CreateBatch(ctx, batch); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	got, err := prefs.List(ctx, riricho.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Question != "あなたの推しはなにブヒ？" {
		t.Errorf("Question = %q", got[0].Question)
	}

	t.Run("batch with unknown user saves nothing", func(t *testing.T) {
		err := prefs.CreateBatch(ctx, []*models.Preference{
			{UserID: riricho.ID, Question: "q1", SelectedAnswers: []string{"a"}},
			{UserID: 424242, Question: "q2", SelectedAnswers: []string{"b"}},
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
		got, err := prefs.List(ctx, riricho.ID)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("len(got) = %d after failed batch, want 2", len(got))
		}
	})
}
