package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/seed"
	"github.com/sakutaro/tanabota/internal/storage/sqlite"
	"github.com/sakutaro/tanabota/internal/tanabota"
)

func newSeededStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "tanabota-service-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := seed.Apply(context.Background(), store); err != nil {
		t.Fatalf("seed.Apply failed: %v", err)
	}
	return store
}

func TestPOSServiceExecute(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	hato, err := store.GetUserByEmail(ctx, "hato.tanaka@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	recipes := NewRecipeService(store)
	// 203 bundles the 10% oshikatsu rule and a fixed income rule the
	// synchronous engine ignores.
	if _, err := recipes.CopyTemplate(ctx, 203, hato.ID); err != nil {
		t.Fatalf("CopyTemplate failed: %v", err)
	}

	pos := NewPOSService(store, tanabota.NewEngine(), false)

	t.Run("oshikatsu payment saves ten percent", func(t *testing.T) {
		tx, logs, err := pos.Execute(ctx, models.PaymentEvent{
			UserID:     hato.ID,
			AmountPaid: 8000,
			Category:   "推し活",
		})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if tx.TanabotaTotal != 800 {
			t.Errorf("TanabotaTotal = %d, want 800", tx.TanabotaTotal)
		}
		if len(logs) != 1 || logs[0].TanabotaAmount != 800 {
			t.Fatalf("logs = %+v, want one row of 800", logs)
		}
		if logs[0].ActionType != "save_percentage" {
			t.Errorf("ActionType = %q, want save_percentage", logs[0].ActionType)
		}

		// The committed ledger row matches the response.
		stored, storedLogs, err := store.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if stored.TanabotaTotal != 800 || len(storedLogs) != 1 {
			t.Errorf("stored total = %d with %d logs, want 800 with 1", stored.TanabotaTotal, len(storedLogs))
		}
	})

	t.Run("uncategorized payment fires nothing", func(t *testing.T) {
		tx, logs, err := pos.Execute(ctx, models.PaymentEvent{
			UserID:     hato.ID,
			AmountPaid: 3000,
		})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if tx.TanabotaTotal != 0 || len(logs) != 0 {
			t.Errorf("total = %d with %d logs, want 0 with 0", tx.TanabotaTotal, len(logs))
		}
	})

	t.Run("unknown user writes nothing", func(t *testing.T) {
		_, _, err := pos.Execute(ctx, models.PaymentEvent{UserID: 424242, AmountPaid: 1000})
		if !errors.Is(err, tanabota.ErrUserNotFound) {
			t.Fatalf("Execute error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestPOSServiceDemoFallback(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	hato, err := store.GetUserByEmail(ctx, "hato.tanaka@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	pos := NewPOSService(store, tanabota.NewEngine(), true)

	// No recipes copied, so no rule can fire; the fallback fills in a
	// response-only floor entry.
	tx, logs, err := pos.Execute(ctx, models.PaymentEvent{UserID: hato.ID, AmountPaid: 500})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1 synthetic entry", len(logs))
	}
	if logs[0].ActionType != "demo_floor" || logs[0].TanabotaAmount != 5 {
		t.Errorf("synthetic entry = %+v", logs[0])
	}
	if tx.TanabotaTotal != 0 {
		t.Errorf("TanabotaTotal = %d, want 0; the fallback never reaches the ledger", tx.TanabotaTotal)
	}

	// The synthetic entry is absent from the stored transaction.
	_, storedLogs, err := store.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if len(storedLogs) != 0 {
		t.Errorf("stored logs = %d, want 0", len(storedLogs))
	}
}

func TestDemoFloor(t *testing.T) {
	tests := []struct {
		name       string
		amountPaid int64
		want       int64 // 0 means nil
	}{
		{name: "one percent of payment", amountPaid: 8000, want: 80},
		{name: "small payment floors to one yen", amountPaid: 50, want: 1},
		{name: "zero payment yields nothing", amountPaid: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DemoFloor(tt.amountPaid)
			if tt.want == 0 {
				if got != nil {
					t.Fatalf("DemoFloor() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.TanabotaAmount != tt.want {
				t.Fatalf("DemoFloor() = %+v, want amount %d", got, tt.want)
			}
		})
	}
}
