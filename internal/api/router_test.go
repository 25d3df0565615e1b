package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sakutaro/tanabota/internal/auth"
	"github.com/sakutaro/tanabota/internal/seed"
	"github.com/sakutaro/tanabota/internal/service"
	"github.com/sakutaro/tanabota/internal/storage/sqlite"
	"github.com/sakutaro/tanabota/internal/tanabota"
)

func newTestRouter(t *testing.T) (*gin.Engine, *sqlite.SQLiteStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "tanabota-api-test-*")
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

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := NewRouter(Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store),
		JWT:           jwtManager,
		POS:           service.NewPOSService(store, tanabota.NewEngine(), false),
		Recipes:       service.NewRecipeService(store),
		Preferences:   service.NewPreferenceService(store),
	})
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	return resp.Token
}

func TestPOSExecuteEndpoint(t *testing.T) {
	router, store := newTestRouter(t)
	ctx := context.Background()

	hato, err := store.GetUserByEmail(ctx, "hato.tanaka@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if _, err := service.NewRecipeService(store).CopyTemplate(ctx, 203, hato.ID); err != nil {
		t.Fatalf("CopyTemplate failed: %v", err)
	}

	t.Run("settles a categorized payment", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/pos/execute", "", gin.H{
			"user_id":  hato.ID,
			"amount":   8000,
			"category": "推し活",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var resp executeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.TanabotaTotal != 800 {
			t.Errorf("tanabota_total = %d, want 800", resp.TanabotaTotal)
		}
		if len(resp.Executions) != 1 || resp.Executions[0].TanabotaAmount != 800 {
			t.Errorf("executions = %+v", resp.Executions)
		}
	})

	t.Run("zero amount is accepted", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/pos/execute", "", gin.H{
			"user_id": hato.ID,
			"amount":  0,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing amount is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/pos/execute", "", gin.H{
			"user_id": hato.ID,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/pos/execute", "", gin.H{
			"user_id": hato.ID,
			"amount":  -100,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/pos/execute", "", gin.H{
			"user_id": 424242,
			"amount":  1000,
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestAuthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("register login me", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
			"last_name":  "山田",
			"first_name": "花子",
			"email":      "hanako@example.com",
			"password":   "secret123",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
		}

		token := login(t, router, "hanako@example.com", "secret123")

		rec = doJSON(t, router, http.MethodGet, "/me", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("me status = %d: %s", rec.Code, rec.Body.String())
		}
		var me userResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
			t.Fatalf("Failed to decode me response: %v", err)
		}
		if me.Email != "hanako@example.com" {
			t.Errorf("me email = %q", me.Email)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
			"last_name":  "はと",
			"first_name": "ちゃん",
			"email":      "hato.tanaka@example.com",
			"password":   "whatever1",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/login", "", gin.H{
			"email":    "hato.tanaka@example.com",
			"password": "wrong",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("me without token is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/me", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestRecipeEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	token := login(t, router, "hato.tanaka@example.com", "def456")

	t.Run("template catalog is public", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/recipe-templates", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var templates []recipeTemplateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &templates); err != nil {
			t.Fatalf("Failed to decode templates: %v", err)
		}
		if len(templates) != 3 {
			t.Errorf("len(templates) = %d, want 3", len(templates))
		}
	})

	t.Run("copy and list", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/recipes", token, gin.H{"template_id": 201})
		if rec.Code != http.StatusCreated {
			t.Fatalf("copy status = %d: %s", rec.Code, rec.Body.String())
		}
		var created recipeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("Failed to decode recipe: %v", err)
		}
		if len(created.Rules) != 2 {
			t.Errorf("len(Rules) = %d, want 2", len(created.Rules))
		}

		rec = doJSON(t, router, http.MethodGet, "/recipes", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
		}
		var list []recipeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatalf("Failed to decode recipes: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("len(list) = %d, want 1", len(list))
		}
	})

	t.Run("copy requires auth", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/recipes", "", gin.H{"template_id": 201})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown template returns 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/recipes", token, gin.H{"template_id": 999})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
