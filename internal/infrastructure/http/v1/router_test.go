package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"serio/internal/core/security"
	"serio/internal/domain/auth"
	"serio/internal/domain/invoicing"
	"serio/internal/domain/series"
	"serio/internal/infrastructure/storage/memory"
	"serio/pkg/logger"
)

type testEnv struct {
	router        http.Handler
	adminToken    string
	operatorToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logger.Default()

	store := memory.New(series.Config{Prefix: "INV", FiscalPeriod: "2026", PadWidth: 5})
	allocService, err := series.NewService(ctx, store, log, series.ServiceOptions{})
	if err != nil {
		t.Fatal(err)
	}

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	opRepo := memory.NewOperatorRepo()
	authService := auth.NewService(opRepo, jwtService)

	admin, err := authService.CreateOperator(ctx, "admin@example.com", "Admin", "Admin123!", []string{auth.RoleAdmin}, true)
	if err != nil {
		t.Fatal(err)
	}
	operator, err := authService.CreateOperator(ctx, "ops@example.com", "Ops", "Ops12345!", []string{auth.RoleOperator}, false)
	if err != nil {
		t.Fatal(err)
	}

	adminToken, _, err := jwtService.GenerateAccessToken(admin.ID.String(), admin.Email, admin.Roles, true)
	if err != nil {
		t.Fatal(err)
	}
	operatorToken, _, err := jwtService.GenerateAccessToken(operator.ID.String(), operator.Email, operator.Roles, false)
	if err != nil {
		t.Fatal(err)
	}

	router := NewRouter(RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		AuthService:  authService,
		Series:       allocService,
		Workflow:     invoicing.NewWorkflow(allocService, nil, invoicing.DefaultRates(), log),
		Policy:       security.MustDefaultPolicy(),
	})

	return &testEnv{router: router, adminToken: adminToken, operatorToken: operatorToken}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodGet, "/health/live", "", nil); w.Code != http.StatusOK {
		t.Errorf("live: want 200, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/health/ready", "", nil); w.Code != http.StatusOK {
		t.Errorf("ready: want 200, got %d", w.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "Admin123!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: want 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login: want 401, got %d", w.Code)
	}
}

func TestSeriesEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodGet, "/api/v1/series", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("want 401 without token, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/series", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("want 401 with bad token, got %d", w.Code)
	}
}

func TestSkipIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{"number": 5, "reason": "misprint"}

	if w := env.do(t, http.MethodPost, "/api/v1/series/skips", env.operatorToken, body); w.Code != http.StatusForbidden {
		t.Errorf("operator skip: want 403, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/series/skips", env.adminToken, body); w.Code != http.StatusCreated {
		t.Errorf("admin skip: want 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReserveAndReleaseFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/series/reservations", env.operatorToken,
		map[string]any{"number": 3, "reservedFor": "Acme Ltd"})
	if w.Code != http.StatusCreated {
		t.Fatalf("reserve: want 201, got %d: %s", w.Code, w.Body.String())
	}

	// Reserved number is walked past.
	w = env.do(t, http.MethodGet, "/api/v1/series/next", env.operatorToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("next: want 200, got %d", w.Code)
	}
	var next struct {
		Number  int64  `json:"number"`
		Display string `json:"display"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &next); err != nil {
		t.Fatal(err)
	}
	if next.Number != 1 || next.Display != "INV-2026-00001" {
		t.Errorf("next mismatch: %+v", next)
	}

	if w = env.do(t, http.MethodDelete, "/api/v1/series/reservations/3", env.operatorToken, nil); w.Code != http.StatusNoContent {
		t.Errorf("release: want 204, got %d: %s", w.Code, w.Body.String())
	}

	// Releasing again finds nothing.
	if w = env.do(t, http.MethodDelete, "/api/v1/series/reservations/3", env.operatorToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("double release: want 404, got %d", w.Code)
	}
}

func TestDuplicateSkipConflicts(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{"number": 5, "reason": "misprint"}

	if w := env.do(t, http.MethodPost, "/api/v1/series/skips", env.adminToken, body); w.Code != http.StatusCreated {
		t.Fatalf("first skip: want 201, got %d", w.Code)
	}
	w := env.do(t, http.MethodPost, "/api/v1/series/skips", env.adminToken, body)
	if w.Code != http.StatusConflict {
		t.Fatalf("second skip: want 409, got %d", w.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "NUMBER_ALREADY_TAKEN" {
		t.Errorf("error code: want NUMBER_ALREADY_TAKEN, got %s", resp.Code)
	}
}

func TestCreateInvoiceAndHistory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/invoices", env.operatorToken, map[string]any{
		"customerName": "Acme Ltd",
		"lines": []map[string]any{
			{"description": "Consulting", "quantity": 2, "unitPrice": "150.00"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("invoice: want 201, got %d: %s", w.Code, w.Body.String())
	}
	var inv struct {
		Number        int64  `json:"number"`
		DisplayNumber string `json:"displayNumber"`
		Total         string `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &inv); err != nil {
		t.Fatal(err)
	}
	if inv.Number != 1 || inv.DisplayNumber != "INV-2026-00001" || inv.Total != "300.00" {
		t.Errorf("invoice mismatch: %+v", inv)
	}

	w = env.do(t, http.MethodGet, "/api/v1/series/history", env.operatorToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: want 200, got %d", w.Code)
	}
	var hist struct {
		Items []struct {
			Action string `json:"action"`
			Number int64  `json:"number"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Items) != 1 || hist.Items[0].Action != "CREATED" || hist.Items[0].Number != 1 {
		t.Errorf("history mismatch: %+v", hist.Items)
	}
}
