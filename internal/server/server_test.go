package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"foyer/internal/auth"
	"foyer/internal/budget"
	"foyer/internal/feed/memory"
	"foyer/internal/service"
	"foyer/internal/store/postgres"
)

func newTestServer(t *testing.T) (*echo.Echo, *memory.Store) {
	t.Helper()
	f := memory.New()
	return New(Options{
		Manager:         budget.NewManager(func(string) budget.Persister { return nil }),
		Service:         service.New(f, nil),
		SnapshotBackend: "localfile",
		FeedBackend:     "memory",
	}), f
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetBudgetDefaults(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/budget", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body)
	}

	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap["devise"] != "€" {
		t.Fatalf("devise: %v", snap["devise"])
	}
	if len(snap["comptesBancaires"].([]any)) != 2 {
		t.Fatalf("accounts: %v", snap["comptesBancaires"])
	}
}

func TestAddExpenseAndTotals(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/budget/months/0/expenses",
		`{"categorie":"Logement","montant":"850,00","description":"Loyer","personne":"partage","type":"variable"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/budget/months/0/totals", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status: %d", rec.Code)
	}
	var totals map[string]json.Number
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	if err := dec.Decode(&totals); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if totals["totalDepenses"].String() != "850" {
		t.Fatalf("totalDepenses: %s", totals["totalDepenses"])
	}
	if totals["restant"].String() != "-850" {
		t.Fatalf("restant: %s", totals["restant"])
	}
}

func TestAddExpenseWithPropagation(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/budget/months/3/expenses?propagate=true",
		`{"categorie":"Logement","montant":"1000","description":"Loyer","personne":"personne1","type":"fixe"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body)
	}

	var resp AddExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.PropagatedMonths) != 11 {
		t.Fatalf("propagated months: %v", resp.PropagatedMonths)
	}
	if resp.Entry.RecurrenceID == "" {
		t.Fatal("missing recurrence id")
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/budget", "")
	var snap struct {
		Months [12]struct {
			Expenses []map[string]any `json:"depenses"`
		} `json:"mois"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, m := range snap.Months {
		if len(m.Expenses) != 1 {
			t.Fatalf("month %d expenses: %d", i, len(m.Expenses))
		}
	}
}

func TestAddExpenseValidation(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad month", "/api/v1/budget/months/12/expenses", `{"categorie":"X","montant":"1","personne":"partage","type":"variable"}`},
		{"missing category", "/api/v1/budget/months/0/expenses", `{"montant":"1","personne":"partage","type":"variable"}`},
		{"bad owner", "/api/v1/budget/months/0/expenses", `{"categorie":"X","montant":"1","personne":"personne9","type":"variable"}`},
		{"bad kind", "/api/v1/budget/months/0/expenses", `{"categorie":"X","montant":"1","personne":"partage","type":"mensuel"}`},
		{"bad amount", "/api/v1/budget/months/0/expenses", `{"categorie":"X","montant":"-5","personne":"partage","type":"variable"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: %d body: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestUpdateBankAccountsLimit(t *testing.T) {
	e, _ := newTestServer(t)

	var sb strings.Builder
	sb.WriteString(`{"comptesBancaires":[`)
	for i := 0; i < 17; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"id":"a","nom":"Compte","solde":0,"couleur":"#fff"}`)
	}
	sb.WriteString(`]}`)

	rec := doJSON(e, http.MethodPut, "/api/v1/settings/accounts", sb.String())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body)
	}
}

func TestToggleHealthOutOfRange(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPatch, "/api/v1/budget/months/0/health/5", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body)
	}
}

func TestSubmitFeedEntry(t *testing.T) {
	e, f := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/feed/entries",
		`{"type":"revenu","personne":"personne1","categorie":"Salaire","montant":"2130,95","compte":"Compte Principal","mois":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body)
	}

	grid, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("feed rows: %d", len(grid))
	}

	var bucket struct {
		Incomes []map[string]any `json:"revenus"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bucket); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bucket.Incomes) != 1 {
		t.Fatalf("incomes: %d", len(bucket.Incomes))
	}
}

func TestFeedReloadAndEntries(t *testing.T) {
	e, f := newTestServer(t)
	ctx := context.Background()
	if err := f.Append(ctx, []string{"2025-01-10", "épargne", "partagé", "Vacances", "300", "Compte Épargne", "", "Juin"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doJSON(e, http.MethodPost, "/api/v1/feed/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reload status: %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/feed/entries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("entries status: %d", rec.Code)
	}
	var rows []FeedRowResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].MonthName != "Juin" {
		t.Fatalf("rows: %+v", rows)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	e, _ := newTestServer(t)

	doJSON(e, http.MethodPut, "/api/v1/settings/currency", `{"devise":"CHF"}`)

	rec := doJSON(e, http.MethodGet, "/api/v1/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status: %d", rec.Code)
	}
	exported := rec.Body.String()

	doJSON(e, http.MethodPut, "/api/v1/settings/currency", `{"devise":"$"}`)

	rec = doJSON(e, http.MethodPost, "/api/v1/import", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status: %d body: %s", rec.Code, rec.Body)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/budget", "")
	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap["devise"] != "CHF" {
		t.Fatalf("devise after import: %v", snap["devise"])
	}
}

func TestImportRejectsMalformedPayload(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/import", `{"devise": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SnapshotBackend != "localfile" || resp.FeedBackend != "memory" {
		t.Fatalf("backends: %+v", resp)
	}
	if resp.SyncError != "" {
		t.Fatalf("unexpected sync error: %q", resp.SyncError)
	}
}

type fakeDirectory struct {
	users map[string]postgres.User
}

func (d *fakeDirectory) Create(_ context.Context, email, passwordHash string) (postgres.User, error) {
	if _, ok := d.users[email]; ok {
		return postgres.User{}, postgres.ErrConflict
	}
	u := postgres.User{ID: "u-" + email, Email: email, PasswordHash: passwordHash}
	d.users[email] = u
	return u, nil
}

func (d *fakeDirectory) GetByEmail(_ context.Context, email string) (postgres.User, error) {
	u, ok := d.users[email]
	if !ok {
		return postgres.User{}, postgres.ErrNotFound
	}
	return u, nil
}

func newAuthServer(t *testing.T) *echo.Echo {
	t.Helper()
	return New(Options{
		Manager:           budget.NewManager(func(string) budget.Persister { return nil }),
		Service:           service.New(memory.New(), nil),
		Users:             &fakeDirectory{users: map[string]postgres.User{}},
		Tokens:            auth.NewTokenManager("test-secret", "foyer", time.Hour),
		SnapshotBackend:   "postgres",
		FeedBackend:       "memory",
		AuthRatePerMinute: 600,
		AuthRateBurst:     100,
	})
}

func TestRegisterLoginFlow(t *testing.T) {
	e := newAuthServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register", `{"email":"a@b.fr","password":"motdepasse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status: %d body: %s", rec.Code, rec.Body)
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("missing token")
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/register", `{"email":"a@b.fr","password":"motdepasse"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "email already registered") {
		t.Fatalf("body: %s", rec.Body)
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.fr","password":"faux"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status: %d", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.fr","password":"motdepasse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status: %d body: %s", rec.Code, rec.Body)
	}
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	e := newAuthServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register", `{"email":"pas-un-email","password":"motdepasse"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid email") {
		t.Fatalf("body: %s", rec.Body)
	}
}

func TestBudgetRequiresTokenInMultiUserMode(t *testing.T) {
	e := newAuthServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/budget", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}

	reg := doJSON(e, http.MethodPost, "/api/v1/auth/register", `{"email":"c@d.fr","password":"motdepasse"}`)
	var resp AuthResponse
	if err := json.Unmarshal(reg.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budget", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("status with token: %d body: %s", rec2.Code, rec2.Body)
	}
}
