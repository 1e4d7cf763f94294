package controllers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"expense-tracker-backend/controllers"
	"expense-tracker-backend/idempotency"
	"expense-tracker-backend/middlewares"
	"expense-tracker-backend/models"
	"expense-tracker-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioKey = "11111111-1111-4111-8111-111111111111"

// memRepo is an in-memory ExpenseRepository so the full HTTP stack runs
// without a database.
type memRepo struct {
	mu       sync.Mutex
	expenses []models.Expense
}

func (r *memRepo) Create(e *models.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	e.Id = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.expenses = append(r.expenses, *e)
	return nil
}

func (r *memRepo) Get(id string) (*models.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.expenses {
		if e.Id == id {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memRepo) List(f models.ExpenseFilter) ([]models.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Expense
	for _, e := range r.expenses {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.expenses)
}

func newTestApp() (*fiber.App, *memRepo, *idempotency.MemoryStore) {
	repo := &memRepo{}
	store := idempotency.NewMemoryStore()
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	routes.Register(app, controllers.NewExpenseController(repo), idempotency.NewGuard(store))
	return app, repo, store
}

func postExpense(t *testing.T, app *fiber.App, key, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/expense", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

const scenarioBody = `{"amount":"99.99","category":"Food","description":"Lunch","date":"2026-01-15"}`

func TestCreateExpenseThenReplay(t *testing.T) {
	app, repo, _ := newTestApp()

	resp, first := postExpense(t, app, scenarioKey, scenarioBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.Unmarshal(first, &created))
	assert.Equal(t, "99.99", created["amount"], "amount must cross the wire as the literal string")
	assert.Equal(t, "Food", created["category"])
	assert.NotEmpty(t, created["id"])
	require.Equal(t, 1, repo.count())

	// Same key, same body: replay with 200 and byte-identical body.
	resp, replay := postExpense(t, app, scenarioKey, scenarioBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first, replay)
	assert.Equal(t, 1, repo.count(), "the repository must not see the retry")

	// Same key, different body: the guard is payload-agnostic and still
	// replays the original response.
	resp, drifted := postExpense(t, app, scenarioKey,
		`{"amount":"1.00","category":"Other","description":"Drift","date":"2026-01-16"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first, drifted)
	assert.Equal(t, 1, repo.count())
}

func TestCreateExpenseKeyRejections(t *testing.T) {
	app, repo, _ := newTestApp()

	resp, body := postExpense(t, app, "", scenarioBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "idempotency key required")

	resp, body = postExpense(t, app, "not-a-uuid", scenarioBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "canonical UUID")

	assert.Equal(t, 0, repo.count(), "rejected keys must never reach the handler")
}

func TestCreateExpenseValidationFailures(t *testing.T) {
	app, repo, _ := newTestApp()

	futureDate := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	cases := []struct {
		name string
		body string
		want string // substring of the response
	}{
		{"missing amount", `{"category":"Food","description":"x","date":"2026-01-15"}`, `"required"`},
		{"amount format", `{"amount":"1.234","category":"Food","description":"x","date":"2026-01-15"}`, `"invalid_format"`},
		{"amount negative", `{"amount":"-1.00","category":"Food","description":"x","date":"2026-01-15"}`, `"invalid_format"`},
		{"amount zero", `{"amount":"0.00","category":"Food","description":"x","date":"2026-01-15"}`, `"not_positive"`},
		{"amount ceiling", `{"amount":"10000001","category":"Food","description":"x","date":"2026-01-15"}`, `"too_large"`},
		{"unknown category", `{"amount":"5.00","category":"Yachts","description":"x","date":"2026-01-15"}`, "oneof"},
		{"missing description", `{"amount":"5.00","category":"Food","date":"2026-01-15"}`, "required"},
		{"bad date", `{"amount":"5.00","category":"Food","description":"x","date":"15-01-2026"}`, "datetime"},
		{"future date", fmt.Sprintf(`{"amount":"5.00","category":"Food","description":"x","date":"%s"}`, futureDate), "future"},
		{"date before floor", `{"amount":"5.00","category":"Food","description":"x","date":"1999-12-31"}`, "before the supported range"},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key := fmt.Sprintf("%08d-1111-4111-8111-111111111111", i)
			resp, body := postExpense(t, app, key, tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, string(body), tc.want)
		})
	}
	assert.Equal(t, 0, repo.count())

	// Boundary values that must be accepted.
	for i, amount := range []string{"0.01", "10000000.00"} {
		key := fmt.Sprintf("ab%06d-1111-4111-8111-111111111111", i)
		body := fmt.Sprintf(`{"amount":%q,"category":"Food","description":"x","date":"2026-01-15"}`, amount)
		resp, _ := postExpense(t, app, key, body)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, amount)
	}
}

func TestValidationFailuresAreNotCached(t *testing.T) {
	app, repo, store := newTestApp()

	bad := `{"amount":"0.00","category":"Food","description":"x","date":"2026-01-15"}`
	resp, _ := postExpense(t, app, scenarioKey, bad)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	rec, err := store.FindByKey(scenarioKey)
	require.NoError(t, err)
	assert.Nil(t, rec, "a failed attempt must leave the key retryable")

	// The corrected retry under the same key succeeds.
	resp, _ = postExpense(t, app, scenarioKey, scenarioBody)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, repo.count())
}

func TestConcurrentFirstUseSameKey(t *testing.T) {
	app, repo, store := newTestApp()

	// Two near-simultaneous submissions with the same brand-new key. The
	// store's uniqueness is the only serialization point: both requests may
	// run the handler before either record write lands, so one OR two
	// business rows is the documented guarantee, not exactly-once. At most
	// one idempotency record survives either way.
	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/expense", strings.NewReader(scenarioBody))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", scenarioKey)
			resp, err := app.Test(req)
			if err == nil {
				statuses[i] = resp.StatusCode
			}
		}(i)
	}
	wg.Wait()

	for _, status := range statuses {
		assert.Contains(t, []int{http.StatusCreated, http.StatusOK}, status)
	}
	count := repo.count()
	assert.GreaterOrEqual(t, count, 1)
	assert.LessOrEqual(t, count, 2)

	rec, err := store.FindByKey(scenarioKey)
	require.NoError(t, err)
	require.NotNil(t, rec, "exactly one record must survive the race")
}

func TestGetExpense(t *testing.T) {
	app, repo, _ := newTestApp()

	resp, body := postExpense(t, app, scenarioKey, scenarioBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Expense
	require.NoError(t, json.Unmarshal(body, &created))
	require.Equal(t, 1, repo.count())

	req := httptest.NewRequest(http.MethodGet, "/api/expense/"+created.Id, nil)
	getResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/expense/"+uuid.NewString(), nil)
	missing, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestListAndSummary(t *testing.T) {
	app, repo, _ := newTestApp()

	seed := []struct{ amount, category, date string }{
		{"0.10", "Food", "2026-01-10"},
		{"0.20", "Food", "2026-01-11"},
		{"9.99", "Transport", "2026-01-12"},
	}
	for i, s := range seed {
		key := fmt.Sprintf("cd%06d-1111-4111-8111-111111111111", i)
		body := fmt.Sprintf(`{"amount":%q,"category":%q,"description":"seed","date":%q}`, s.amount, s.category, s.date)
		resp, _ := postExpense(t, app, key, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	require.Equal(t, 3, repo.count())

	req := httptest.NewRequest(http.MethodGet, "/api/expenses?category=Food", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var listed []models.Expense
	require.NoError(t, json.Unmarshal(raw, &listed))
	assert.Len(t, listed, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/expenses?category=Yachts", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Summary totals come out of exact decimal accumulation: 0.10 + 0.20
	// must be 0.30, not a float drift.
	req = httptest.NewRequest(http.MethodGet, "/api/expenses/summary", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)

	var summary struct {
		Count      int               `json:"count"`
		Total      string            `json:"total"`
		ByCategory map[string]string `json:"by_category"`
	}
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, "10.29", summary.Total)
	assert.Equal(t, "0.30", summary.ByCategory["Food"])
	assert.Equal(t, "9.99", summary.ByCategory["Transport"])
}
