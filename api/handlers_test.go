package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamerBerjawi/wandergrid/store"
	"github.com/SamerBerjawi/wandergrid/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	return NewRouter(st, zerolog.Nop()), st
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// A user with a 20-day annual policy for 2024 and a consuming 5-day trip.
func seedWorkspace(t *testing.T, r http.Handler) {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/api/entitlement_types", map[string]any{
		"id":   "annual",
		"name": "Annual Leave",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/users", map[string]any{
		"id":   "u1",
		"name": "Avery",
		"policies": []map[string]any{{
			"entitlementId": "annual",
			"year":          2024,
			"isActive":      true,
			"accrual":       map[string]any{"amount": 20},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Mon Jun 3 - Fri Jun 7 2024, five working days.
	rec = doJSON(t, r, http.MethodPost, "/api/trips", map[string]any{
		"id":            "t1",
		"name":          "Lisbon",
		"startDate":     "2024-06-03",
		"endDate":       "2024-06-07",
		"status":        "Upcoming",
		"participants":  []string{"u1"},
		"durationMode":  "all_full",
		"entitlementId": "annual",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

// =============================================================================
// DOCUMENT CRUD
// =============================================================================

func TestDocumentLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	// GIVEN a created user
	rec := doJSON(t, r, http.MethodPost, "/api/users", map[string]any{"id": "u1", "name": "Avery"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN fetched back
	rec = doJSON(t, r, http.MethodGet, "/api/users/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[map[string]any](t, rec)
	assert.Equal(t, "Avery", doc["name"])

	// WHEN replaced
	rec = doJSON(t, r, http.MethodPut, "/api/users/u1", map[string]any{"id": "u1", "name": "Avery B"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Avery B", list[0]["name"])

	// WHEN deleted
	rec = doJSON(t, r, http.MethodDelete, "/api/users/u1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/users/u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAssignsID(t *testing.T) {
	r, _ := newTestRouter(t)

	// GIVEN a document without an id
	rec := doJSON(t, r, http.MethodPost, "/api/trips", map[string]any{"name": "Porto"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// THEN the response carries a generated id
	doc := decode[map[string]any](t, rec)
	id, ok := doc["id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)

	rec = doJSON(t, r, http.MethodGet, "/api/trips/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPutURLIDWins(t *testing.T) {
	r, _ := newTestRouter(t)

	// GIVEN a PUT whose body carries a conflicting id
	rec := doJSON(t, r, http.MethodPut, "/api/trips/t9", map[string]any{"id": "other", "name": "Faro"})
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decode[map[string]any](t, rec)
	assert.Equal(t, "t9", doc["id"])
}

func TestUnknownCollectionRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/spaceships", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/spaceships", map[string]any{"id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidJSONRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettingsDefaultsAndRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	// GIVEN no stored settings, GET still answers with the zero value
	rec := doJSON(t, r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN settings are written
	rec = doJSON(t, r, http.MethodPut, "/api/settings", map[string]any{
		"workingDays": []int{0, 1, 2, 3, 4}, // Sunday-Thursday week
		"currency":    "EUR",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN they read back
	rec = doJSON(t, r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[map[string]any](t, rec)
	assert.Equal(t, "EUR", doc["currency"])
}

func TestSettingsRejectsBadWeekday(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPut, "/api/settings", map[string]any{
		"workingDays": []int{1, 9},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// BACKUP / RESTORE
// =============================================================================

func TestBackupRestoreRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorkspace(t, r)

	// GIVEN a snapshot of the seeded workspace
	rec := doJSON(t, r, http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backup := rec.Body.Bytes()

	// WHEN the workspace is wiped and restored
	rec = doJSON(t, r, http.MethodDelete, "/api/users/u1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/restore", bytes.NewReader(backup))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// THEN the deleted user is back
	rec = doJSON(t, r, http.MethodGet, "/api/users/u1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// BALANCE
// =============================================================================

func TestGetBalance(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorkspace(t, r)

	// WHEN asking for the 2024 annual balance
	rec := doJSON(t, r, http.MethodGet, "/api/users/u1/balance?entitlement=annual&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN the 5-day trip has been deducted from the 20-day policy
	dto := decode[BalanceDTO](t, rec)
	assert.Equal(t, "u1", dto.UserID)
	assert.Equal(t, 2024, dto.Year)
	assert.InDelta(t, 20.0, dto.Allowance, 1e-9)
	assert.InDelta(t, 5.0, dto.Used, 1e-9)
	assert.InDelta(t, 15.0, dto.Remaining, 1e-9)
	assert.False(t, dto.Unlimited)
}

func TestGetBalanceExcludesEditedTrip(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorkspace(t, r)

	rec := doJSON(t, r, http.MethodGet, "/api/users/u1/balance?entitlement=annual&year=2024&excludeTrip=t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decode[BalanceDTO](t, rec)
	assert.InDelta(t, 0.0, dto.Used, 1e-9)
	assert.InDelta(t, 20.0, dto.Remaining, 1e-9)
}

func TestGetBalanceRequiresEntitlement(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/users/u1/balance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EVALUATE
// =============================================================================

func TestEvaluateRequestWithinBalance(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorkspace(t, r)

	// WHEN requesting three more working days against 15 remaining
	rec := doJSON(t, r, http.MethodPost, "/api/users/u1/requests/evaluate", map[string]any{
		"startDate":     "2024-07-01",
		"endDate":       "2024-07-03",
		"durationMode":  "all_full",
		"entitlementId": "annual",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decode[EvaluationDTO](t, rec)
	assert.True(t, dto.Valid)
	assert.InDelta(t, 3.0, dto.TotalDays, 1e-9)
	require.Len(t, dto.Targets, 1)
	assert.False(t, dto.Targets[0].ExceedsBalance)
	assert.InDelta(t, 15.0, dto.Targets[0].Remaining, 1e-9)
	assert.Len(t, dto.Days, 3)
}

func TestEvaluateRequestOverBalance(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorkspace(t, r)

	// WHEN requesting four full weeks against 15 remaining days
	rec := doJSON(t, r, http.MethodPost, "/api/users/u1/requests/evaluate", map[string]any{
		"startDate":     "2024-07-01",
		"endDate":       "2024-07-26",
		"durationMode":  "all_full",
		"entitlementId": "annual",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decode[EvaluationDTO](t, rec)
	assert.False(t, dto.Valid)
	require.Len(t, dto.Targets, 1)
	assert.True(t, dto.Targets[0].ExceedsBalance)
}

func TestEvaluateCrossYearAutoSplit(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorkspace(t, r)

	// GIVEN a 2025 policy so the second year has an allowance
	rec := doJSON(t, r, http.MethodPut, "/api/users/u1", map[string]any{
		"id":   "u1",
		"name": "Avery",
		"policies": []map[string]any{
			{
				"entitlementId": "annual",
				"year":          2024,
				"isActive":      true,
				"accrual":       map[string]any{"amount": 20},
			},
			{
				"entitlementId": "annual",
				"year":          2025,
				"isActive":      true,
				"accrual":       map[string]any{"amount": 20},
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN a trip spans Dec 28 2024 - Jan 3 2025
	rec = doJSON(t, r, http.MethodPost, "/api/users/u1/requests/evaluate", map[string]any{
		"startDate":     "2024-12-28",
		"endDate":       "2025-01-03",
		"durationMode":  "all_full",
		"entitlementId": "annual",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN cross-year mode engages with the derived per-year split
	dto := decode[EvaluationDTO](t, rec)
	assert.True(t, dto.CrossYearMode)
	require.NotNil(t, dto.Form.CrossYear)
	assert.Equal(t, 2024, dto.Form.CrossYear.Year1)
	assert.Equal(t, 2025, dto.Form.CrossYear.Year2)
	assert.InDelta(t, 2.0, dto.Form.CrossYear.Days1.InexactFloat64(), 1e-9)
	assert.InDelta(t, 3.0, dto.Form.CrossYear.Days2.InexactFloat64(), 1e-9)
	require.Len(t, dto.Targets, 2)
}

func TestEvaluatePathUserWinsOverBody(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorkspace(t, r)

	// GIVEN a body claiming another user, the path user is evaluated
	rec := doJSON(t, r, http.MethodPost, "/api/users/u1/requests/evaluate", map[string]any{
		"userId":        "somebody-else",
		"startDate":     "2024-07-01",
		"endDate":       "2024-07-01",
		"durationMode":  "all_full",
		"entitlementId": "annual",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decode[EvaluationDTO](t, rec)
	assert.Equal(t, "u1", dto.Form.UserID)
}
