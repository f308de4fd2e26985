/*
handlers.go - HTTP handlers for the workspace API

PURPOSE:
  Exposes the document CRUD surface and the leave engine over REST.
  Handlers parse HTTP, load the workspace from the store, delegate to the
  engine, and serialize responses.

ENDPOINTS:
  Documents (generic, per collection):
    GET    /api/{collection}            List documents
    POST   /api/{collection}            Create (id assigned when absent)
    GET    /api/{collection}/{id}       Get one document
    PUT    /api/{collection}/{id}       Replace
    DELETE /api/{collection}/{id}       Delete

  Settings:
    GET    /api/settings                Workspace settings singleton
    PUT    /api/settings                Replace settings

  Backup:
    GET    /api/backup                  Full-workspace JSON dump
    POST   /api/restore                 Replace the workspace

  Engine:
    GET    /api/users/{id}/balance      Remaining balance (entitlement, year)
    POST   /api/users/{id}/requests/evaluate
                                        Run the allocation validator

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: invalid input, unknown collection
  - 404: document not found
  - 500: storage failures
  Engine-level validation failures are NOT errors: they come back as
  flags on the evaluation payload with status 200.
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SamerBerjawi/wandergrid/leave"
	"github.com/SamerBerjawi/wandergrid/store"
)

// maxBodyBytes caps request bodies; restores of large workspaces fit
// comfortably under it.
const maxBodyBytes = 8 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store store.Store
	Log   zerolog.Logger
}

func NewHandler(st store.Store, log zerolog.Logger) *Handler {
	return &Handler{Store: st, Log: log}
}

// =============================================================================
// WORKSPACE LOADING
// =============================================================================

// loadDataset reads the whole workspace into engine-ready collections.
// Documents that fail to decode are skipped: one corrupt record must not
// take the workspace down.
func (h *Handler) loadDataset(r *http.Request) (*leave.Dataset, error) {
	ctx := r.Context()
	data := &leave.Dataset{}

	if err := h.loadCollection(r, store.Users, func(raw json.RawMessage) {
		var u leave.User
		if json.Unmarshal(raw, &u) == nil {
			data.Users = append(data.Users, u)
		}
	}); err != nil {
		return nil, err
	}
	if err := h.loadCollection(r, store.EntitlementTypes, func(raw json.RawMessage) {
		var e leave.EntitlementType
		if json.Unmarshal(raw, &e) == nil {
			data.Entitlements = append(data.Entitlements, e)
		}
	}); err != nil {
		return nil, err
	}
	if err := h.loadCollection(r, store.Trips, func(raw json.RawMessage) {
		var t leave.Trip
		if json.Unmarshal(raw, &t) == nil {
			data.Trips = append(data.Trips, t)
		}
	}); err != nil {
		return nil, err
	}
	if err := h.loadCollection(r, store.PublicHolidays, func(raw json.RawMessage) {
		var ph leave.PublicHoliday
		if json.Unmarshal(raw, &ph) == nil {
			data.Holidays = append(data.Holidays, ph)
		}
	}); err != nil {
		return nil, err
	}

	if raw, err := h.Store.Get(ctx, store.Settings, store.SettingsID); err == nil {
		_ = json.Unmarshal(raw, &data.Settings)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return data, nil
}

func (h *Handler) loadCollection(r *http.Request, c store.Collection, add func(json.RawMessage)) error {
	docs, err := h.Store.List(r.Context(), c)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		add(doc)
	}
	return nil
}

// =============================================================================
// DOCUMENT CRUD
// =============================================================================

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	c := store.Collection(chi.URLParam(r, "collection"))
	docs, err := h.Store.List(r.Context(), c)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	h.respond(w, http.StatusOK, docs)
}

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	c := store.Collection(chi.URLParam(r, "collection"))
	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}

	id := store.DocumentID(c, doc)
	if id == "" {
		id = uuid.NewString()
		doc = withID(doc, id)
	}
	if err := h.Store.Put(r.Context(), c, id, doc); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, json.RawMessage(doc))
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	c := store.Collection(chi.URLParam(r, "collection"))
	doc, err := h.Store.Get(r.Context(), c, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, doc)
}

func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	c := store.Collection(chi.URLParam(r, "collection"))
	id := chi.URLParam(r, "id")
	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	doc = withID(doc, id) // the URL id wins over any body id
	if err := h.Store.Put(r.Context(), c, id, doc); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, json.RawMessage(doc))
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	c := store.Collection(chi.URLParam(r, "collection"))
	if err := h.Store.Delete(r.Context(), c, chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTINGS
// =============================================================================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Get(r.Context(), store.Settings, store.SettingsID)
	if errors.Is(err, store.ErrNotFound) {
		h.respond(w, http.StatusOK, leave.WorkspaceSettings{})
		return
	}
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, doc)
}

func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	// Settings must at least decode; working days outside 0-6 are refused.
	var settings leave.WorkspaceSettings
	if err := json.Unmarshal(doc, &settings); err != nil {
		h.badRequest(w, "invalid settings payload")
		return
	}
	for _, wd := range settings.WorkingDays {
		if wd < time.Sunday || wd > time.Saturday {
			h.badRequest(w, "workingDays entries must be weekdays 0-6")
			return
		}
	}
	if err := h.Store.Put(r.Context(), store.Settings, store.SettingsID, doc); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, json.RawMessage(doc))
}

// =============================================================================
// BACKUP / RESTORE
// =============================================================================

func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.Store.Snapshot(r.Context())
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, backup)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.badRequest(w, "unreadable body")
		return
	}
	var backup store.Backup
	if err := json.Unmarshal(body, &backup); err != nil {
		h.badRequest(w, "invalid backup payload")
		return
	}
	if err := h.Store.Restore(r.Context(), backup); err != nil {
		h.storeError(w, err)
		return
	}
	h.Log.Info().Int("collections", len(backup)).Msg("workspace restored from backup")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ENGINE ENDPOINTS
// =============================================================================

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	entitlementID := r.URL.Query().Get("entitlement")
	if entitlementID == "" {
		h.badRequest(w, "entitlement query parameter is required")
		return
	}
	year := time.Now().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			h.badRequest(w, "invalid year")
			return
		}
		year = parsed
	}
	excludeTrip := r.URL.Query().Get("excludeTrip")

	data, err := h.loadDataset(r)
	if err != nil {
		h.storeError(w, err)
		return
	}
	engine := leave.NewEngine(data)

	allowance := engine.TotalAllowance(userID, entitlementID, year)
	used := engine.UsedDays(userID, entitlementID, year, excludeTrip)
	remaining := allowance.Sub(used)

	h.respond(w, http.StatusOK, BalanceDTO{
		UserID:        userID,
		EntitlementID: entitlementID,
		Year:          year,
		Allowance:     allowance.Days.InexactFloat64(),
		Used:          used.InexactFloat64(),
		Remaining:     remaining.Days.InexactFloat64(),
		Unlimited:     allowance.Unlimited,
	})
}

func (h *Handler) EvaluateRequest(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.badRequest(w, "unreadable body")
		return
	}
	var form leave.RequestForm
	if err := json.Unmarshal(body, &form); err != nil {
		h.badRequest(w, "invalid request form")
		return
	}
	form.UserID = userID

	data, err := h.loadDataset(r)
	if err != nil {
		h.storeError(w, err)
		return
	}
	engine := leave.NewEngine(data)
	ev := engine.Evaluate(&form)

	h.respond(w, http.StatusOK, newEvaluationDTO(&form, ev))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.badRequest(w, "unreadable body")
		return nil, false
	}
	if !json.Valid(body) {
		h.badRequest(w, "body must be a JSON document")
		return nil, false
	}
	return body, true
}

// withID rewrites the document's id field.
func withID(doc json.RawMessage, id string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		return doc
	}
	idRaw, _ := json.Marshal(id)
	obj["id"] = idRaw
	out, err := json.Marshal(obj)
	if err != nil {
		return doc
	}
	return out
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.respond(w, http.StatusBadRequest, ErrorDTO{Error: msg})
}

func (h *Handler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.respond(w, http.StatusNotFound, ErrorDTO{Error: "not found"})
	case errors.Is(err, store.ErrUnknownCollection):
		h.respond(w, http.StatusBadRequest, ErrorDTO{Error: "unknown collection"})
	default:
		h.Log.Error().Err(err).Msg("storage failure")
		h.respond(w, http.StatusInternalServerError, ErrorDTO{Error: "internal error"})
	}
}
