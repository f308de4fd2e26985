/*
Package store defines document persistence for the workspace.

PURPOSE:
  The application persists every resource as a JSON document keyed by
  collection + id. The engine never touches storage; handlers load the
  workspace through this interface and hand plain collections to the
  engine.

KEY INTERFACES:
  Store: per-collection CRUD plus whole-workspace snapshot/restore
         (the backup endpoints are a full JSON dump and replace)

IMPLEMENTATIONS:
  - store/memory:   mutex-guarded maps, for tests and dev
  - store/sqlite:   single documents table, WAL mode
  - store/postgres: JSONB documents table on pgx

SEE ALSO:
  - api/handlers.go: the CRUD surface over this interface
*/
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names the known document collections.
type Collection string

const (
	Users            Collection = "users"
	Trips            Collection = "trips"
	EntitlementTypes Collection = "entitlement_types"
	PublicHolidays   Collection = "public_holidays"
	HolidayConfigs   Collection = "holiday_configs"
	Settings         Collection = "settings"
)

// SettingsID is the document id of the workspace settings singleton.
const SettingsID = "default"

// Collections lists every known collection, in a stable order.
func Collections() []Collection {
	return []Collection{Users, Trips, EntitlementTypes, PublicHolidays, HolidayConfigs, Settings}
}

// Known reports whether a collection name is recognized.
func Known(c Collection) bool {
	for _, k := range Collections() {
		if k == c {
			return true
		}
	}
	return false
}

// Sentinel errors - use with errors.Is().
var (
	// ErrNotFound is returned when a document id does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrUnknownCollection is returned for collection names outside the
	// known set.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Store persists JSON documents per collection.
type Store interface {
	// List returns all documents of a collection, ordered by id.
	List(ctx context.Context, c Collection) ([]json.RawMessage, error)

	// Get returns one document, or ErrNotFound.
	Get(ctx context.Context, c Collection, id string) (json.RawMessage, error)

	// Put creates or replaces a document.
	Put(ctx context.Context, c Collection, id string, doc json.RawMessage) error

	// Delete removes a document. Missing ids return ErrNotFound.
	Delete(ctx context.Context, c Collection, id string) error

	// Snapshot dumps every collection, for backup.
	Snapshot(ctx context.Context) (Backup, error)

	// Restore replaces the entire workspace with the backup's contents
	// atomically: either everything is replaced or nothing is.
	Restore(ctx context.Context, b Backup) error

	Close() error
}

// Backup is a full-workspace dump keyed by collection.
type Backup map[Collection][]json.RawMessage

// DocumentID extracts the id a document restores under: its "id" field,
// falling back to the singleton id for the settings collection. Empty
// means the document cannot be keyed and is skipped.
func DocumentID(c Collection, doc json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(doc, &probe); err == nil && probe.ID != "" {
		return probe.ID
	}
	if c == Settings {
		return SettingsID
	}
	return ""
}
