// Package store wraps the prepared statements in internal/db behind the
// pure input/output operations the classifier and notifier depend on.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/klvinai/sentinelsuite/internal/model"
)

// ErrThresholdsMissing is returned when no threshold row exists for a
// (device_id, sensor_id) pair.
var ErrThresholdsMissing = errors.New("store: thresholds not configured for device/sensor")

// ErrRecipientsMissing is returned when a device has no recipients
// configured at or below the requested severity tier.
var ErrRecipientsMissing = errors.New("store: no recipients configured for device/severity")

// Querier is the subset of *pgxpool.Pool (via internal/db.Pool) the store
// needs. Defined narrowly so tests can supply an in-memory fake without a
// real database.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) Row
}

// Row is the single-row scan surface (matches pgx.Row).
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows is the multi-row scan surface (matches pgx.Rows).
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Store runs point queries against a prepared-statement-backed connection pool.
type Store struct {
	db Querier
}

// New creates a Store over any Querier, typically a *db.StoreAdapter
// wrapping internal/db.Pool (see internal/db/adapter.go).
func New(db Querier) *Store {
	return &Store{db: db}
}

// GetThresholds returns the three severity cut-offs for a (device, sensor)
// pair. Callers are expected to front this with a TTL cache.
func (s *Store) GetThresholds(ctx context.Context, deviceID, sensorID string) (model.Thresholds, error) {
	var t model.Thresholds
	err := s.db.QueryRow(ctx, "get_thresholds", deviceID, sensorID).Scan(&t.Yellow, &t.Orange, &t.Red)
	if err != nil {
		if isNoRows(err) {
			return model.Thresholds{}, ErrThresholdsMissing
		}
		return model.Thresholds{}, fmt.Errorf("get thresholds: %w", err)
	}
	return t, nil
}

// GetEntityNames returns display names for a device, never failing: an
// absent device row yields the "Unknown ..." placeholder triple.
func (s *Store) GetEntityNames(ctx context.Context, deviceID string) (model.EntityNames, error) {
	var names model.EntityNames
	err := s.db.QueryRow(ctx, "get_entity_names", deviceID).Scan(&names.FactoryName, &names.ZoneName, &names.MachineName)
	if err != nil {
		if isNoRows(err) {
			return model.UnknownEntityNames, nil
		}
		return model.EntityNames{}, fmt.Errorf("get entity names: %w", err)
	}
	return names, nil
}

// GetEmails returns recipients for a device filtered by severity tier:
// Yellow sees tier-1 only, Orange sees tier-1+2, Red sees all three tiers.
func (s *Store) GetEmails(ctx context.Context, deviceID string, severity model.Severity) ([]string, error) {
	stmt := "get_emails_yellow"
	switch severity {
	case model.Orange:
		stmt = "get_emails_orange"
	case model.Red:
		stmt = "get_emails_red"
	}

	rows, err := s.db.Query(ctx, stmt, deviceID)
	if err != nil {
		return nil, fmt.Errorf("get emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get emails: %w", err)
	}
	if len(emails) == 0 {
		return nil, ErrRecipientsMissing
	}
	return emails, nil
}

// GetAllCompanyIDs is the source of truth for the ingress subscription set
// at startup.
func (s *Store) GetAllCompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, "get_all_company_ids")
	if err != nil {
		return nil, fmt.Errorf("get all company ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompanyIDForDevice walks the device hierarchy up to the owning company via
// a recursive CTE. Not on the classification hot path; used by the operator
// lookup endpoint only.
func (s *Store) CompanyIDForDevice(ctx context.Context, deviceID string) (string, error) {
	var companyID string
	err := s.db.QueryRow(ctx, "company_id_for_device", deviceID).Scan(&companyID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("no company found for device %q: %w", deviceID, err)
		}
		return "", fmt.Errorf("company id for device: %w", err)
	}
	return companyID, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
