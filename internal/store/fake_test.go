package store_test

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/klvinai/sentinelsuite/internal/store"
)

// fakeQuerier is an in-memory stand-in for internal/db's pool, letting
// store tests run without a database.
type fakeQuerier struct {
	thresholds map[string][3]float64 // "device|sensor" -> yellow, orange, red
	names      map[string][3]string  // device -> factory, zone, machine
	emails     map[string][]string   // "device|tier-stmt" -> emails
	companyIDs []string
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		thresholds: make(map[string][3]float64),
		names:      make(map[string][3]string),
		emails:     make(map[string][]string),
	}
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (store.Rows, error) {
	switch sql {
	case "get_emails_yellow", "get_emails_orange", "get_emails_red":
		deviceID := args[0].(string)
		return &fakeRows{values: f.emails[deviceID+"|"+sql]}, nil
	case "get_all_company_ids":
		return &fakeRows{values: f.companyIDs}, nil
	}
	return &fakeRows{}, nil
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) store.Row {
	switch sql {
	case "get_thresholds":
		key := args[0].(string) + "|" + args[1].(string)
		t, ok := f.thresholds[key]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []interface{}{t[0], t[1], t[2]}}
	case "get_entity_names":
		deviceID := args[0].(string)
		n, ok := f.names[deviceID]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []interface{}{n[0], n[1], n[2]}}
	case "company_id_for_device":
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{err: fmt.Errorf("fakeQuerier: unhandled statement %q", sql)}
}

// fakeRow implements store.Row over a fixed slice of values.
type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch v := d.(type) {
		case *float64:
			*v = r.values[i].(float64)
		case *string:
			*v = r.values[i].(string)
		}
	}
	return nil
}

// fakeRows implements store.Rows over a slice of single-column string values.
type fakeRows struct {
	values []string
	idx    int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.values) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	*(dest[0].(*string)) = r.values[r.idx-1]
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}
