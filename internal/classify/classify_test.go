package classify

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/klvinai/sentinelsuite/internal/breachqueue"
	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/model"
	"github.com/klvinai/sentinelsuite/internal/store"
)

// fakeQuerier supplies a single fixed threshold row (10, 20, 30) and a
// placeholder-triggering entity-name miss, enough to exercise the
// classifier's ladder without a database.
type fakeQuerier struct {
	thresholds [3]float64
}

func (f fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (store.Rows, error) {
	return emptyRows{}, nil
}

func (f fakeQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) store.Row {
	if sql == "get_thresholds" {
		return fakeRow{f.thresholds}
	}
	return errRow{pgx.ErrNoRows}
}

type fakeRow struct{ values [3]float64 }

func (r fakeRow) Scan(dest ...interface{}) error {
	*(dest[0].(*float64)) = r.values[0]
	*(dest[1].(*float64)) = r.values[1]
	*(dest[2].(*float64)) = r.values[2]
	return nil
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...interface{}) error { return r.err }

type emptyRows struct{}

func (emptyRows) Next() bool          { return false }
func (emptyRows) Scan(...interface{}) error { return nil }
func (emptyRows) Err() error           { return nil }
func (emptyRows) Close()               {}

func newTestClassifier(t *testing.T, yellowDwell, orangeDwell time.Duration) (*Classifier, *breachqueue.Set) {
	t.Helper()
	st := store.New(fakeQuerier{thresholds: [3]float64{10, 20, 30}})
	state := devstate.New(nil)
	queues := breachqueue.NewSet(100, nil)
	c := New(st, state, queues, time.Hour, yellowDwell, orangeDwell, nil)
	return c, queues
}

func TestClassify_RedFastPath_ImmediateBreachNoState(t *testing.T) {
	c, queues := newTestClassifier(t, 10*time.Second, 5*time.Second)

	event := newEvent("d1", reading("s1", 35))
	c.Classify(context.Background(), event)

	batch := queues.Critical.Stats()
	assert.Equal(t, 1, batch.Occupancy)
	assert.Equal(t, 0, queues.Warning.Stats().Occupancy)
}

func TestClassify_YellowDwellNotYetReached_NoBreach(t *testing.T) {
	c, queues := newTestClassifier(t, time.Hour, 5*time.Second)

	c.Classify(context.Background(), newEvent("d1", reading("s1", 15)))
	assert.Equal(t, 0, queues.Warning.Stats().Occupancy)
}

func TestClassify_YellowDwellReached_EmitsOnce(t *testing.T) {
	c, queues := newTestClassifier(t, 5*time.Millisecond, time.Hour)

	c.Classify(context.Background(), newEvent("d1", reading("s1", 15)))
	time.Sleep(10 * time.Millisecond)
	c.Classify(context.Background(), newEvent("d1", reading("s1", 15)))

	assert.Equal(t, 1, queues.Warning.Stats().Occupancy)
}

func TestClassify_BelowYellow_ResetsBothLevels(t *testing.T) {
	c, queues := newTestClassifier(t, 5*time.Millisecond, 5*time.Millisecond)

	c.Classify(context.Background(), newEvent("d1", reading("s1", 15)))
	c.Classify(context.Background(), newEvent("d1", reading("s1", 5))) // below yellow: reset
	time.Sleep(10 * time.Millisecond)
	c.Classify(context.Background(), newEvent("d1", reading("s1", 5))) // still below: no breach

	assert.Equal(t, 0, queues.Warning.Stats().Occupancy)
}

func TestClassify_OrangeObservesOnlyOrange_NotYellow(t *testing.T) {
	c, queues := newTestClassifier(t, 5*time.Millisecond, time.Hour)

	// A single reading at orange tier must not also register as a sustained
	// yellow observation.
	c.Classify(context.Background(), newEvent("d1", reading("s1", 25)))
	time.Sleep(10 * time.Millisecond)
	c.Classify(context.Background(), newEvent("d1", reading("s1", 25)))

	assert.Equal(t, 0, queues.Warning.Stats().Occupancy)
}

func newEvent(deviceID string, readings ...model.Reading) model.NewReadingsEvent {
	return model.NewReadingsEvent{DeviceID: deviceID, Time: time.Now(), Readings: readings}
}

func reading(sensorID string, value float64) model.Reading {
	return model.Reading{SensorID: sensorID, Value: value, Timestamp: time.Now()}
}
