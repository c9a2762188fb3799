package ingress

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/klvinai/sentinelsuite/internal/model"
)

// wireReading mirrors the publisher's reading shape. sensor_type is
// optional on the wire; value is usually a JSON number but numeric strings
// are tolerated too, so it is decoded permissively.
type wireReading struct {
	SensorID   string          `json:"sensor_id"`
	SensorType string          `json:"sensor_type"`
	Value      json.RawMessage `json:"value"`
}

// wireEvent mirrors the published readings-event payload:
//
//	{ "device_id": string, "time": string-or-int, "readings": Reading | [Reading, ...] }
type wireEvent struct {
	DeviceID string          `json:"device_id"`
	Time     json.RawMessage `json:"time"`
	Readings json.RawMessage `json:"readings"`
}

// parseEvent decodes and validates one ingress payload. Any structural or
// type problem is reported as a single error so the caller can log-and-drop.
func parseEvent(raw []byte) (model.NewReadingsEvent, error) {
	var we wireEvent
	if err := json.Unmarshal(raw, &we); err != nil {
		return model.NewReadingsEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if we.DeviceID == "" {
		return model.NewReadingsEvent{}, fmt.Errorf("event missing device_id")
	}

	ts, err := parseTime(we.Time)
	if err != nil {
		return model.NewReadingsEvent{}, fmt.Errorf("event time: %w", err)
	}

	readings, err := parseReadings(we.Readings, ts)
	if err != nil {
		return model.NewReadingsEvent{}, fmt.Errorf("event readings: %w", err)
	}
	if len(readings) == 0 {
		return model.NewReadingsEvent{}, fmt.Errorf("event has no readings")
	}

	return model.NewReadingsEvent{DeviceID: we.DeviceID, Time: ts, Readings: readings}, nil
}

// parseTime accepts either an RFC3339 string or a Unix-epoch integer.
func parseTime(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Now(), nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		t, err := time.Parse(time.RFC3339, asString)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time string %q: %w", asString, err)
		}
		return t, nil
	}

	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return time.Unix(asInt, 0), nil
	}

	return time.Time{}, fmt.Errorf("time field is neither a string nor an integer")
}

// parseReadings accepts either a single reading object or an array.
func parseReadings(raw json.RawMessage, ts time.Time) ([]model.Reading, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing readings field")
	}

	var list []wireReading
	if err := json.Unmarshal(raw, &list); err != nil {
		var single wireReading
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("readings is neither an object nor an array: %w", err)
		}
		list = []wireReading{single}
	}

	readings := make([]model.Reading, 0, len(list))
	for _, wr := range list {
		value, err := parseValue(wr.Value)
		if err != nil {
			// A non-numeric value is skipped, not a reason to drop the
			// whole event.
			continue
		}
		readings = append(readings, model.Reading{
			SensorID:   wr.SensorID,
			SensorType: wr.SensorType,
			Value:      value,
			Timestamp:  ts,
		})
	}
	return readings, nil
}

func parseValue(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("value is not numeric")
}
