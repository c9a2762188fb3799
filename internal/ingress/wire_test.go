package ingress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_SingleReading(t *testing.T) {
	raw := []byte(`{"device_id":"d1","time":"2026-01-01T00:00:00Z","readings":{"sensor_id":"s1","sensor_type":"temp","value":42.5}}`)

	event, err := parseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "d1", event.DeviceID)
	require.Len(t, event.Readings, 1)
	assert.Equal(t, 42.5, event.Readings[0].Value)
}

func TestParseEvent_ReadingsArray(t *testing.T) {
	raw := []byte(`{"device_id":"d1","time":1700000000,"readings":[{"sensor_id":"s1","value":1},{"sensor_id":"s2","value":2}]}`)

	event, err := parseEvent(raw)
	require.NoError(t, err)
	assert.Len(t, event.Readings, 2)
}

func TestParseEvent_MissingDeviceID_Errors(t *testing.T) {
	raw := []byte(`{"time":"2026-01-01T00:00:00Z","readings":{"sensor_id":"s1","value":1}}`)
	_, err := parseEvent(raw)
	assert.Error(t, err)
}

func TestParseEvent_NonNumericValue_SkipsReadingNotEvent(t *testing.T) {
	raw := []byte(`{"device_id":"d1","time":"2026-01-01T00:00:00Z","readings":[{"sensor_id":"s1","value":"not-a-number"},{"sensor_id":"s2","value":5}]}`)

	event, err := parseEvent(raw)
	require.NoError(t, err)
	require.Len(t, event.Readings, 1)
	assert.Equal(t, "s2", event.Readings[0].SensorID)
}

func TestParseEvent_MalformedJSON_Errors(t *testing.T) {
	_, err := parseEvent([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseEvent_NumericStringValue(t *testing.T) {
	raw := []byte(`{"device_id":"d1","time":"2026-01-01T00:00:00Z","readings":{"sensor_id":"s1","value":"17.3"}}`)

	event, err := parseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, 17.3, event.Readings[0].Value)
}
