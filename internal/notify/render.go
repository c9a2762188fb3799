package notify

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/klvinai/sentinelsuite/internal/model"
)

// renderSubject composes the fixed-format subject line.
func renderSubject(breaches []*model.Breach) string {
	return fmt.Sprintf("[Threshold Breach Alert] %d breach(es) detected.", len(breaches))
}

// renderBody builds a deterministic HTML table. Rows are sorted
// lexicographically by (timestamp, factory_name, zone_name, device_id,
// sensor_id) — the sort must be stable across calls so two invocations on
// the same multiset produce byte-identical output.
func renderBody(breaches []*model.Breach) string {
	sorted := make([]*model.Breach, len(breaches))
	copy(sorted, breaches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.FactoryName != b.FactoryName {
			return a.FactoryName < b.FactoryName
		}
		if a.ZoneName != b.ZoneName {
			return a.ZoneName < b.ZoneName
		}
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		return a.SensorID < b.SensorID
	})

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">")
	sb.WriteString("<tr><th>Timestamp</th><th>Factory</th><th>Zone</th><th>Machine</th>" +
		"<th>Device</th><th>Sensor</th><th>Type</th><th>Value</th><th>Threshold</th><th>Severity</th></tr>")

	for _, b := range sorted {
		sb.WriteString("<tr>")
		sb.WriteString("<td>" + html.EscapeString(b.Timestamp.Format("2006-01-02 15:04:05")) + "</td>")
		sb.WriteString("<td>" + html.EscapeString(b.FactoryName) + "</td>")
		sb.WriteString("<td>" + html.EscapeString(b.ZoneName) + "</td>")
		sb.WriteString("<td>" + html.EscapeString(b.MachineName) + "</td>")
		sb.WriteString("<td>" + html.EscapeString(b.DeviceID) + "</td>")
		sb.WriteString("<td>" + html.EscapeString(b.SensorID) + "</td>")
		sb.WriteString("<td>" + html.EscapeString(b.SensorType) + "</td>")
		sb.WriteString(fmt.Sprintf("<td>%.2f</td>", b.SensorValue))
		sb.WriteString(fmt.Sprintf("<td>%.2f</td>", b.ThresholdValue))
		sb.WriteString("<td>" + html.EscapeString(strings.ToUpper(b.Severity.String())) + "</td>")
		sb.WriteString("</tr>")
	}

	sb.WriteString("</table></body></html>")
	return sb.String()
}
