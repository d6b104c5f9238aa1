package logger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// buildLogEntry wraps one log line in the Loki push format.
func buildLogEntry(job, level, message string, attrs []slog.Attr) map[string]any {
	now := time.Now()
	return map[string]any{
		"streams": []map[string]any{
			{
				"stream": map[string]string{
					"level": level,
					"job":   job,
				},
				"values": [][]string{
					{
						fmt.Sprintf("%d", now.UnixNano()),
						buildLogLine(now, level, message, attrs),
					},
				},
			},
		},
	}
}

func buildLogLine(now time.Time, level, message string, attrs []slog.Attr) string {
	logData := map[string]any{
		"level":   level,
		"message": message,
		"time":    now.Format(time.RFC3339),
	}
	for _, attr := range attrs {
		logData[attr.Key] = attr.Value.Any()
	}

	jsonBytes, _ := json.Marshal(logData)
	return string(jsonBytes)
}
