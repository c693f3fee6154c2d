package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Handler exposes the counters in Prometheus' text exposition format as a
// single counter metric with an `event` label.
func Handler(m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		snap := m.Snapshot()
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = fmt.Fprintln(w, "# HELP signaling_events_total Signaling event counters.")
		_, _ = fmt.Fprintln(w, "# TYPE signaling_events_total counter")
		for _, k := range keys {
			escaped := strings.NewReplacer("\\", "\\\\", "\"", "\\\"").Replace(k)
			_, _ = fmt.Fprintf(w, "signaling_events_total{event=\"%s\"} %d\n", escaped, snap[k])
		}
	})
}
