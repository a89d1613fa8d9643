package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/powerlink/internal/network"
)

// Summary renders a finished run: final node potentials, trips, errors
// and metrics.
func Summary(title string, result *network.Result) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(title) + "\n")

	if len(result.Potentials) > 0 {
		last := result.Potentials[len(result.Potentials)-1]
		for i, name := range result.Nodes {
			if i < len(last) {
				b.WriteString(MetricLabel.Render(name) + MetricValue.Render(fmt.Sprintf("%9.3f V", last[i])) + "\n")
			}
		}
	}

	b.WriteString(MetricLabel.Render("steps") + MetricValue.Render(fmt.Sprintf("%d", result.StepsTaken)) + "\n")

	for _, tr := range result.Trips {
		b.WriteString(StatusFault.Render(fmt.Sprintf("trip  t=%.3f  %s", tr.Time, tr.Link)) + "\n")
	}
	for _, err := range result.Errors {
		b.WriteString(StatusPaused.Render("error "+err.Error()) + "\n")
	}

	if len(result.Metrics) > 0 {
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString(Separator(40) + "\n")
		for _, name := range names {
			b.WriteString(MetricLabel.Render(name) + MetricValue.Render(fmt.Sprintf("%.4f", result.Metrics[name])) + "\n")
		}
	}

	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}
