package season

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type historyEntry struct {
	name string
	date time.Time
}

type history struct {
	asOf    time.Time
	entries []historyEntry
}

// parseHistory keeps the usable entries in name order and reports the rest.
func parseHistory(raw map[string]LastApplied, asOf time.Time) (history, []HistoryIssue) {
	h := history{asOf: asOf}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []HistoryIssue
	for _, name := range names {
		value := strings.TrimSpace(raw[name].Date)
		if value == "" || strings.TrimSpace(name) == "" {
			continue
		}
		d, err := time.Parse(dateLayout, value)
		if err != nil {
			issues = append(issues, HistoryIssue{
				Chemical: name,
				Value:    value,
				Reason:   ReasonInvalidDate,
				Message:  fmt.Sprintf("Last application date %q for %s is not a YYYY-MM-DD date; treating as never applied", value, name),
			})
			continue
		}
		h.entries = append(h.entries, historyEntry{name: strings.ToLower(name), date: d})
	}
	return h, issues
}

// appliedWithin reports whether any entry whose name contains chemical, or is
// contained by it, was applied no more than days ago.
func (h history) appliedWithin(chemical string, days int) bool {
	needle := strings.ToLower(chemical)
	for _, e := range h.entries {
		if !strings.Contains(e.name, needle) && !strings.Contains(needle, e.name) {
			continue
		}
		if daysBetween(e.date, h.asOf) <= days {
			return true
		}
	}
	return false
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
