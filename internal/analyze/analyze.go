// Package analyze computes aggregate statistics, grouping, filtering,
// and time-windowed trends over a slice of dispatched parse results.
// The `cascade stats` command uses ComputeSummary; `cascade search`
// filters with its own matcher and does not use this package.
package analyze

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/solwick/cascade/internal/event"
)

// Summary holds aggregate statistics for a set of events.
type Summary struct {
	TotalLines  int                   `json:"total_lines"`
	LevelCounts map[event.Level]int   `json:"level_counts"`
	FirstEntry  time.Time             `json:"first_entry,omitempty"`
	LastEntry   time.Time             `json:"last_entry,omitempty"`
	TopMessages []MessageCount        `json:"top_messages,omitempty"`
	ErrorRate   float64               `json:"error_rate"`
	FormatCounts map[string]int       `json:"format_counts,omitempty"`
}

// MessageCount tracks a message and how often it appears.
type MessageCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// GroupedResult represents events grouped by a field value.
type GroupedResult struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// TimeWindowStats holds statistics for one fixed-width time window.
type TimeWindowStats struct {
	Start         time.Time           `json:"start"`
	End           time.Time           `json:"end"`
	Count         int                 `json:"count"`
	LevelCounts   map[event.Level]int `json:"level_counts"`
	ErrorCount    int                 `json:"error_count"`
	ErrorPercent  float64             `json:"error_percent"`
	ChangePercent float64             `json:"change_percent"`
}

// ComputeSummary calculates aggregate statistics from a set of
// results, keeping the topN most frequent messages.
func ComputeSummary(results []event.ParseResult, topN int) Summary {
	s := Summary{
		TotalLines:   len(results),
		LevelCounts:  make(map[event.Level]int),
		FormatCounts: make(map[string]int),
	}

	if len(results) == 0 {
		return s
	}

	messageCounts := make(map[string]int)

	for _, r := range results {
		e := r.Event
		s.LevelCounts[e.Level]++
		s.FormatCounts[e.FormatType.String()]++

		if e.Timestamp != nil {
			if s.FirstEntry.IsZero() || e.Timestamp.Before(s.FirstEntry) {
				s.FirstEntry = *e.Timestamp
			}
			if s.LastEntry.IsZero() || e.Timestamp.After(s.LastEntry) {
				s.LastEntry = *e.Timestamp
			}
		}

		messageCounts[e.Message]++
	}

	errorCount := s.LevelCounts[event.LevelError] + s.LevelCounts[event.LevelFatal]
	if s.TotalLines > 0 {
		s.ErrorRate = float64(errorCount) / float64(s.TotalLines)
	}

	s.TopMessages = topMessages(messageCounts, topN)
	return s
}

// FilterOptions defines the criteria Filter matches results against.
type FilterOptions struct {
	Pattern    string
	MinLevel   event.Level
	Since      time.Time
	Until      time.Time
	Invert     bool
	ExactLevel bool
}

// Filter returns the subset of results matching opts.
func Filter(results []event.ParseResult, opts FilterOptions) []event.ParseResult {
	var out []event.ParseResult

	var re *regexp.Regexp
	if opts.Pattern != "" {
		re, _ = regexp.Compile(opts.Pattern)
	}

	for _, r := range results {
		e := r.Event
		if opts.MinLevel != event.LevelUnknown {
			if opts.ExactLevel {
				if e.Level != opts.MinLevel {
					continue
				}
			} else if e.Level < opts.MinLevel {
				continue
			}
		}

		if !opts.Since.IsZero() && e.Timestamp != nil && e.Timestamp.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && e.Timestamp != nil && e.Timestamp.After(opts.Until) {
			continue
		}

		if re != nil {
			matched := re.MatchString(e.Raw)
			if opts.Invert {
				matched = !matched
			}
			if !matched {
				continue
			}
		}

		out = append(out, r)
	}

	return out
}

func topMessages(counts map[string]int, n int) []MessageCount {
	msgs := make([]MessageCount, 0, len(counts))
	for msg, count := range counts {
		msgs = append(msgs, MessageCount{Message: msg, Count: count})
	}

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Count > msgs[j].Count })

	if n > 0 && len(msgs) > n {
		msgs = msgs[:n]
	}

	return msgs
}

// GroupBy groups results by a field ("level", "message", or "source")
// and returns the topN largest groups, sorted descending by count.
func GroupBy(results []event.ParseResult, field string, topN int) ([]GroupedResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	groups := make(map[string]int)

	for _, r := range results {
		e := r.Event
		var key string
		switch field {
		case "level":
			key = e.Level.String()
		case "message":
			key = e.Message
		case "source":
			key = e.Source.File
			if key == "" {
				key = "(unknown)"
			}
		default:
			return nil, fmt.Errorf("unsupported group-by field: %s (must be 'level', 'message', or 'source')", field)
		}

		groups[key]++
	}

	result := make([]GroupedResult, 0, len(groups))
	total := len(results)
	for key, count := range groups {
		result = append(result, GroupedResult{
			Key:     key,
			Count:   count,
			Percent: float64(count) * 100 / float64(total),
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Count > result[j].Count })

	if topN > 0 && len(result) > topN {
		result = result[:topN]
	}

	return result, nil
}

// ByWindow splits results into fixed-width time windows and computes
// per-window counts, error rates, and the change from the prior window.
func ByWindow(results []event.ParseResult, window time.Duration) []TimeWindowStats {
	if len(results) == 0 || window <= 0 {
		return nil
	}

	var minTime, maxTime time.Time
	for _, r := range results {
		if r.Event.Timestamp == nil {
			continue
		}
		t := *r.Event.Timestamp
		if minTime.IsZero() || t.Before(minTime) {
			minTime = t
		}
		if maxTime.IsZero() || t.After(maxTime) {
			maxTime = t
		}
	}

	if minTime.IsZero() || maxTime.IsZero() {
		return nil
	}

	windowStart := minTime.Truncate(window)
	var windows []TimeWindowStats

	for current := windowStart; !current.After(maxTime); current = current.Add(window) {
		windows = append(windows, TimeWindowStats{
			Start:       current,
			End:         current.Add(window),
			LevelCounts: make(map[event.Level]int),
		})
	}

	for _, r := range results {
		if r.Event.Timestamp == nil {
			continue
		}
		idx := int(r.Event.Timestamp.Sub(windowStart) / window)
		if idx < 0 || idx >= len(windows) {
			continue
		}
		windows[idx].Count++
		windows[idx].LevelCounts[r.Event.Level]++
		if r.Event.Level >= event.LevelError {
			windows[idx].ErrorCount++
		}
	}

	for i := range windows {
		if windows[i].Count > 0 {
			windows[i].ErrorPercent = float64(windows[i].ErrorCount) * 100 / float64(windows[i].Count)
		}
		if i > 0 && windows[i-1].Count > 0 {
			windows[i].ChangePercent = float64(windows[i].Count-windows[i-1].Count) * 100 / float64(windows[i-1].Count)
		}
	}

	return windows
}
