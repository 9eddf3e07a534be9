package fireworks

import (
	"fmt"
	"strings"
)

// Log categories written by the engine.
const (
	LogShow      = "show"
	LogSpawn     = "spawn"
	LogExplosion = "explosion"
	LogRemove    = "remove"
	LogLoop      = "loop"
	LogFrame     = "frame"
)

// ShowLogEntry is one recorded engine event.
type ShowLogEntry struct {
	Frame    int
	Category string  // show, spawn, explosion, remove, loop, frame
	Key      string  // event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[F=042] explosion circle          fragments=100 at (640.0,212.4)
func (e ShowLogEntry) String() string {
	return fmt.Sprintf("[F=%03d] %-9s %-16s %s", e.Frame, e.Category, e.Key, e.Value)
}

// ShowLog collects structured events for one show. It is unbounded and
// machine-readable; the overlay ticker is the bounded on-screen view.
type ShowLog struct {
	entries []ShowLogEntry
	verbose bool
}

// NewShowLog creates a ShowLog. Verbose logs also receive per-frame and
// per-particle entries.
func NewShowLog(verbose bool) *ShowLog {
	return &ShowLog{verbose: verbose}
}

// Add records a new entry.
func (sl *ShowLog) Add(frame int, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, ShowLogEntry{
		Frame:    frame,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *ShowLog) AddVerbose(frame int, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(frame, category, key, value, numVal)
}

// Verbose reports whether per-frame entries are recorded.
func (sl *ShowLog) Verbose() bool {
	return sl.verbose
}

// Entries returns all recorded entries.
func (sl *ShowLog) Entries() []ShowLogEntry {
	return sl.entries
}

// Filter returns entries matching category and key; empty matches anything.
func (sl *ShowLog) Filter(category, key string) []ShowLogEntry {
	var out []ShowLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterFrameRange returns entries within [from, to] inclusive.
func (sl *ShowLog) FilterFrameRange(from, to int) []ShowLogEntry {
	var out []ShowLogEntry
	for _, e := range sl.entries {
		if e.Frame >= from && e.Frame <= to {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match category and key.
func (sl *ShowLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// FirstOf returns the earliest entry matching category+key.
func (sl *ShowLog) FirstOf(category, key string) (ShowLogEntry, bool) {
	for _, e := range sl.entries {
		if e.Category == category && (key == "" || e.Key == key) {
			return e, true
		}
	}
	return ShowLogEntry{}, false
}

// LastOf returns the most recent entry matching category+key.
func (sl *ShowLog) LastOf(category, key string) (ShowLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return ShowLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry reports whether an entry matches category, key and value substring.
func (sl *ShowLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log, one entry per line.
func (sl *ShowLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns the log restricted to a frame range.
func (sl *ShowLog) FormatRange(from, to int) string {
	var sb strings.Builder
	for _, e := range sl.FilterFrameRange(from, to) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
