package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Entry is one decoded JSON log record.
type Entry struct {
	Time      string
	Level     string
	Message   string
	Component string
	RunID     string
	Stage     string
	Fields    map[string]any
}

// Filter selects entries. Empty fields match everything.
type Filter struct {
	RunID     string
	Component string
	// MinLevel drops entries below debug/info/warn/error.
	MinLevel string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(e.Component, f.Component) {
		return false
	}
	if floor, ok := levelRank[strings.ToLower(f.MinLevel)]; ok {
		if levelRank[e.Level] < floor {
			return false
		}
	}
	return true
}

// ParseEntry decodes a line written by the JSON log handler. Lines that are
// not JSON objects return an error.
func ParseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("decode log line: %w", err)
	}
	e := Entry{Fields: make(map[string]any)}
	for key, value := range raw {
		text, _ := value.(string)
		switch key {
		case "ts":
			e.Time = text
		case "level":
			e.Level = strings.ToLower(text)
		case "msg":
			e.Message = text
		case "component":
			e.Component = text
		case "run_id":
			e.RunID = text
		case "stage":
			e.Stage = text
		default:
			e.Fields[key] = value
		}
	}
	return e, nil
}

// Format renders an entry on one line with fields sorted by key.
func (e Entry) Format() string {
	var b strings.Builder
	b.WriteString(e.Time)
	b.WriteString(" ")
	b.WriteString(strings.ToUpper(e.Level))
	if e.Component != "" {
		b.WriteString(" [" + e.Component + "]")
	}
	b.WriteString(" " + e.Message)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}
