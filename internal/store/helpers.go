package store

import (
	"encoding/json"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// kindsToArgs converts []EdgeKind to []any for use with database/sql.
func kindsToArgs(kinds []EdgeKind) []any {
	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}
	return args
}

// marshalProps converts a property bag to JSON text for storage.
func marshalProps(props map[string]any) string {
	if len(props) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(props)
	return string(b)
}

// unmarshalProps converts JSON text back to a property bag.
func unmarshalProps(s string) map[string]any {
	if s == "" || s == "null" || s == "{}" {
		return nil
	}
	var props map[string]any
	_ = json.Unmarshal([]byte(s), &props)
	return props
}

// edgeKindFilter renders an optional "AND e.kind IN (...)" clause for the
// given alias. Empty kinds means no restriction.
func edgeKindFilter(alias string, kinds []EdgeKind) (string, []any) {
	if len(kinds) == 0 {
		return "", nil
	}
	return " AND " + alias + ".kind IN (" + placeholderList(len(kinds)) + ")", kindsToArgs(kinds)
}
