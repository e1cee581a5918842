package postgres

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// stringArray adapts a Go []string to Postgres's text[] wire format without
// pulling in lib/pq purely for array binding; the pgx/v5 stdlib driver
// already used for every other query here returns array columns as their
// literal "{a,b,c}" text representation when scanned through database/sql,
// which this type parses and serializes.
type stringArray []string

func (a *stringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("stringArray: unsupported scan type %T", src)
	}
	*a = parsePGTextArray(s)
	return nil
}

func (a stringArray) Value() (driver.Value, error) {
	return encodePGTextArray(a), nil
}

func parsePGTextArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "{}" {
		return []string{}
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, `"`)
		p = strings.TrimSuffix(p, `"`)
		out = append(out, p)
	}
	return out
}

func encodePGTextArray(items []string) string {
	quoted := make([]string, len(items))
	for i, v := range items {
		escaped := strings.ReplaceAll(v, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		quoted[i] = `"` + escaped + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
