package pipeline

import (
	"fmt"
	"strings"

	"mlsync/internal"
	"mlsync/internal/util"
)

// cellRaw returns the raw value of the first candidate column whose value is
// present and non-empty. Several logical fields are reachable through more
// than one header name depending on which export produced the sheet.
func cellRaw(row internal.Row, candidates ...string) any {
	for _, key := range candidates {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			if strings.TrimSpace(s) == "" {
				continue
			}
		}
		return v
	}
	return nil
}

func cellString(row internal.Row, candidates ...string) string {
	v := cellRaw(row, candidates...)
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func cellNumber(row internal.Row, candidates ...string) float64 {
	return util.ParseNumber(cellRaw(row, candidates...))
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
