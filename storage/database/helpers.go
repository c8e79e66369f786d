package database

import (
	"strconv"

	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
)

// argN numbers a positional query argument.
func argN(n int) string { return strconv.Itoa(n) }

func pqStringArray(vals []string) interface{} { return pq.Array(vals) }

// nullStr maps an empty string to SQL NULL.
func nullStr(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}
