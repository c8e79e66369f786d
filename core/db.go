package core

import "strings"

// DBOrdering is one ORDER BY term.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderBy renders an ORDER BY clause, leading space included, from the
// given terms; no terms yields an empty string.
func OrderBy(orderings ...DBOrdering) string {
	if len(orderings) == 0 {
		return ""
	}
	parts := make([]string, len(orderings))
	for i, ord := range orderings {
		parts[i] = ord.String()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
