package store

import "strings"

// filter accumulates WHERE conditions with positional args. Column
// names are always literals supplied by this package, never user input.
type filter struct {
	conds []string
	args  []any
}

func newFilter() *filter {
	return &filter{}
}

// eq adds an equality condition when value is non-empty.
func (f *filter) eq(column, value string) {
	if value == "" {
		return
	}
	f.conds = append(f.conds, column+" = ?")
	f.args = append(f.args, value)
}

// like adds a case-insensitive substring match when value is non-empty.
func (f *filter) like(column, value string) {
	if value == "" {
		return
	}
	f.conds = append(f.conds, column+" LIKE ? COLLATE NOCASE")
	f.args = append(f.args, "%"+value+"%")
}

// raw adds a prebuilt condition with its args.
func (f *filter) raw(cond string, args ...any) {
	f.conds = append(f.conds, cond)
	f.args = append(f.args, args...)
}

// where renders the accumulated conditions, or "" when there are none.
func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}
