package reader

// RowSource yields header-keyed rows one at a time.
type RowSource interface {
	Headers() ([]string, error)
	Next() (Record, error)
}

type Record struct {
	Line   int
	Fields map[string]string
}

// Value distinguishes an empty value from a column the row does not have.
func (r Record) Value(column string) (string, bool) {
	v, ok := r.Fields[column]
	return v, ok
}
