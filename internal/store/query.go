package store

import "gorm.io/gorm"

// DefaultLimit and MaxLimit bound page sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 200
)

type condition struct {
	expr string
	args []any
}

// Query describes filters, ordering, pagination and eager loads. It is an immutable
// value: every builder method returns a modified copy, and nothing runs until a
// repository materializes it.
type Query struct {
	conds   []condition
	order   []string
	preload []string
	offset  int
	limit   int
}

// Where adds a filter, e.g. Where("status = ?", "Open").
func (q Query) Where(expr string, args ...any) Query {
	q.conds = append(append([]condition(nil), q.conds...), condition{expr: expr, args: args})
	return q
}

// WhereIf adds the filter only when ok is true.
func (q Query) WhereIf(ok bool, expr string, args ...any) Query {
	if !ok {
		return q
	}
	return q.Where(expr, args...)
}

// OrderBy appends an ORDER BY term such as "created_at DESC".
func (q Query) OrderBy(term string) Query {
	q.order = append(append([]string(nil), q.order...), term)
	return q
}

// Preload eagerly loads the named associations.
func (q Query) Preload(names ...string) Query {
	q.preload = append(append([]string(nil), q.preload...), names...)
	return q
}

// Limit caps the number of results. Values above MaxLimit are clamped.
func (q Query) Limit(n int) Query {
	if n > MaxLimit {
		n = MaxLimit
	}
	q.limit = n
	return q
}

// Offset skips the first n results.
func (q Query) Offset(n int) Query {
	if n < 0 {
		n = 0
	}
	q.offset = n
	return q
}

// Paginate selects 1-based page of size limit; non-positive values take defaults.
func (q Query) Paginate(page, limit int) Query {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	q = q.Limit(limit)
	return q.Offset((page - 1) * q.limit)
}

// Apply adds only q's filters to db, for bulk updates and deletes.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	return q.apply(db, false)
}

func (q Query) apply(db *gorm.DB, full bool) *gorm.DB {
	for _, c := range q.conds {
		db = db.Where(c.expr, c.args...)
	}
	if !full {
		return db
	}
	for _, o := range q.order {
		db = db.Order(o)
	}
	for _, p := range q.preload {
		db = db.Preload(p)
	}
	if q.offset > 0 {
		db = db.Offset(q.offset)
	}
	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	return db
}
