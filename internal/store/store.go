// Package store is the persistence gateway: a typed repository over gorm that
// translates store errors into the apperr taxonomy.
package store

import (
	"context"
	"errors"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides CRUD and query composition for entity type T.
type Repository[T any] struct {
	db *gorm.DB
}

// New returns a repository bound to db, which may be a transaction.
func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// DB exposes the underlying handle for queries the repository does not cover.
func (r *Repository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Create inserts e. The identifier is assigned by the entity's BeforeCreate hook.
// Associations are not written.
func (r *Repository[T]) Create(ctx context.Context, e *T) error {
	return apperr.FromDB(r.DB(ctx).Omit(clause.Associations).Create(e).Error)
}

// Find loads the entity with id and the named associations.
// It returns apperr.ErrNotFound when no row matches.
func (r *Repository[T]) Find(ctx context.Context, id string, preload ...string) (*T, error) {
	q := r.DB(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	var e T
	if err := q.Where("id = ?", id).First(&e).Error; err != nil {
		return nil, apperr.FromDB(err)
	}
	return &e, nil
}

// Update replaces every column of e's row, zero values included. Concurrent updates
// are last-write-wins.
func (r *Repository[T]) Update(ctx context.Context, e *T) error {
	res := r.DB(ctx).Model(e).Select("*").Omit(clause.Associations, "created_at").Updates(e)
	if res.Error != nil {
		return apperr.FromDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// UpdateFields sets only the given columns on the row with id.
func (r *Repository[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	res := r.DB(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.FromDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete physically removes the row with id. Dependent rows follow the foreign key
// rules of the schema (cascade or set null).
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	res := r.DB(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return apperr.FromDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// List returns the entities matching q.
func (r *Repository[T]) List(ctx context.Context, q Query) ([]T, error) {
	var out []T
	if err := q.apply(r.DB(ctx).Model(new(T)), true).Find(&out).Error; err != nil {
		return nil, apperr.FromDB(err)
	}
	return out, nil
}

// First returns the first entity matching q, or apperr.ErrNotFound.
func (r *Repository[T]) First(ctx context.Context, q Query) (*T, error) {
	var e T
	if err := q.apply(r.DB(ctx).Model(new(T)), true).Limit(1).Take(&e).Error; err != nil {
		return nil, apperr.FromDB(err)
	}
	return &e, nil
}

// Count returns the number of rows matching q's filters.
func (r *Repository[T]) Count(ctx context.Context, q Query) (int64, error) {
	var n int64
	if err := q.apply(r.DB(ctx).Model(new(T)), false).Count(&n).Error; err != nil {
		return 0, apperr.FromDB(err)
	}
	return n, nil
}

// Exists reports whether a row with id exists.
func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.Count(ctx, Query{}.Where("id = ?", id))
	return n > 0, err
}

// Page returns one page of q together with the total number of matches.
func (r *Repository[T]) Page(ctx context.Context, q Query) ([]T, int64, error) {
	total, err := r.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Sum returns the sum of expr over the rows matching q. Empty sets sum to 0.
func (r *Repository[T]) Sum(ctx context.Context, expr string, q Query) (float64, error) {
	var total float64
	err := q.apply(r.DB(ctx).Model(new(T)), false).Select("COALESCE(SUM(" + expr + "), 0)").Scan(&total).Error
	if err != nil {
		return 0, apperr.FromDB(err)
	}
	return total, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

// CountBy groups the rows matching q by column and counts each group.
func (r *Repository[T]) CountBy(ctx context.Context, column string, q Query) (map[string]int64, error) {
	var rows []groupCount
	err := q.apply(r.DB(ctx).Model(new(T)), false).
		Select(column + " AS group_key, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.GroupKey] = row.Total
	}
	return out, nil
}

// Transaction runs fn in a database transaction bound to ctx. Any error rolls back.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
