package storage

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/ident"
	"github.com/maruel/pcrm/internal/jsonldb"
)

// Op is a mutation kind reported to observers.
type Op string

// Mutations.
const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Observer is notified after every successful mutation.
type Observer interface {
	// RecordsChanged is called once the table file has been rewritten. Errors
	// are logged and never fail the mutation.
	RecordsChanged(table, path string, op Op, ids []int) error
}

// Repository is the CRUD contract over one table.
//
// Every operation reloads the whole table and every mutation rewrites it.
// Errors from the table store and the allocator are returned unchanged.
type Repository[T any] struct {
	table     *jsonldb.Table[T]
	ids       ident.Allocator
	fields    *fields[T]
	observers []Observer
}

// NewRepository creates a repository over table, assigning identifiers from ids.
func NewRepository[T any](table *jsonldb.Table[T], ids ident.Allocator) (*Repository[T], error) {
	f, err := fieldsOf[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{
		table:  table,
		ids:    ids,
		fields: f,
	}, nil
}

// Observe registers o to be notified of mutations.
func (r *Repository[T]) Observe(o Observer) {
	r.observers = append(r.observers, o)
}

// Name returns the table name.
func (r *Repository[T]) Name() string {
	return r.table.Name()
}

// Table returns the underlying table.
func (r *Repository[T]) Table() *jsonldb.Table[T] {
	return r.table
}

// ID returns the identifier of rec.
func (r *Repository[T]) ID(rec T) int {
	return r.fields.getID(&rec)
}

// Insert assigns a fresh identifier to rec, appends it and returns it.
//
// The identifier is persisted before the table is written; if the write fails
// the identifier is burnt and never reissued.
func (r *Repository[T]) Insert(rec T) (T, error) {
	var zero T
	rows, err := r.table.Read()
	if err != nil {
		return zero, err
	}
	id, err := r.ids.NextID(r.table.Name())
	if err != nil {
		return zero, err
	}
	r.fields.setID(&rec, id)
	rows = append(rows, rec)
	if err := r.table.Write(rows); err != nil {
		return zero, err
	}
	r.notify(OpInsert, []int{id})
	return rec, nil
}

// Read returns the record with the given identifier.
func (r *Repository[T]) Read(id int) (T, error) {
	var zero T
	rows, err := r.table.Read()
	if err != nil {
		return zero, err
	}
	matches := r.match(rows, id)
	if err := r.unique(id, len(matches)); err != nil {
		return zero, err
	}
	return rows[matches[0]], nil
}

// Update sets field to value on the record with the given identifier and
// returns the updated records.
//
// A field the record type does not have is silently ignored: the table is
// still rewritten and the returned slice is empty. This keeps commands working
// against data written by other versions of the schema.
func (r *Repository[T]) Update(id int, field string, value any) ([]T, error) {
	idx, known := r.fields.lookup(field)
	var v reflect.Value
	if known {
		if idx == r.fields.id {
			return nil, crmerrors.BadInput("the ID field cannot be updated")
		}
		var err error
		if v, err = coerce(field, value, r.fields.typ.Field(idx).Type); err != nil {
			return nil, err
		}
	}

	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	matches := r.match(rows, id)
	if err := r.unique(id, len(matches)); err != nil {
		return nil, err
	}
	updated := []T{}
	if known {
		for _, i := range matches {
			r.fields.set(&rows[i], idx, v)
			updated = append(updated, rows[i])
		}
	}
	if err := r.table.Write(rows); err != nil {
		return nil, err
	}
	if len(updated) > 0 {
		r.notify(OpUpdate, []int{id})
	}
	return updated, nil
}

// Delete removes the record with the given identifier and returns it.
func (r *Repository[T]) Delete(id int) ([]T, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	kept := make([]T, 0, len(rows))
	var deleted []T
	for i := range rows {
		if r.fields.getID(&rows[i]) == id {
			deleted = append(deleted, rows[i])
		} else {
			kept = append(kept, rows[i])
		}
	}
	if err := r.unique(id, len(deleted)); err != nil {
		return nil, err
	}
	if err := r.table.Write(kept); err != nil {
		return nil, err
	}
	r.notify(OpDelete, []int{id})
	return deleted, nil
}

// Filter returns the records whose fields equal all the given values.
//
// names[i] is compared with values[i]; every pair must match. An empty filter
// returns the whole table. No match is a NOT_FOUND error, which callers
// listing records treat as an empty result.
func (r *Repository[T]) Filter(names []string, values []any) ([]T, error) {
	if len(names) != len(values) {
		return nil, crmerrors.BadInput(fmt.Sprintf("%d filter fields but %d values", len(names), len(values)))
	}
	type pred struct {
		idx  int
		want reflect.Value
	}
	preds := make([]pred, 0, len(names))
	impossible := false
	for i, name := range names {
		idx, ok := r.fields.lookup(name)
		if !ok {
			impossible = true
			continue
		}
		want, err := coerce(name, values[i], r.fields.typ.Field(idx).Type)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred{idx, want})
	}

	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	result := rows
	if impossible {
		result = nil
	}
	for _, p := range preds {
		next := make([]T, 0, len(result))
		for i := range result {
			if equal(r.fields.get(&result[i], p.idx), p.want) {
				next = append(next, result[i])
			}
		}
		result = next
	}
	if len(result) == 0 {
		return nil, crmerrors.NotFound(describe(r.table.Name(), names, values))
	}
	return result, nil
}

// All returns every record, possibly none.
func (r *Repository[T]) All() ([]T, error) {
	return r.table.Read()
}

func (r *Repository[T]) match(rows []T, id int) []int {
	var out []int
	for i := range rows {
		if r.fields.getID(&rows[i]) == id {
			out = append(out, i)
		}
	}
	return out
}

func (r *Repository[T]) unique(id, n int) error {
	switch {
	case n == 0:
		return crmerrors.NotFound(fmt.Sprintf("%s %d", r.table.Name(), id))
	case n > 1:
		return crmerrors.Duplicate(fmt.Sprintf("%s %d", r.table.Name(), id))
	default:
		return nil
	}
}

func (r *Repository[T]) notify(op Op, ids []int) {
	for _, o := range r.observers {
		if err := o.RecordsChanged(r.table.Name(), r.table.Path(), op, ids); err != nil {
			slog.Warn("observer failed", "table", r.table.Name(), "op", op, "err", err)
		}
	}
}

func describe(table string, names []string, values []any) string {
	if len(names) == 0 {
		return table + " records"
	}
	parts := make([]string, len(names))
	for i := range names {
		parts[i] = fmt.Sprintf("%s=%v", names[i], values[i])
	}
	return fmt.Sprintf("%s with %s", table, strings.Join(parts, ", "))
}
