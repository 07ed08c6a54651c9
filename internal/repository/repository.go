package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

// Entity is any persisted type with a string primary key.
type Entity interface {
	EntityID() string
}

// Descriptor wires one entity type to its table and lifecycle capabilities.
// Disable is the per-type soft-delete strategy: it flips the entity's status
// to its disabled state. A type without a Disable strategy cannot be
// soft-deleted and SoftStatusTransition rejects it outright; there is no
// fallback to a destructive hard delete.
type Descriptor[T Entity] struct {
	Table   string
	Columns []string // column order used for selects, inserts and updates; "id" included
	SetID   func(*T, string)
	Disable func(*T)
}

// Store is the persistence contract one aggregate type sees.
type Store[T Entity] interface {
	GetByID(ctx context.Context, id string) (*T, error)
	GetAll(ctx context.Context, pred *Predicate) ([]T, error)
	FilterBy(ctx context.Context, pred *Predicate) ([]T, error)
	List(ctx context.Context, pred *Predicate, page, pageSize int, orderBy string) ([]T, int, error)
	Insert(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) error
	SoftStatusTransition(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
	Exists(ctx context.Context, pred *Predicate) (bool, error)
	Count(ctx context.Context, pred *Predicate) (int, error)
}

// Repository is the generic sqlx-backed Store implementation. Instances are
// obtained from a unit of work, share its transaction scope and pending
// change set, and see their own staged writes before the flush. Not safe for
// concurrent use.
type Repository[T Entity] struct {
	uow    *sqlUnitOfWork
	desc   Descriptor[T]
	staged map[string]*T
}

func newRepository[T Entity](uow *sqlUnitOfWork, desc Descriptor[T]) *Repository[T] {
	return &Repository[T]{uow: uow, desc: desc, staged: make(map[string]*T)}
}

func (r *Repository[T]) columnList() string {
	return strings.Join(r.desc.Columns, ", ")
}

func (r *Repository[T]) insertQuery() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		r.desc.Table, r.columnList(), strings.Join(r.desc.Columns, ", :"))
}

func (r *Repository[T]) updateQuery() string {
	sets := make([]string, 0, len(r.desc.Columns))
	for _, c := range r.desc.Columns {
		if c == "id" {
			continue
		}
		sets = append(sets, c+" = :"+c)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", r.desc.Table, strings.Join(sets, ", "))
}

// GetByID returns the entity or nil when absent. Staged rows from this unit
// of work are visible before they are flushed.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if err := r.uow.ready(); err != nil {
		return nil, err
	}
	if e, ok := r.staged[id]; ok {
		return e, nil
	}
	query := r.uow.rebind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", r.columnList(), r.desc.Table))
	var out T
	if err := sqlx.GetContext(ctx, r.uow.queryer(), &out, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "load "+r.desc.Table)
	}
	return &out, nil
}

// GetAll returns every row matching pred; a nil predicate returns all rows.
func (r *Repository[T]) GetAll(ctx context.Context, pred *Predicate) ([]T, error) {
	if err := r.uow.ready(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s", r.columnList(), r.desc.Table)
	expr, args := pred.SQL()
	if expr != "" {
		query += " WHERE " + expr
	}
	var out []T
	if err := sqlx.SelectContext(ctx, r.uow.queryer(), &out, r.uow.rebind(query), args...); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "query "+r.desc.Table)
	}
	return out, nil
}

// FilterBy is a named convenience for GetAll.
func (r *Repository[T]) FilterBy(ctx context.Context, pred *Predicate) ([]T, error) {
	return r.GetAll(ctx, pred)
}

// List returns one page of matching rows plus the total match count.
func (r *Repository[T]) List(ctx context.Context, pred *Predicate, page, pageSize int, orderBy string) ([]T, int, error) {
	if err := r.uow.ready(); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if orderBy == "" {
		orderBy = "created_at DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM %s", r.columnList(), r.desc.Table)
	expr, args := pred.SQL()
	if expr != "" {
		query += " WHERE " + expr
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", orderBy, pageSize, (page-1)*pageSize)

	var out []T
	if err := sqlx.SelectContext(ctx, r.uow.queryer(), &out, r.uow.rebind(query), args...); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "list "+r.desc.Table)
	}
	total, err := r.Count(ctx, pred)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Insert stages a new row in the unit of work's pending change set. The row
// is persisted on the next SaveChanges.
func (r *Repository[T]) Insert(ctx context.Context, entity *T) (*T, error) {
	if err := r.uow.ready(); err != nil {
		return nil, err
	}
	if (*entity).EntityID() == "" {
		if r.desc.SetID == nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, r.desc.Table+" cannot assign ids")
		}
		r.desc.SetID(entity, uuid.NewString())
	}
	r.uow.stage(pendingOp{query: r.insertQuery(), arg: entity})
	r.staged[(*entity).EntityID()] = entity
	return entity, nil
}

// Update stages a full-row overwrite of an already-loaded entity. There is
// no partial-field diffing; every column is written on flush.
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.uow.ready(); err != nil {
		return err
	}
	id := (*entity).EntityID()
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "cannot update "+r.desc.Table+" without id")
	}
	r.uow.stage(pendingOp{query: r.updateQuery(), arg: entity})
	r.staged[id] = entity
	return nil
}

// SoftStatusTransition loads the entity and applies the registered disable
// strategy, staging the resulting update. Types without a strategy are
// rejected instead of falling back to a hard delete.
func (r *Repository[T]) SoftStatusTransition(ctx context.Context, id string) error {
	if err := r.uow.ready(); err != nil {
		return err
	}
	if r.desc.Disable == nil {
		return appErrors.Clone(appErrors.ErrInvalidState, r.desc.Table+" has no disable transition registered")
	}
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entity == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", r.desc.Table, id))
	}
	r.desc.Disable(entity)
	return r.Update(ctx, entity)
}

// HardDelete stages a physical row removal. Lifecycle services only reach
// for it after their status guards have passed.
func (r *Repository[T]) HardDelete(ctx context.Context, id string) error {
	if err := r.uow.ready(); err != nil {
		return err
	}
	query := r.uow.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.desc.Table))
	r.uow.stage(pendingOp{query: query, args: []interface{}{id}})
	delete(r.staged, id)
	return nil
}

// Exists reports whether any row matches pred.
func (r *Repository[T]) Exists(ctx context.Context, pred *Predicate) (bool, error) {
	if err := r.uow.ready(); err != nil {
		return false, err
	}
	query := "SELECT 1 FROM " + r.desc.Table
	expr, args := pred.SQL()
	if expr != "" {
		query += " WHERE " + expr
	}
	query += " LIMIT 1"
	var one int
	if err := sqlx.GetContext(ctx, r.uow.queryer(), &one, r.uow.rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "check "+r.desc.Table)
	}
	return true, nil
}

// Count returns the number of rows matching pred.
func (r *Repository[T]) Count(ctx context.Context, pred *Predicate) (int, error) {
	if err := r.uow.ready(); err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM " + r.desc.Table
	expr, args := pred.SQL()
	if expr != "" {
		query += " WHERE " + expr
	}
	var total int
	if err := sqlx.GetContext(ctx, r.uow.queryer(), &total, r.uow.rebind(query), args...); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "count "+r.desc.Table)
	}
	return total, nil
}
