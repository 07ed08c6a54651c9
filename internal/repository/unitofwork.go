package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

// UnitOfWork batches repository mutations into one atomic flush with an
// optional explicit transaction boundary. One instance serves one logical
// request, owns its database session for that lifetime, and must not be
// shared across goroutines.
type UnitOfWork interface {
	Semesters() Store[models.Semester]
	Classes() Store[models.Class]
	Groups() Store[models.Group]
	Enrollments() Store[models.ClassEnrollment]
	Documents() Store[models.Document]

	// SaveChanges flushes all staged mutations from every repository of this
	// unit of work in one transaction and returns the number of flushed
	// operations. When an explicit transaction is open the flush joins it and
	// the commit is deferred to Commit.
	SaveChanges(ctx context.Context) (int, error)

	// BeginTx opens an explicit transaction. Nesting is rejected.
	BeginTx(ctx context.Context) error
	Commit() error
	Rollback() error
	InTransaction() bool

	// Close releases the session. Any use afterwards fails.
	Close() error
}

// Factory mints one unit of work per logical request.
type Factory struct {
	db *sqlx.DB
}

// NewFactory constructs a unit of work factory over a shared pool.
func NewFactory(db *sqlx.DB) *Factory {
	return &Factory{db: db}
}

// New returns a fresh unit of work.
func (f *Factory) New() UnitOfWork {
	return newUnitOfWork(f.db)
}

type pendingOp struct {
	query string
	arg   interface{}   // named-parameter struct; nil for positional ops
	args  []interface{} // positional args, query already rebound
}

func (op pendingOp) exec(ctx context.Context, e sqlx.ExtContext) error {
	if op.arg != nil {
		_, err := sqlx.NamedExecContext(ctx, e, op.query, op.arg)
		return err
	}
	_, err := e.ExecContext(ctx, op.query, op.args...)
	return err
}

type sqlUnitOfWork struct {
	db      *sqlx.DB
	tx      *sqlx.Tx
	closed  bool
	pending []pendingOp

	semesters   *Repository[models.Semester]
	classes     *Repository[models.Class]
	groups      *Repository[models.Group]
	enrollments *Repository[models.ClassEnrollment]
	documents   *Repository[models.Document]
}

func newUnitOfWork(db *sqlx.DB) *sqlUnitOfWork {
	return &sqlUnitOfWork{db: db}
}

// Repository accessors are memoized: repeated calls for the same aggregate
// return the same instance, so staged rows are visible across calls.

func (u *sqlUnitOfWork) Semesters() Store[models.Semester] {
	if u.semesters == nil {
		u.semesters = newRepository(u, semesterDescriptor)
	}
	return u.semesters
}

func (u *sqlUnitOfWork) Classes() Store[models.Class] {
	if u.classes == nil {
		u.classes = newRepository(u, classDescriptor)
	}
	return u.classes
}

func (u *sqlUnitOfWork) Groups() Store[models.Group] {
	if u.groups == nil {
		u.groups = newRepository(u, groupDescriptor)
	}
	return u.groups
}

func (u *sqlUnitOfWork) Enrollments() Store[models.ClassEnrollment] {
	if u.enrollments == nil {
		u.enrollments = newRepository(u, enrollmentDescriptor)
	}
	return u.enrollments
}

func (u *sqlUnitOfWork) Documents() Store[models.Document] {
	if u.documents == nil {
		u.documents = newRepository(u, documentDescriptor)
	}
	return u.documents
}

func (u *sqlUnitOfWork) ready() error {
	if u.closed {
		return appErrors.Clone(appErrors.ErrUseAfterDispose, "")
	}
	return nil
}

func (u *sqlUnitOfWork) queryer() sqlx.ExtContext {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *sqlUnitOfWork) rebind(query string) string {
	return u.db.Rebind(query)
}

func (u *sqlUnitOfWork) stage(op pendingOp) {
	u.pending = append(u.pending, op)
}

func (u *sqlUnitOfWork) BeginTx(ctx context.Context) error {
	if err := u.ready(); err != nil {
		return err
	}
	if u.tx != nil {
		return appErrors.Clone(appErrors.ErrInvalidState, "transaction already open")
	}
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "begin transaction")
	}
	u.tx = tx
	return nil
}

func (u *sqlUnitOfWork) InTransaction() bool {
	return u.tx != nil
}

func (u *sqlUnitOfWork) Commit() error {
	if err := u.ready(); err != nil {
		return err
	}
	if u.tx == nil {
		return appErrors.Clone(appErrors.ErrInvalidState, "no open transaction")
	}
	err := u.tx.Commit()
	u.tx = nil
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "commit transaction")
	}
	return nil
}

func (u *sqlUnitOfWork) Rollback() error {
	if err := u.ready(); err != nil {
		return err
	}
	if u.tx == nil {
		return appErrors.Clone(appErrors.ErrInvalidState, "no open transaction")
	}
	err := u.tx.Rollback()
	u.tx = nil
	u.discard()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "rollback transaction")
	}
	return nil
}

func (u *sqlUnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	if err := u.ready(); err != nil {
		return 0, err
	}
	if len(u.pending) == 0 {
		return 0, nil
	}

	tx := u.tx
	ownTx := tx == nil
	if ownTx {
		t, err := u.db.BeginTxx(ctx, nil)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "begin flush")
		}
		tx = t
	}

	for _, op := range u.pending {
		if err := op.exec(ctx, tx); err != nil {
			_ = tx.Rollback()
			if !ownTx {
				u.tx = nil
			}
			// a failed flush is terminal for the batch; a later SaveChanges
			// must not replay it
			u.discard()
			return 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "flush changes")
		}
	}

	if ownTx {
		if err := tx.Commit(); err != nil {
			u.discard()
			return 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "commit flush")
		}
	}

	count := len(u.pending)
	u.pending = nil
	u.clearStaged()
	return count, nil
}

func (u *sqlUnitOfWork) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.tx != nil {
		_ = u.tx.Rollback()
		u.tx = nil
	}
	u.discard()
	return nil
}

func (u *sqlUnitOfWork) discard() {
	u.pending = nil
	u.clearStaged()
}

func (u *sqlUnitOfWork) clearStaged() {
	if u.semesters != nil {
		u.semesters.staged = make(map[string]*models.Semester)
	}
	if u.classes != nil {
		u.classes.staged = make(map[string]*models.Class)
	}
	if u.groups != nil {
		u.groups.staged = make(map[string]*models.Group)
	}
	if u.enrollments != nil {
		u.enrollments.staged = make(map[string]*models.ClassEnrollment)
	}
	if u.documents != nil {
		u.documents.staged = make(map[string]*models.Document)
	}
}
