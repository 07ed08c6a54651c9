package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	"github.com/HieuTrannn/fibo-academic-api/internal/repository"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
)

// fakeStore is an in-memory Store used by service tests. It evaluates the
// same predicate expressions the real repository would send to Postgres
// against a per-entity column map, so service code runs unchanged.
type fakeStore[T repository.Entity] struct {
	rows    map[string]*T
	order   []string
	fields  func(T) map[string]interface{}
	setID   func(*T, string)
	disable func(*T)

	uow *fakeUnitOfWork

	failInsert error
	failUpdate error
}

func newFakeStore[T repository.Entity](uow *fakeUnitOfWork, fields func(T) map[string]interface{}, setID func(*T, string), disable func(*T)) *fakeStore[T] {
	return &fakeStore[T]{rows: make(map[string]*T), fields: fields, setID: setID, disable: disable, uow: uow}
}

func (s *fakeStore[T]) seed(entities ...T) {
	for i := range entities {
		e := entities[i]
		s.rows[e.EntityID()] = &e
		s.order = append(s.order, e.EntityID())
	}
}

func (s *fakeStore[T]) all() []T {
	out := make([]T, 0, len(s.rows))
	for _, id := range s.order {
		if e, ok := s.rows[id]; ok {
			out = append(out, *e)
		}
	}
	return out
}

func (s *fakeStore[T]) matching(pred *repository.Predicate) []T {
	expr, args := pred.SQL()
	out := make([]T, 0)
	for _, e := range s.all() {
		if matchPredicate(expr, args, s.fields(e)) {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeStore[T]) GetByID(_ context.Context, id string) (*T, error) {
	if e, ok := s.rows[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore[T]) GetAll(_ context.Context, pred *repository.Predicate) ([]T, error) {
	return s.matching(pred), nil
}

func (s *fakeStore[T]) FilterBy(_ context.Context, pred *repository.Predicate) ([]T, error) {
	return s.matching(pred), nil
}

func (s *fakeStore[T]) List(_ context.Context, pred *repository.Predicate, page, pageSize int, _ string) ([]T, int, error) {
	rows := s.matching(pred)
	total := len(rows)
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []T{}, total, nil
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], total, nil
}

func (s *fakeStore[T]) Insert(_ context.Context, entity *T) (*T, error) {
	if s.failInsert != nil {
		return nil, s.failInsert
	}
	if (*entity).EntityID() == "" {
		s.setID(entity, uuid.NewString())
	}
	s.rows[(*entity).EntityID()] = entity
	s.order = append(s.order, (*entity).EntityID())
	s.uow.pending++
	return entity, nil
}

func (s *fakeStore[T]) Update(_ context.Context, entity *T) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	copied := *entity
	s.rows[(*entity).EntityID()] = &copied
	s.uow.pending++
	return nil
}

func (s *fakeStore[T]) SoftStatusTransition(_ context.Context, id string) error {
	if s.disable == nil {
		return appErrors.Clone(appErrors.ErrInvalidState, "no disable strategy")
	}
	e, ok := s.rows[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "row not found")
	}
	s.disable(e)
	s.uow.pending++
	return nil
}

func (s *fakeStore[T]) HardDelete(_ context.Context, id string) error {
	delete(s.rows, id)
	s.uow.pending++
	return nil
}

func (s *fakeStore[T]) Exists(ctx context.Context, pred *repository.Predicate) (bool, error) {
	return len(s.matching(pred)) > 0, nil
}

func (s *fakeStore[T]) Count(_ context.Context, pred *repository.Predicate) (int, error) {
	return len(s.matching(pred)), nil
}

// matchPredicate evaluates a ?-placeholder WHERE expression against one
// row's column values. Only the expression shapes the Predicate builder
// emits are supported.
func matchPredicate(expr string, args []interface{}, fields map[string]interface{}) bool {
	if expr == "" {
		return true
	}
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimPrefix(strings.TrimSuffix(clause, ")"), "(")
		if !matchClause(clause, &args, fields) {
			return false
		}
	}
	return true
}

func matchClause(clause string, args *[]interface{}, fields map[string]interface{}) bool {
	take := func() interface{} {
		v := (*args)[0]
		*args = (*args)[1:]
		return v
	}
	switch {
	case clause == "1 = 0":
		return false
	case strings.HasSuffix(clause, " IS NULL"):
		_, null := fieldValue(fields[strings.TrimSuffix(clause, " IS NULL")])
		return null
	case strings.HasSuffix(clause, " IS NOT NULL"):
		_, null := fieldValue(fields[strings.TrimSuffix(clause, " IS NOT NULL")])
		return !null
	case strings.Contains(clause, " IN ("):
		column := clause[:strings.Index(clause, " IN (")]
		n := strings.Count(clause, "?")
		v, null := fieldValue(fields[column])
		match := false
		for i := 0; i < n; i++ {
			want := fmt.Sprintf("%v", take())
			if !null && v == want {
				match = true
			}
		}
		return match
	case strings.Contains(clause, " <> ?"):
		column := strings.TrimSuffix(clause, " <> ?")
		v, null := fieldValue(fields[column])
		return !null && v != fmt.Sprintf("%v", take())
	case strings.Contains(clause, " = ?"):
		column := strings.TrimSuffix(clause, " = ?")
		v, null := fieldValue(fields[column])
		return !null && v == fmt.Sprintf("%v", take())
	default:
		panic("unsupported predicate clause: " + clause)
	}
}

func fieldValue(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case *string:
		if x == nil {
			return "", true
		}
		return *x, false
	default:
		return fmt.Sprintf("%v", v), false
	}
}

// fakeUnitOfWork wires the fake stores behind the repository.UnitOfWork
// interface. SaveChanges succeeds unless failSave is set; the fakes apply
// writes immediately, which is indistinguishable post-flush.
type fakeUnitOfWork struct {
	semesters   *fakeStore[models.Semester]
	classes     *fakeStore[models.Class]
	groups      *fakeStore[models.Group]
	enrollments *fakeStore[models.ClassEnrollment]
	documents   *fakeStore[models.Document]

	pending  int
	flushed  int // staged ops written over the whole test
	saves    int // SaveChanges invocations that wrote something
	failSave error
	closed   bool
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	uow := &fakeUnitOfWork{}
	uow.semesters = newFakeStore[models.Semester](uow,
		func(s models.Semester) map[string]interface{} {
			return map[string]interface{}{"id": s.ID, "code": s.Code, "term": s.Term, "year": s.Year, "status": s.Status}
		},
		func(s *models.Semester, id string) { s.ID = id },
		func(s *models.Semester) { s.Status = models.StatusDisabled })
	uow.classes = newFakeStore[models.Class](uow,
		func(c models.Class) map[string]interface{} {
			return map[string]interface{}{"id": c.ID, "semester_id": c.SemesterID, "code": c.Code, "status": c.Status, "lecturer_id": c.LecturerID}
		},
		func(c *models.Class, id string) { c.ID = id },
		func(c *models.Class) { c.Status = models.StatusDisabled })
	uow.groups = newFakeStore[models.Group](uow,
		func(g models.Group) map[string]interface{} {
			return map[string]interface{}{"id": g.ID, "class_id": g.ClassID, "name": g.Name, "status": g.Status}
		},
		func(g *models.Group, id string) { g.ID = id },
		func(g *models.Group) { g.Status = models.StatusDisabled })
	uow.enrollments = newFakeStore[models.ClassEnrollment](uow,
		func(e models.ClassEnrollment) map[string]interface{} {
			return map[string]interface{}{"id": e.ID, "class_id": e.ClassID, "group_id": e.GroupID, "user_id": e.UserID, "status": e.Status, "role_in_class": e.RoleInClass}
		},
		func(e *models.ClassEnrollment, id string) { e.ID = id },
		func(e *models.ClassEnrollment) { e.Status = models.EnrollmentStatusDisabled })
	uow.documents = newFakeStore[models.Document](uow,
		func(d models.Document) map[string]interface{} {
			return map[string]interface{}{"id": d.ID, "class_id": d.ClassID, "name": d.Name, "status": d.Status}
		},
		func(d *models.Document, id string) { d.ID = id },
		func(d *models.Document) { d.Status = models.StatusDisabled })
	return uow
}

func (u *fakeUnitOfWork) Semesters() repository.Store[models.Semester]          { return u.semesters }
func (u *fakeUnitOfWork) Classes() repository.Store[models.Class]               { return u.classes }
func (u *fakeUnitOfWork) Groups() repository.Store[models.Group]                { return u.groups }
func (u *fakeUnitOfWork) Enrollments() repository.Store[models.ClassEnrollment] { return u.enrollments }
func (u *fakeUnitOfWork) Documents() repository.Store[models.Document]          { return u.documents }

func (u *fakeUnitOfWork) SaveChanges(context.Context) (int, error) {
	if u.failSave != nil {
		return 0, u.failSave
	}
	n := u.pending
	u.pending = 0
	u.flushed += n
	if n > 0 {
		u.saves++
	}
	return n, nil
}

func (u *fakeUnitOfWork) BeginTx(context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                 { return nil }
func (u *fakeUnitOfWork) Rollback() error               { return nil }
func (u *fakeUnitOfWork) InTransaction() bool           { return false }
func (u *fakeUnitOfWork) Close() error                  { u.closed = true; return nil }

// fakeFactory hands out the same unit of work so tests can seed and inspect it.
type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) New() repository.UnitOfWork { return f.uow }

// fakeAccounts is an in-memory accountLookup.
type fakeAccounts struct {
	byID    map[string]models.Account
	findErr error
}

func newFakeAccounts(accounts ...models.Account) *fakeAccounts {
	f := &fakeAccounts{byID: make(map[string]models.Account)}
	for _, a := range accounts {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if a, ok := f.byID[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeAccounts) FindByIDs(_ context.Context, ids []string) (map[string]models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make(map[string]models.Account, len(ids))
	for _, id := range ids {
		if a, ok := f.byID[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

// fakeCache is an in-memory memberCache recording hits and invalidations.
type fakeCache struct {
	entries map[string]interface{}
	sets    int
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]interface{})}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	v, ok := c.entries[key]
	if !ok {
		return appErrors.Clone(appErrors.ErrCacheMiss, "")
	}
	if members, ok := v.([]models.MemberView); ok {
		if out, ok := dest.(*[]models.MemberView); ok {
			*out = members
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrCacheMiss, "")
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.entries[key] = value
	c.sets++
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
	return nil
}

func memberIDs(members []models.MemberView) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.UserID)
	}
	sort.Strings(out)
	return out
}
