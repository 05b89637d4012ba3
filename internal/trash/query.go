package trash

import (
	"context"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query is a chainable query over one entity type. Every chain method returns a copy,
// so a Query can be shared and extended freely.
//
// A fresh Query carries the soft_deleting scope: Delete relocates matched rows to the
// trash table instead of removing them.
type Query[T any, P Model[T]] struct {
	repo   *Repo[T, P]
	db     *gorm.DB
	target Binding

	conds  []ScopeFunc
	scopes []GlobalScope
	orders []any
	limit  int
	offset int

	softDeleting bool
	withTrashed  bool
	lock         bool
	joins        bool
}

// Query starts a query bound to the live table.
func (r *Repo[T, P]) Query(ctx context.Context) *Query[T, P] {
	return &Query[T, P]{
		repo:         r,
		db:           r.db.WithContext(ctx),
		target:       NewBinding(r.table),
		scopes:       ScopesFor(new(T)),
		limit:        -1,
		offset:       -1,
		softDeleting: true,
		lock:         r.lockForUpdate,
	}
}

func (q *Query[T, P]) clone() *Query[T, P] {
	cp := *q
	cp.conds = slices.Clone(q.conds)
	cp.scopes = slices.Clone(q.scopes)
	cp.orders = slices.Clone(q.orders)
	return &cp
}

func (q *Query[T, P]) Where(query any, args ...any) *Query[T, P] {
	cp := q.clone()
	cp.conds = append(cp.conds, func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) })
	return cp
}

func (q *Query[T, P]) Or(query any, args ...any) *Query[T, P] {
	cp := q.clone()
	cp.conds = append(cp.conds, func(db *gorm.DB) *gorm.DB { return db.Or(query, args...) })
	return cp
}

func (q *Query[T, P]) Not(query any, args ...any) *Query[T, P] {
	cp := q.clone()
	cp.conds = append(cp.conds, func(db *gorm.DB) *gorm.DB { return db.Not(query, args...) })
	return cp
}

// Key restricts the query to one primary key.
func (q *Query[T, P]) Key(id any) *Query[T, P] {
	return q.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: q.repo.pk},
		Value:  id,
	})
}

// WhereHas keeps rows with at least one related row in table, joined on
// related.relatedKey = current.localKey. The current table resolves to the trash
// table under OnlyTrashed and to the live alias in a union.
func (q *Query[T, P]) WhereHas(table, localKey, relatedKey string) *Query[T, P] {
	return q.Where("EXISTS (SELECT 1 FROM ? WHERE ? = ?)",
		clause.Table{Name: table},
		clause.Column{Table: table, Name: relatedKey},
		clause.Column{Table: clause.CurrentTable, Name: localKey},
	)
}

// Joins adds a join. Join conditions should name the live table; in the trashed
// branch of a union the trash table is aliased to it.
func (q *Query[T, P]) Joins(query string, args ...any) *Query[T, P] {
	cp := q.clone()
	cp.joins = true
	cp.conds = append(cp.conds, func(db *gorm.DB) *gorm.DB { return db.Joins(query, args...) })
	return cp
}

// Scopes appends ad-hoc transformers applied after the global scopes.
func (q *Query[T, P]) Scopes(fns ...ScopeFunc) *Query[T, P] {
	cp := q.clone()
	cp.conds = append(cp.conds, fns...)
	return cp
}

func (q *Query[T, P]) Order(value any) *Query[T, P] {
	cp := q.clone()
	cp.orders = append(cp.orders, value)
	return cp
}

// Limit sets the row limit; a negative value clears it.
func (q *Query[T, P]) Limit(n int) *Query[T, P] {
	cp := q.clone()
	cp.limit = n
	return cp
}

// Offset sets the row offset; a negative value clears it.
func (q *Query[T, P]) Offset(n int) *Query[T, P] {
	cp := q.clone()
	cp.offset = n
	return cp
}

// LockForUpdate makes bulk Delete and Restore select their rows with FOR UPDATE.
func (q *Query[T, P]) LockForUpdate() *Query[T, P] {
	cp := q.clone()
	cp.lock = true
	return cp
}

// WithoutScope removes a named scope from this query: either a registered global
// scope or one of the built-in soft_deleting and with_trashed scopes.
func (q *Query[T, P]) WithoutScope(name string) *Query[T, P] {
	cp := q.clone()
	switch name {
	case ScopeSoftDeleting:
		cp.softDeleting = false
	case ScopeWithTrashed:
		cp.withTrashed = false
	default:
		cp.scopes = slices.DeleteFunc(cp.scopes, func(s GlobalScope) bool { return s.Name == name })
	}
	return cp
}

// WithTrashed includes trashed rows by querying the live and trash tables as one
// union. WithTrashed(false) is WithoutTrashed.
func (q *Query[T, P]) WithTrashed(flag ...bool) *Query[T, P] {
	if len(flag) > 0 && !flag[0] {
		return q.WithoutTrashed()
	}
	cp := q.clone()
	cp.target = q.target.Retarget(q.target.OriginalTableName())
	cp.withTrashed = true
	return cp
}

// WithoutTrashed rebinds the query to the live table, dropping any union.
func (q *Query[T, P]) WithoutTrashed() *Query[T, P] {
	cp := q.clone()
	cp.target = q.target.Retarget(q.target.OriginalTableName())
	cp.withTrashed = false
	return cp
}

// OnlyTrashed rebinds the query to the trash table. Delete on the result removes rows
// for good.
func (q *Query[T, P]) OnlyTrashed() *Query[T, P] {
	cp := q.clone()
	cp.target = q.target.Retarget(q.target.TrashedTableName())
	cp.withTrashed = false
	return cp
}

// Table is the physical table the query reads from, ignoring any union.
func (q *Query[T, P]) Table() string { return q.target.Table() }

// branch renders the query against its target table without ordering or pagination.
// A non-empty alias names the table in FROM so conditions written against the live
// table resolve on the trash table too.
func (q *Query[T, P]) branch(sess *gorm.DB, alias string) *gorm.DB {
	tx := sess.Model(P(new(T)))
	table := q.target.Table()
	name := table
	if alias != "" && alias != table {
		tx = tx.Table(quote(sess, table) + " AS " + quote(sess, alias))
		tx.Statement.Table = alias
		name = alias
	} else {
		tx = tx.Table(table)
	}
	if q.joins {
		tx = tx.Select(quote(sess, name) + ".*")
	}
	for _, s := range q.scopes {
		tx = s.Apply(tx)
	}
	for _, c := range q.conds {
		tx = c(tx)
	}
	return tx
}

func (q *Query[T, P]) paginate(tx *gorm.DB) *gorm.DB {
	for _, o := range q.orders {
		tx = tx.Order(o)
	}
	if q.offset >= 0 {
		tx = tx.Offset(q.offset)
	}
	if q.limit >= 0 {
		tx = tx.Limit(q.limit)
	}
	return tx
}

// build renders the full query on a fresh session of db.
func (q *Query[T, P]) build(db *gorm.DB) *gorm.DB {
	sess := db.Session(&gorm.Session{NewDB: true})
	if q.withTrashed {
		return q.union(sess)
	}
	return q.paginate(q.branch(sess, ""))
}

// Find loads every matching row. Each result is bound to the table it was read from.
func (q *Query[T, P]) Find() ([]P, error) {
	var rows []T
	if err := q.build(q.db).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]P, len(rows))
	for i := range rows {
		out[i] = q.bindResult(&rows[i])
	}
	return out, nil
}

// First loads the first matching row, ordered by primary key unless the query is
// ordered. It returns gorm.ErrRecordNotFound when nothing matches.
func (q *Query[T, P]) First() (P, error) {
	cp := q.Limit(1)
	if len(cp.orders) == 0 {
		cp.orders = append(cp.orders, clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: q.repo.pk},
		})
	}
	rows, err := cp.Find()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}

// Count counts matching rows, ignoring ordering, limit and offset.
func (q *Query[T, P]) Count() (int64, error) {
	cp := q.clone()
	cp.orders, cp.limit, cp.offset = nil, -1, -1

	sess := q.db.Session(&gorm.Session{NewDB: true})
	var n int64
	err := sess.Table("(?) AS "+quote(sess, q.target.OriginalTableName()), cp.build(q.db)).
		Count(&n).Error
	return n, err
}

// Paginate returns page (1-based) of size rows and the total match count.
func (q *Query[T, P]) Paginate(page, size int) ([]P, int64, error) {
	if page < 1 {
		page = 1
	}
	total, err := q.Count()
	if err != nil {
		return nil, 0, err
	}
	items, err := q.Offset((page - 1) * size).Limit(size).Find()
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ToSQL renders the SELECT the query would run, with variables inlined.
func (q *Query[T, P]) ToSQL() string {
	return q.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return q.build(tx).Find(&[]T{})
	})
}

func (q *Query[T, P]) bindResult(m P) P {
	table := q.target.Table()
	if q.withTrashed && m.Trashed() {
		table = q.target.TrashedTableName()
	}
	*m.TrashBinding() = q.target.Retarget(table)
	return m
}

func quote(db *gorm.DB, name string) string {
	return db.Statement.Quote(name)
}
