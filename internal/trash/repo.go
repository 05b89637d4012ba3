package trash

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// ErrNotTrashable is returned for models without a primary key.
var ErrNotTrashable = errors.New("trash: model has no primary key")

var schemaCache sync.Map

// Repo relocates rows of one entity type between its live table and the trash twin.
type Repo[T any, P Model[T]] struct {
	db              *gorm.DB
	table           string
	pk              string
	pkField         *schema.Field
	autoIncrement   bool
	deletedAtColumn string
	updatedAtField  *schema.Field
	options
	events *events[T, P]
}

// NewRepo parses T's schema and returns a repository bound to its live table.
func NewRepo[T any, P Model[T]](db *gorm.DB, opts ...Option) (*Repo[T, P], error) {
	model := P(new(T))
	sch, err := schema.Parse(model, &schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, err
	}
	pkField := sch.PrioritizedPrimaryField
	if pkField == nil {
		return nil, ErrNotTrashable
	}

	r := &Repo[T, P]{
		db:              db,
		table:           sch.Table,
		pk:              pkField.DBName,
		pkField:         pkField,
		autoIncrement:   pkField.AutoIncrement,
		deletedAtColumn: DefaultDeletedAtColumn,
		options:         buildOptions(opts),
		events:          &events[T, P]{},
	}
	if c, ok := any(model).(DeletedAtColumner); ok {
		r.deletedAtColumn = c.DeletedAtColumn()
	} else if f := sch.LookUpField("DeletedAt"); f != nil {
		r.deletedAtColumn = f.DBName
	}
	if f := sch.LookUpField("UpdatedAt"); f != nil {
		r.updatedAtField = f
	}
	return r, nil
}

// MustNewRepo is NewRepo for package-level wiring; it panics on a schema error.
func MustNewRepo[T any, P Model[T]](db *gorm.DB, opts ...Option) *Repo[T, P] {
	r, err := NewRepo[T, P](db, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// WithTx returns a copy of the repository running on tx. Listeners are shared.
func (r *Repo[T, P]) WithTx(tx *gorm.DB) *Repo[T, P] {
	cp := *r
	cp.db = tx
	return &cp
}

// DB is the handle the repository runs on.
func (r *Repo[T, P]) DB() *gorm.DB { return r.db }

func (r *Repo[T, P]) Table() string           { return r.table }
func (r *Repo[T, P]) TrashTable() string      { return r.table + TrashSuffix }
func (r *Repo[T, P]) PrimaryKey() string      { return r.pk }
func (r *Repo[T, P]) DeletedAtColumn() string { return r.deletedAtColumn }

// ParseKey converts a textual primary key, as found in URLs and CLI flags, to the
// key column's Go type.
func (r *Repo[T, P]) ParseKey(s string) (any, error) {
	switch r.pkField.DataType {
	case schema.Int:
		return strconv.ParseInt(s, 10, 64)
	case schema.Uint:
		return strconv.ParseUint(s, 10, 64)
	default:
		return s, nil
	}
}

// QualifiedDeletedAtColumn is the trashed-at column prefixed with the trash table.
func (r *Repo[T, P]) QualifiedDeletedAtColumn() string {
	return r.TrashTable() + "." + r.deletedAtColumn
}

// Transaction runs fn with a repository bound to the active transaction, opening one
// only when none is in progress.
func (r *Repo[T, P]) Transaction(ctx context.Context, fn func(tx *Repo[T, P]) error) error {
	return Transaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Bind attaches m to this repository's live table if it is not bound yet and returns
// its binding.
func (r *Repo[T, P]) Bind(m P) *Binding {
	b := m.TrashBinding()
	b.SetOriginalTable(r.table)
	return b
}

// Create inserts m into the table it is bound to.
func (r *Repo[T, P]) Create(ctx context.Context, m P) error {
	b := r.Bind(m)
	return r.insert(r.db.WithContext(ctx), m, b.Table())
}

// Save updates m in the table it is bound to.
func (r *Repo[T, P]) Save(ctx context.Context, m P) error {
	b := r.Bind(m)
	return r.db.WithContext(ctx).Table(b.Table()).Omit(clause.Associations).Save(m).Error
}

// Delete relocates m to the trash table, or removes it when it already lives there.
// It returns the rows removed from the table the path deleted from.
func (r *Repo[T, P]) Delete(ctx context.Context, m P) (int64, error) {
	return r.delete(r.db.WithContext(ctx), m, ModeNormal)
}

func (r *Repo[T, P]) delete(db *gorm.DB, m P, mode DeleteMode) (int64, error) {
	b := r.Bind(m)
	switch {
	case mode == ModeForce || b.IsTrashTable():
		return r.deleteRow(db, m, b.Table())
	case mode == ModeAlreadyRelocated:
		return r.deleteRow(db, m, b.Table())
	default:
		return r.runSoftDelete(db, m)
	}
}

// ForceDelete removes m from both tables in one transaction. The forceDeleted listeners
// fire after commit when the delete against m's bound table removed a row; the copy in
// the other table is cleaned up silently.
func (r *Repo[T, P]) ForceDelete(ctx context.Context, m P) (bool, error) {
	db := r.db.WithContext(ctx)
	b := r.Bind(m)

	var removed, bound int64
	err := Transaction(db, func(tx *gorm.DB) error {
		n, err := r.delete(tx, m, ModeForce)
		if err != nil {
			return err
		}
		bound = n
		removed += n

		other := b.TrashedTableName()
		if b.IsTrashTable() {
			other = b.OriginalTableName()
		}
		n, err = r.delete(tx, r.shadow(m, other), ModeForce)
		if err != nil {
			return err
		}
		removed += n
		return nil
	})
	if err != nil {
		return false, err
	}

	observe(r.table, "force_delete", removed)
	r.log.Debug("trash: force deleted",
		zap.String("table", r.table),
		zap.Any("key", r.keyOf(db, m)),
		zap.Int64("rows", removed))
	if bound > 0 {
		r.events.fire(ctx, EventForceDeleted, m)
	}
	return removed > 0, nil
}

// runSoftDelete moves m from the live table into the trash table and binds it there.
func (r *Repo[T, P]) runSoftDelete(db *gorm.DB, m P) (int64, error) {
	b := m.TrashBinding()
	snap := r.snapshot(db, m)

	var removed int64
	err := Transaction(db, func(tx *gorm.DB) error {
		n, err := r.delete(tx, r.shadow(m, b.OriginalTableName()), ModeAlreadyRelocated)
		if err != nil {
			return err
		}
		removed = n

		now := r.now()
		m.SetDeletedAt(&now)
		r.touch(tx, m, now)
		b.BindToTrashTable()

		return r.insert(tx, m, b.Table())
	})
	if err != nil {
		snap.revert(db, m)
		return 0, err
	}

	observe(r.table, "soft_delete", removed)
	r.log.Debug("trash: relocated to trash",
		zap.String("table", r.table),
		zap.Any("key", r.keyOf(db, m)),
		zap.Int64("rows", removed))
	return removed, nil
}

// Restore moves m from the trash table back into the live table. A restoring listener
// returning false vetoes it with (false, nil).
func (r *Repo[T, P]) Restore(ctx context.Context, m P) (bool, error) {
	if !r.events.fireRestoring(ctx, m) {
		return false, nil
	}

	db := r.db.WithContext(ctx)
	b := r.Bind(m)
	snap := r.snapshot(db, m)

	err := Transaction(db, func(tx *gorm.DB) error {
		if _, err := r.delete(tx, r.shadow(m, b.TrashedTableName()), ModeAlreadyRelocated); err != nil {
			return err
		}

		b.BindToLiveTable()
		m.SetDeletedAt(nil)
		return r.insert(tx, m, b.Table())
	})
	if err != nil {
		snap.revert(db, m)
		return false, err
	}

	observe(r.table, "restore", 1)
	r.log.Debug("trash: restored",
		zap.String("table", r.table),
		zap.Any("key", r.keyOf(db, m)))
	r.events.fire(ctx, EventRestored, m)
	return true, nil
}

// shadow copies m into a new value bound to table; m is left untouched.
func (r *Repo[T, P]) shadow(m P, table string) P {
	cp := new(T)
	*cp = *(*T)(m)
	s := P(cp)
	*s.TrashBinding() = m.TrashBinding().Retarget(table)
	return s
}

// deleteRow removes m's row from table by primary key.
func (r *Repo[T, P]) deleteRow(db *gorm.DB, m P, table string) (int64, error) {
	res := db.Table(table).Delete(m)
	return res.RowsAffected, res.Error
}

func (r *Repo[T, P]) insert(db *gorm.DB, m P, table string) error {
	return db.Table(table).Omit(clause.Associations).Create(m).Error
}

func (r *Repo[T, P]) touch(db *gorm.DB, m P, now time.Time) {
	if r.updatedAtField == nil {
		return
	}
	if err := r.updatedAtField.Set(db.Statement.Context, reflect.ValueOf(m), now); err != nil {
		r.log.Warn("trash: touch updated_at", zap.String("table", r.table), zap.Error(err))
	}
}

func (r *Repo[T, P]) keyOf(db *gorm.DB, m P) any {
	v, _ := r.pkField.ValueOf(db.Statement.Context, reflect.ValueOf(m))
	return v
}

// snapshot captures the in-memory state a failed relocation must put back.
type snapshot[T any, P Model[T]] struct {
	repo      *Repo[T, P]
	binding   Binding
	deletedAt *time.Time
	updatedAt any
}

func (r *Repo[T, P]) snapshot(db *gorm.DB, m P) snapshot[T, P] {
	s := snapshot[T, P]{repo: r, binding: *m.TrashBinding(), deletedAt: m.GetDeletedAt()}
	if r.updatedAtField != nil {
		s.updatedAt, _ = r.updatedAtField.ValueOf(db.Statement.Context, reflect.ValueOf(m))
	}
	return s
}

func (s snapshot[T, P]) revert(db *gorm.DB, m P) {
	*m.TrashBinding() = s.binding
	m.SetDeletedAt(s.deletedAt)
	if s.repo.updatedAtField != nil && s.updatedAt != nil {
		_ = s.repo.updatedAtField.Set(db.Statement.Context, reflect.ValueOf(m), s.updatedAt)
	}
}
