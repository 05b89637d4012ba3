package trash

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Delete removes the matched rows in one transaction. Under the soft_deleting scope on
// the live table the rows are relocated to the trash table; on the trash table, or once
// the scope is removed, they are deleted for good. It returns the rows affected.
//
// A query without conditions matches every row.
func (q *Query[T, P]) Delete() (int64, error) {
	var n int64
	op := "soft_delete"
	err := Transaction(q.db, func(tx *gorm.DB) error {
		var err error
		if !q.softDeleting || q.target.IsTrashTable() {
			op = "delete"
			n, err = q.purge(tx)
		} else {
			n, err = q.softDelete(tx)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	q.trace(op, n)
	return n, nil
}

// ForceDelete removes the matched rows for good. A with-trashed query purges both tables.
func (q *Query[T, P]) ForceDelete() (int64, error) {
	var n int64
	err := Transaction(q.db, func(tx *gorm.DB) error {
		tables := []*Query[T, P]{q}
		if q.withTrashed {
			trashed := q.clone()
			trashed.target = q.target.Retarget(q.target.TrashedTableName())
			trashed.withTrashed = false
			tables = append(tables, trashed)
		}
		for _, t := range tables {
			removed, err := t.purge(tx)
			if err != nil {
				return err
			}
			n += removed
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	q.trace("force_delete", n)
	return n, nil
}

// Restore moves every matched trash row back to the live table in one transaction and
// returns the rows removed from the trash table. Restore listeners are not fired.
func (q *Query[T, P]) Restore() (int64, error) {
	src := q.clone()
	src.target = q.target.Retarget(q.target.TrashedTableName())
	src.softDeleting = false
	src.withTrashed = false

	var n int64
	err := Transaction(q.db, func(tx *gorm.DB) error {
		rows, err := src.fetch(tx, src.paginate)
		if err != nil || len(rows) == 0 {
			return err
		}
		keys := make([]any, 0, len(rows))
		for _, row := range rows {
			delete(row, q.repo.deletedAtColumn)
			keys = append(keys, row[q.repo.pk])
		}
		if err := insertRows(tx, src.target.OriginalTableName(), rows); err != nil {
			return err
		}
		n, err = src.deleteKeys(tx, keys)
		return err
	})
	if err != nil {
		return 0, err
	}
	q.trace("restore", n)
	return n, nil
}

// softDelete relocates the matched live rows. An explicit LIMIT or OFFSET pins the
// matched set with one fetch; otherwise rows move in chunks, keyed by primary key when
// it auto-increments. Relocated rows leave the match set, so the plain window always
// starts at offset zero.
func (q *Query[T, P]) softDelete(tx *gorm.DB) (int64, error) {
	if q.limit >= 0 || q.offset > 0 {
		rows, err := q.fetch(tx, q.paginate)
		if err != nil {
			return 0, err
		}
		return q.trashRows(tx, rows)
	}

	size := q.repo.chunkSize
	pk := clause.Column{Table: clause.CurrentTable, Name: q.repo.pk}
	var (
		total int64
		last  any
	)
	for {
		rows, err := q.fetch(tx, func(db *gorm.DB) *gorm.DB {
			if q.repo.autoIncrement && last != nil {
				db = db.Where(clause.Gt{Column: pk, Value: last})
			}
			return db.Order(clause.OrderByColumn{Column: pk}).Limit(size)
		})
		if err != nil {
			return total, err
		}
		n, err := q.trashRows(tx, rows)
		total += n
		if err != nil {
			return total, err
		}
		if len(rows) < size || n == 0 {
			return total, nil
		}
		last = rows[len(rows)-1][q.repo.pk]
	}
}

// trashRows stamps rows as trashed, copies them into the trash table and deletes them
// from the live table.
func (q *Query[T, P]) trashRows(tx *gorm.DB, rows []map[string]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := q.repo.now()
	keys := make([]any, 0, len(rows))
	for _, row := range rows {
		row[q.repo.deletedAtColumn] = now
		if f := q.repo.updatedAtField; f != nil {
			if _, ok := row[f.DBName]; ok {
				row[f.DBName] = now
			}
		}
		keys = append(keys, row[q.repo.pk])
	}
	if err := insertRows(tx, q.target.TrashedTableName(), rows); err != nil {
		return 0, err
	}
	return q.deleteKeys(tx, keys)
}

// purge deletes the matched rows from the target table. Pagination and joins are not
// portable in DELETE, so those queries resolve their keys first.
func (q *Query[T, P]) purge(tx *gorm.DB) (int64, error) {
	if q.limit >= 0 || q.offset > 0 || q.joins {
		rows, err := q.fetch(tx, q.paginate)
		if err != nil || len(rows) == 0 {
			return 0, err
		}
		keys := make([]any, 0, len(rows))
		for _, row := range rows {
			keys = append(keys, row[q.repo.pk])
		}
		return q.deleteKeys(tx, keys)
	}

	sess := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true, AllowGlobalUpdate: true})
	res := q.branch(sess, "").Delete(P(new(T)))
	return res.RowsAffected, res.Error
}

// fetch reads the matched rows of the target table as column maps.
func (q *Query[T, P]) fetch(tx *gorm.DB, page func(*gorm.DB) *gorm.DB) ([]map[string]any, error) {
	sess := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true})
	db := page(q.branch(sess, ""))
	if q.lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []map[string]any
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// deleteKeys deletes exactly the fetched keys from the target table. The query's own
// conditions are not reapplied: the fetch already resolved them, and an OR among them
// would bind looser than the key filter.
func (q *Query[T, P]) deleteKeys(tx *gorm.DB, keys []any) (int64, error) {
	sess := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true})
	res := sess.Model(P(new(T))).Table(q.target.Table()).Where(clause.IN{
		Column: clause.Column{Table: clause.CurrentTable, Name: q.repo.pk},
		Values: keys,
	}).Delete(P(new(T)))
	return res.RowsAffected, res.Error
}

func insertRows(tx *gorm.DB, table string, rows []map[string]any) error {
	return tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).Table(table).Create(rows).Error
}

func (q *Query[T, P]) trace(op string, n int64) {
	observe(q.repo.table, op, n)
	q.repo.log.Debug("trash: bulk "+op,
		zap.String("table", q.target.Table()),
		zap.Bool("withTrashed", q.withTrashed),
		zap.Int64("rows", n))
}
