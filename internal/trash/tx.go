package trash

import "gorm.io/gorm"

// Transaction runs fn inside db's transaction. An already open transaction is reused
// as is, so relocations compose without savepoints.
func Transaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if InTransaction(db) {
		return fn(db)
	}
	return db.Transaction(fn)
}

// InTransaction reports whether db is bound to an open transaction.
func InTransaction(db *gorm.DB) bool {
	committer, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok && committer != nil
}
