package trash

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate migrates each model's live table and its trash twin with the same columns.
// Index names are derived from the table being migrated, so models must not pin an
// explicit index name: it would collide between the two tables.
func AutoMigrate(db *gorm.DB, models ...Entity) error {
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %s: %w", m.TableName(), err)
		}
		trashed := m.TableName() + TrashSuffix
		if err := db.Table(trashed).AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %s: %w", trashed, err)
		}
	}
	return nil
}

// DropTables drops each model's live and trash tables.
func DropTables(db *gorm.DB, models ...Entity) error {
	m := db.Migrator()
	for _, model := range models {
		if err := m.DropTable(model.TableName()+TrashSuffix, model.TableName()); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports live and trashed row counts for one table pair.
type Stats struct {
	Table   string `json:"table"`
	Live    int64  `json:"live"`
	Trashed int64  `json:"trashed"`
}

// TableStats counts the rows of table and its trash twin.
func TableStats(db *gorm.DB, table string) (Stats, error) {
	st := Stats{Table: table}
	if err := db.Table(table).Count(&st.Live).Error; err != nil {
		return st, err
	}
	if err := db.Table(table + TrashSuffix).Count(&st.Trashed).Error; err != nil {
		return st, err
	}
	return st, nil
}
