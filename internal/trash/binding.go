package trash

// TrashSuffix is appended to a live table name to form its twin.
const TrashSuffix = "_trash"

// Binding tracks which physical table an entity instance currently targets.
//
// The zero value is unbound; the repository binds it on first use. originalTable is
// write-once, currentTable flips between the live table and its trash twin.
type Binding struct {
	originalTable string
	currentTable  string
	trashedTable  string
}

// NewBinding returns a binding targeting the live table.
func NewBinding(table string) Binding {
	var b Binding
	b.SetOriginalTable(table)
	return b
}

// Table is the table queries are currently bound against.
func (b *Binding) Table() string {
	if b.currentTable != "" {
		return b.currentTable
	}
	return b.originalTable
}

// OriginalTableName is the live table; falls back to the current table while unset.
func (b *Binding) OriginalTableName() string {
	if b.originalTable != "" {
		return b.originalTable
	}
	return b.currentTable
}

// TrashedTableName is always OriginalTableName + "_trash".
func (b *Binding) TrashedTableName() string {
	if b.trashedTable == "" {
		if orig := b.OriginalTableName(); orig != "" {
			b.trashedTable = orig + TrashSuffix
		}
	}
	return b.trashedTable
}

// SetOriginalTable records the live table once. Later calls, and calls with the
// trash table name, are ignored.
func (b *Binding) SetOriginalTable(table string) {
	if table == "" || b.originalTable != "" || table == b.TrashedTableName() {
		return
	}
	b.originalTable = table
	b.trashedTable = ""
	if b.currentTable == "" {
		b.currentTable = table
	}
}

// BindToTrashTable points the binding at the trash twin.
func (b *Binding) BindToTrashTable() {
	b.SetOriginalTable(b.Table())
	b.currentTable = b.TrashedTableName()
}

// BindToLiveTable points the binding back at the live table.
func (b *Binding) BindToLiveTable() {
	b.currentTable = b.OriginalTableName()
}

// IsTrashTable reports whether the binding targets the trash twin.
func (b *Binding) IsTrashTable() bool {
	return b.currentTable != "" && b.currentTable == b.TrashedTableName()
}

// CanDelete reports whether the next delete is a genuine row removal rather than a
// relocation. A relocated instance lives in the trash table, where nothing is intercepted.
func (b *Binding) CanDelete() bool { return b.IsTrashTable() }

// Retarget returns a copy bound to table, leaving b untouched. table must be the live
// table or its trash twin; anything else yields a copy bound to the live table.
func (b *Binding) Retarget(table string) Binding {
	out := *b
	switch table {
	case out.TrashedTableName():
		out.BindToTrashTable()
	default:
		out.BindToLiveTable()
	}
	return out
}
