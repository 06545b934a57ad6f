package privilege

// impliedLabels maps a held label to every label it subsumes. The tables
// are authored pre-closed: if A lists B and B lists C, then A also lists C.
// The implication check scans exactly one level, so a gap here is a
// correctness bug; the closure tests walk the transitive reachability of
// these tables and fail on any missing entry.
var impliedLabels = map[Label][]Label{
	SysDBA: {
		CreateAnyTable, DropAnyTable, EvolveAnyTable,
		CreateAnyIndex, DropAnyIndex,
		CreateAnyNamespace, DropAnyNamespace,
		DBView,
		CreateTableInNamespace, DropTableInNamespace, EvolveTableInNamespace,
		CreateIndexInNamespace, DropIndexInNamespace, ModifyInNamespace,
		EvolveTable, CreateIndex, DropIndex,
	},
	SysView:  {DBView, UsrView},
	IntlOper: {DBView},

	ReadAny: {ReadAnyTable, ReadInNamespace, ReadTable},
	WriteAny: {
		WriteAnyTable, InsertAnyTable, DeleteAnyTable,
		InsertInNamespace, DeleteInNamespace,
		InsertTable, DeleteTable,
		SetLocalRegion,
	},

	ReadAnyTable: {ReadInNamespace, ReadTable},
	WriteAnyTable: {
		InsertAnyTable, DeleteAnyTable,
		InsertInNamespace, DeleteInNamespace,
		InsertTable, DeleteTable,
	},
	InsertAnyTable: {InsertInNamespace, InsertTable},
	DeleteAnyTable: {DeleteInNamespace, DeleteTable},

	CreateAnyTable: {CreateTableInNamespace},
	DropAnyTable:   {DropTableInNamespace},
	EvolveAnyTable: {EvolveTableInNamespace, EvolveTable},
	CreateAnyIndex: {CreateIndexInNamespace, CreateIndex},
	DropAnyIndex:   {DropIndexInNamespace, DropIndex},

	ReadInNamespace:        {ReadTable},
	InsertInNamespace:      {InsertTable},
	DeleteInNamespace:      {DeleteTable},
	EvolveTableInNamespace: {EvolveTable},
	CreateIndexInNamespace: {CreateIndex},
	DropIndexInNamespace:   {DropIndex},
	ModifyInNamespace: {
		CreateTableInNamespace, DropTableInNamespace, EvolveTableInNamespace,
		CreateIndexInNamespace, DropIndexInNamespace,
		EvolveTable, CreateIndex, DropIndex,
	},
}

// implies reports whether held subsumes required, by exact match or one
// lookup in the static table. Scoped implications additionally require the
// targets to line up: a namespace-held privilege only reaches tables inside
// that namespace.
func implies(held, required Privilege) bool {
	if held.Equal(required) {
		return true
	}
	found := false
	for _, l := range impliedLabels[held.label] {
		if l == required.label {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	switch held.Kind() {
	case SystemType:
		// Store-wide privileges reach every target.
		return true
	case NamespaceType:
		return held.Namespace() == required.Namespace()
	}
	// Table-scoped labels imply nothing beyond themselves.
	return false
}

// ImpliedLabels returns a copy of the static implication set for a label.
// Exposed for the closure tests.
func ImpliedLabels(l Label) []Label {
	return append([]Label(nil), impliedLabels[l]...)
}
