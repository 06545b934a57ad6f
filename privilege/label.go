package privilege

// Type says what a privilege applies to, and therefore which factory is
// legal for its label.
type Type uint8

const (
	// SystemType privileges are store-wide.
	SystemType Type = iota
	// TableType privileges target one table.
	TableType
	// NamespaceType privileges target all tables in one namespace.
	NamespaceType
	// ObjectType is reserved for future object-level grants; no current
	// label carries it.
	ObjectType
)

func (t Type) String() string {
	switch t {
	case SystemType:
		return "SYSTEM"
	case TableType:
		return "TABLE"
	case NamespaceType:
		return "NAMESPACE"
	case ObjectType:
		return "OBJECT"
	}
	return "UNKNOWN"
}

// Label enumerates the fixed privilege universe.
type Label uint8

const (
	// System-wide labels.
	SysDBA Label = iota
	SysView
	IntlOper
	DBView
	UsrView
	ReadAny
	WriteAny
	ReadAnyTable
	WriteAnyTable
	InsertAnyTable
	DeleteAnyTable
	CreateAnyTable
	DropAnyTable
	EvolveAnyTable
	CreateAnyIndex
	DropAnyIndex
	CreateAnyNamespace
	DropAnyNamespace
	SetLocalRegion

	// Namespace-scoped labels.
	ReadInNamespace
	InsertInNamespace
	DeleteInNamespace
	CreateTableInNamespace
	DropTableInNamespace
	EvolveTableInNamespace
	CreateIndexInNamespace
	DropIndexInNamespace
	ModifyInNamespace

	// Table-scoped labels.
	ReadTable
	InsertTable
	DeleteTable
	EvolveTable
	CreateIndex
	DropIndex

	labelCount
)

var labelNames = [labelCount]string{
	SysDBA:                 "SYSDBA",
	SysView:                "SYSVIEW",
	IntlOper:               "INTLOPER",
	DBView:                 "DBVIEW",
	UsrView:                "USRVIEW",
	ReadAny:                "READ_ANY",
	WriteAny:               "WRITE_ANY",
	ReadAnyTable:           "READ_ANY_TABLE",
	WriteAnyTable:          "WRITE_ANY_TABLE",
	InsertAnyTable:         "INSERT_ANY_TABLE",
	DeleteAnyTable:         "DELETE_ANY_TABLE",
	CreateAnyTable:         "CREATE_ANY_TABLE",
	DropAnyTable:           "DROP_ANY_TABLE",
	EvolveAnyTable:         "EVOLVE_ANY_TABLE",
	CreateAnyIndex:         "CREATE_ANY_INDEX",
	DropAnyIndex:           "DROP_ANY_INDEX",
	CreateAnyNamespace:     "CREATE_ANY_NAMESPACE",
	DropAnyNamespace:       "DROP_ANY_NAMESPACE",
	SetLocalRegion:         "SET_LOCAL_REGION",
	ReadInNamespace:        "READ_IN_NAMESPACE",
	InsertInNamespace:      "INSERT_IN_NAMESPACE",
	DeleteInNamespace:      "DELETE_IN_NAMESPACE",
	CreateTableInNamespace: "CREATE_TABLE_IN_NAMESPACE",
	DropTableInNamespace:   "DROP_TABLE_IN_NAMESPACE",
	EvolveTableInNamespace: "EVOLVE_TABLE_IN_NAMESPACE",
	CreateIndexInNamespace: "CREATE_INDEX_IN_NAMESPACE",
	DropIndexInNamespace:   "DROP_INDEX_IN_NAMESPACE",
	ModifyInNamespace:      "MODIFY_IN_NAMESPACE",
	ReadTable:              "READ_TABLE",
	InsertTable:            "INSERT_TABLE",
	DeleteTable:            "DELETE_TABLE",
	EvolveTable:            "EVOLVE_TABLE",
	CreateIndex:            "CREATE_INDEX",
	DropIndex:              "DROP_INDEX",
}

func (l Label) String() string {
	if l >= labelCount {
		return "UNKNOWN_LABEL"
	}
	return labelNames[l]
}

// Kind returns the type category the label belongs to.
func (l Label) Kind() Type {
	switch {
	case l <= SetLocalRegion:
		return SystemType
	case l <= ModifyInNamespace:
		return NamespaceType
	case l < labelCount:
		return TableType
	}
	return ObjectType
}

// AllLabels returns the whole universe in declaration order. Used by the
// closure tests; not needed on any hot path.
func AllLabels() []Label {
	out := make([]Label, 0, labelCount)
	for l := Label(0); l < labelCount; l++ {
		out = append(out, l)
	}
	return out
}
