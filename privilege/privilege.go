package privilege

import (
	"errors"
	"fmt"
)

// ErrLabelTypeMismatch is returned by the factories when a label is used
// with the wrong target kind.
var ErrLabelTypeMismatch = errors.New("privilege label/type mismatch")

// TableTarget identifies the table a table-scoped privilege applies to.
type TableTarget struct {
	ID        int64
	Namespace string
	Name      string
}

func (t TableTarget) String() string {
	return fmt.Sprintf("%s:%s(%d)", t.Namespace, t.Name, t.ID)
}

// Privilege is one granted or required privilege. Construct values through
// [NewSystem], [NewTable], or [NewNamespace]; the zero value is not valid.
type Privilege struct {
	label     Label
	table     TableTarget
	namespace string
}

// NewSystem builds a store-wide privilege. The label must be system-typed.
func NewSystem(label Label) (Privilege, error) {
	if label.Kind() != SystemType {
		return Privilege{}, fmt.Errorf("%w: %s is %s, not SYSTEM",
			ErrLabelTypeMismatch, label, label.Kind())
	}
	return Privilege{label: label}, nil
}

// NewTable builds a table-scoped privilege. The label must be table-typed.
func NewTable(label Label, target TableTarget) (Privilege, error) {
	if label.Kind() != TableType {
		return Privilege{}, fmt.Errorf("%w: %s is %s, not TABLE",
			ErrLabelTypeMismatch, label, label.Kind())
	}
	return Privilege{label: label, table: target}, nil
}

// NewNamespace builds a namespace-scoped privilege. The label must be
// namespace-typed.
func NewNamespace(label Label, namespace string) (Privilege, error) {
	if label.Kind() != NamespaceType {
		return Privilege{}, fmt.Errorf("%w: %s is %s, not NAMESPACE",
			ErrLabelTypeMismatch, label, label.Kind())
	}
	return Privilege{label: label, namespace: namespace}, nil
}

// MustSystem is NewSystem for statically known labels; it panics on misuse.
func MustSystem(label Label) Privilege {
	p, err := NewSystem(label)
	if err != nil {
		panic(err)
	}
	return p
}

// Label returns the privilege's label.
func (p Privilege) Label() Label {
	return p.label
}

// Kind returns the privilege's type category.
func (p Privilege) Kind() Type {
	return p.label.Kind()
}

// Table returns the target of a table-scoped privilege.
func (p Privilege) Table() TableTarget {
	return p.table
}

// Namespace returns the namespace a privilege is scoped to: the target
// namespace for namespace-typed labels, the table's namespace for
// table-typed ones, empty otherwise.
func (p Privilege) Namespace() string {
	switch p.label.Kind() {
	case NamespaceType:
		return p.namespace
	case TableType:
		return p.table.Namespace
	}
	return ""
}

// Equal compares label and, for scoped kinds, target.
func (p Privilege) Equal(other Privilege) bool {
	if p.label != other.label {
		return false
	}
	switch p.label.Kind() {
	case TableType:
		return p.table == other.table
	case NamespaceType:
		return p.namespace == other.namespace
	}
	return true
}

func (p Privilege) String() string {
	switch p.label.Kind() {
	case TableType:
		return fmt.Sprintf("%s[%s]", p.label, p.table)
	case NamespaceType:
		return fmt.Sprintf("%s[%s]", p.label, p.namespace)
	}
	return p.label.String()
}
