package privilege

import "strings"

// Collection is the set of privileges held by a subject. The zero value is
// an empty collection. Collections are built once per access check and not
// mutated concurrently, so no locking.
type Collection struct {
	privs []Privilege
}

// NewCollection builds a collection from the given privileges, dropping
// duplicates.
func NewCollection(privs ...Privilege) *Collection {
	c := &Collection{}
	for _, p := range privs {
		c.Add(p)
	}
	return c
}

// Add inserts a privilege unless an equal one is already held.
func (c *Collection) Add(p Privilege) {
	for _, held := range c.privs {
		if held.Equal(p) {
			return
		}
	}
	c.privs = append(c.privs, p)
}

// Len returns the number of distinct privileges held.
func (c *Collection) Len() int {
	return len(c.privs)
}

// Implies reports whether any held privilege subsumes required.
func (c *Collection) Implies(required Privilege) bool {
	for _, held := range c.privs {
		if implies(held, required) {
			return true
		}
	}
	return false
}

// ImpliesAll reports whether every required privilege is implied.
func (c *Collection) ImpliesAll(required []Privilege) bool {
	for _, r := range required {
		if !c.Implies(r) {
			return false
		}
	}
	return true
}

// Missing returns the required privileges the collection does not imply,
// in input order. Used for denial descriptions.
func (c *Collection) Missing(required []Privilege) []Privilege {
	var out []Privilege
	for _, r := range required {
		if !c.Implies(r) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Collection) String() string {
	parts := make([]string, len(c.privs))
	for i, p := range c.privs {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
