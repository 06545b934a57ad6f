// Package privilege defines the fixed privilege universe of the store and
// the implication rules between privileges.
//
// Implication is table-driven and deliberately single-level: each label's
// implication set is authored pre-closed, and [Collection.Implies] performs
// one scan per held privilege, never a graph search. The closure of the
// tables is enforced by exhaustive tests over the whole universe, not
// recomputed at runtime.
//
// # What this package must NOT do
//
//   - Allow a (label, type) mismatch to produce a privilege value. The
//     factories fail fast; a degraded object here is how implication bugs
//     are born.
//   - Consult any external state. The universe and the tables are fixed at
//     design time.
package privilege
