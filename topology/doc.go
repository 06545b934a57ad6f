// Package topology defines the resource identity model for the cooperating
// server roles of the store (storage nodes, replica nodes, admin nodes) and
// the directory interface used to locate a login-capable endpoint for a
// given resource.
//
// # What this package must NOT do
//
//   - Perform network I/O. Resolvers returned by other packages may; the
//     static [Table] implementation here never does.
//   - Import any other package of this module (it is the bottom of the
//     dependency graph).
package topology
