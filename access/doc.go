// Package access authorizes operations against a subject's role-derived
// privileges. The checker resolves the caller's session through a
// collaborator, expands roles to privileges, and tests implication; denials
// are logged through a window-sampled logger so a hostile repeat pattern
// cannot flood the log.
package access
