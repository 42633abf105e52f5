// Package groups maps users to named groups and answers authorization
// questions about them.
//
// Membership is the whole signal: a (user, group) row existing means the
// user is in the group, and there is no separate active flag. Rows are
// created and deleted by administrators only.
//
// The Guard is fail-closed on every path: a missing row, a failed lookup,
// or an absent session all resolve to "not authorized" rather than an
// error. Note the asymmetry with pkg/registry, where a failed lookup is
// surfaced as an infrastructure error instead of being collapsed into
// a business answer.
package groups
