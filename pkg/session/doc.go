// Package session tracks authenticated visitors across the two page loads
// of the redirect flow. Sessions live in the database and are referenced by
// a cookie; the Observer is the in-process view of "who is signed in right
// now" that the dispatcher and admin endpoints consult.
package session
