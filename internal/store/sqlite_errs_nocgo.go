//go:build !cgo

package store

// Without cgo the sqlite3 driver is a stub whose Open always errors, so a
// constraint violation can never reach liteErr.
func isLiteConstraint(error) bool { return false }
