// Package storage persists the account pool, the groups created on its
// behalf, and an append-only error log in a single SQLite database.
//
// Writes are short-lived and self-contained: the provisioning pipeline
// commits the group row, the message count, the quota increment, and the
// activity timestamps as separate statements. Concurrent operator writes
// race on a last-write-wins basis per field.
package storage
