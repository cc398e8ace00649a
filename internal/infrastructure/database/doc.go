// Package database manages the SQLite connection used by the audit
// trail.
//
// SQLite fits the device profile: a single local file, no server, and
// one writer. The connection pool is pinned to a single connection and
// WAL mode is available for concurrent reads during writes.
package database
