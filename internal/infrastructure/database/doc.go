// Package database manages the SQLite connection for OpsDeck Core.
//
// It opens the database with WAL mode, a busy timeout, and foreign keys
// enabled, keeps the pool at a single connection to match SQLite's
// single-writer model, and applies embedded schema migrations on startup.
//
// Migration files live in the top-level migrations package and are compiled
// into the binary via go:embed, so deployments never need the SQL files on
// disk. Each migration runs in its own transaction.
package database
