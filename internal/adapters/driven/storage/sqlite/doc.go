// Package sqlite persists documents, chunks, query history and scheduler
// state in a single SQLite database using modernc.org/sqlite, a pure Go
// driver that needs no CGO.
//
// One Store hands out three port implementations over a shared *sql.DB:
//
//   - DocumentStore: documents and their chunks
//   - HistoryStore: answered questions
//   - SchedulerStore: background task state and results
//
// # Schema
//
// The schema lives in versioned migrations under migrations/. Each
// NNN_name.up.sql file is applied once, in order, inside a transaction.
//
// # Data Location
//
// By default the database is ~/.sercha-rag/data/rag.db. The database runs
// in WAL mode with foreign keys enabled on every connection.
package sqlite
