// Package domain holds the value types shared by every layer of the
// query engine: documents and their chunks, routing decisions, query
// results, history records, scheduler state and settings.
//
// It imports only the standard library. Ports, services and adapters
// depend on it; it depends on none of them.
package domain
