// Package services implements the driving port interfaces.
// Services hold the query orchestration, ingestion and history logic and
// reach storage, the index and generation backends only through driven ports.
package services
