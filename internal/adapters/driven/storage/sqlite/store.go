package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DBFile is the database file name inside the data directory.
const DBFile = "rag.db"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a unified SQLite-based storage that hands out the document,
// history and scheduler stores over one connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database in dataDir and applies
// pending migrations. If dataDir is empty, defaults to ~/.sercha-rag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-rag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{db: s.db}
}

// HistoryStore returns a HistoryStore backed by this store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{db: s.db, now: time.Now}
}

// SchedulerStore returns a SchedulerStore backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{db: s.db}
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// migrate applies pending migrations, each in its own transaction together
// with its version row.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	pending, err := migrations.Pending(fsys, current)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := s.apply(ctx, m.Version, m.Script); err != nil {
			return fmt.Errorf("executing migration %s: %w", m.Name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, version int, script string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Document Store ====================

type documentStore struct {
	db *sql.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = "id, uri, title, mime_type, content, checksum, metadata, created_at, updated_at"

// SaveDocument stores or updates a document. The original CreatedAt is
// kept on update.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	metadata, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	now := time.Now()
	created, updated := doc.CreatedAt, doc.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri = excluded.uri,
			title = excluded.title,
			mime_type = excluded.mime_type,
			content = excluded.content,
			checksum = excluded.checksum,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.URI, doc.Title, doc.MIMEType, doc.Content, int64(doc.Checksum),
		metadata, formatTime(created), formatTime(updated))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks replaces the chunks of every document present in chunks.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docIDs := make(map[string]struct{})
	for i := range chunks {
		if chunks[i].DocumentID == "" {
			return domain.ErrInvalidInput
		}
		docIDs[chunks[i].DocumentID] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for id := range docIDs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, content, metadata)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		metadata, err := marshalMetadata(chunks[i].Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, chunks[i].ID, chunks[i].DocumentID,
			chunks[i].Index, chunks[i].Content, metadata); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, metadata
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, chunk_index, content, metadata
		FROM chunks WHERE id = ?
	`, id)
	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chunk, err
}

// DeleteDocument removes a document; its chunks go with it by cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns every document ordered by ID.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// CountChunks returns the total number of stored chunks.
func (s *documentStore) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ==================== History Store ====================

type historyStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ driven.HistoryStore = (*historyStore)(nil)

const historyColumns = "id, session_id, question, answer, mode, response_time_ms, source_count, fallback, created_at"

// Append stores a record and returns its assigned ID.
func (s *historyStore) Append(ctx context.Context, record *domain.HistoryRecord) (int64, error) {
	if record == nil {
		return 0, domain.ErrInvalidInput
	}
	created := record.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (session_id, question, answer, mode, response_time_ms, source_count, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.SessionID, record.Question, record.Answer, string(record.Mode),
		record.ResponseTimeMs, record.SourceCount, boolToInt(record.Fallback), formatTime(created))
	if err != nil {
		return 0, fmt.Errorf("appending history: %w", err)
	}
	return res.LastInsertId()
}

// Query returns one page of matching records, newest first.
func (s *historyStore) Query(ctx context.Context, filter domain.HistoryFilter, page domain.PageRequest) (*domain.HistoryPage, error) {
	page = page.Normalise()
	where, args := historyWhere(filter)

	result := &domain.HistoryPage{Records: []domain.HistoryRecord{}, Page: page.Page, Size: page.Size}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_history"+where, args...).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("counting history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+historyColumns+" FROM query_history"+where+" ORDER BY id DESC LIMIT ? OFFSET ?",
		append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return result, nil
}

// Get retrieves a record by ID.
func (s *historyStore) Get(ctx context.Context, id int64) (*domain.HistoryRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+historyColumns+" FROM query_history WHERE id = ?", id)
	record, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

// DeleteByID removes one record.
func (s *historyStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM query_history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting history record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll removes every record.
func (s *historyStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM query_history"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// DeleteBefore removes records created strictly before cutoff.
func (s *historyStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM query_history WHERE created_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Stats summarises all records.
func (s *historyStore) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN mode = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN mode = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(fallback), 0),
			AVG(response_time_ms)
		FROM query_history
	`, string(domain.QueryModeNLP), string(domain.QueryModeRAG)).Scan(
		&stats.TotalQueries, &stats.NLPQueries, &stats.RAGQueries, &stats.FallbackQueries, &avg)
	if err != nil {
		return nil, fmt.Errorf("computing history stats: %w", err)
	}
	stats.AverageResponseMs = avg.Float64
	stats.ComputePercentages()
	return stats, nil
}

func historyWhere(f domain.HistoryFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, string(f.Mode))
	}
	if f.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ==================== Helper Functions ====================

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		doc              domain.Document
		checksum         int64
		metadata         string
		created, updated string
	)
	if err := row.Scan(&doc.ID, &doc.URI, &doc.Title, &doc.MIMEType, &doc.Content,
		&checksum, &metadata, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Checksum = uint32(checksum)
	doc.CreatedAt = parseTime(created)
	doc.UpdatedAt = parseTime(updated)
	var err error
	if doc.Metadata, err = unmarshalMetadata(metadata); err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var (
		chunk    domain.Chunk
		metadata string
	)
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Content, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	var err error
	if chunk.Metadata, err = unmarshalMetadata(metadata); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func scanHistory(row scanner) (*domain.HistoryRecord, error) {
	var (
		r        domain.HistoryRecord
		mode     string
		fallback int
		created  string
	)
	if err := row.Scan(&r.ID, &r.SessionID, &r.Question, &r.Answer, &mode,
		&r.ResponseTimeMs, &r.SourceCount, &fallback, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning history record: %w", err)
	}
	r.Mode = domain.QueryMode(mode)
	r.Fallback = fallback == 1
	r.CreatedAt = parseTime(created)
	return &r, nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(s string) (map[string]any, error) {
	if s == "" || s == "{}" || s == "null" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime returns the zero time for empty or malformed values.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
