package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/feedsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a SQLite database exposing the storage ports through wrapper types.
type Store struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.feedsync/data/feed.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".feedsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "feed.db")

	// WAL lets readers proceed while a batch is being written.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
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
	return &documentStore{store: s}
}

// ActiveDataStore returns an ActiveDataStore backed by this store.
func (s *Store) ActiveDataStore() driven.ActiveDataStore {
	return &activeDataStore{store: s}
}

// EngineStateStore returns an EngineStateStore backed by this store.
func (s *Store) EngineStateStore() driven.EngineStateStore {
	return &engineStateStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const upsertDocument = `
	INSERT INTO documents (id, stack_id, batch_index, created_at, title, snippet, url,
		source_url, thumbnail, date_published, provider_rank, score, country, language,
		topic, is_active, user_reaction)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		stack_id = excluded.stack_id,
		batch_index = excluded.batch_index,
		created_at = excluded.created_at,
		title = excluded.title,
		snippet = excluded.snippet,
		url = excluded.url,
		source_url = excluded.source_url,
		thumbnail = excluded.thumbnail,
		date_published = excluded.date_published,
		provider_rank = excluded.provider_rank,
		score = excluded.score,
		country = excluded.country,
		language = excluded.language,
		topic = excluded.topic,
		is_active = excluded.is_active,
		user_reaction = excluded.user_reaction
`

const documentColumns = `id, stack_id, batch_index, created_at, title, snippet, url, source_url,
		thumbnail, date_published, provider_rank, score, country, language, topic,
		is_active, user_reaction`

const (
	selectDocument          = "SELECT " + documentColumns + " FROM documents"
	selectSequencedDocument = "SELECT seq, " + documentColumns + " FROM documents"
)

func documentArgs(doc *domain.Document) []any {
	var thumbnail sql.NullString
	if doc.Resource.Thumbnail != nil {
		thumbnail = sql.NullString{String: *doc.Resource.Thumbnail, Valid: true}
	}
	return []any{
		doc.ID[:], doc.StackID[:], doc.BatchIndex, timeToNullInt(doc.Timestamp),
		doc.Resource.Title, doc.Resource.Snippet, doc.Resource.URL, doc.Resource.SourceURL,
		thumbnail, timeToNullInt(doc.Resource.DatePublished), doc.Resource.Rank,
		doc.Resource.Score, doc.Resource.Country, doc.Resource.Language, doc.Resource.Topic,
		doc.IsActive, int(doc.UserReaction),
	}
}

// Update stores or replaces a document.
func (s *documentStore) Update(ctx context.Context, doc domain.Document) error {
	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	if _, err := s.store.db.ExecContext(ctx, upsertDocument, documentArgs(&doc)...); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// UpdateMany stores or replaces documents in one transaction.
func (s *documentStore) UpdateMany(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertDocument)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range docs {
		if _, err := stmt.ExecContext(ctx, documentArgs(&docs[i])...); err != nil {
			return fmt.Errorf("saving document %s: %w", docs[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FetchByID retrieves a document by ID.
func (s *documentStore) FetchByID(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, selectDocument+" WHERE id = ?", id[:])
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &docs[0], nil
}

// maxIDsPerQuery bounds the IN list of a single statement, well below
// SQLite's host parameter limit.
const maxIDsPerQuery = 500

// FetchByIDs returns the documents present for ids in insertion order. Large
// id lists are queried in chunks inside one transaction and merged on seq.
func (s *documentStore) FetchByIDs(ctx context.Context, ids []domain.DocumentID) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	unique := make([]domain.DocumentID, 0, len(ids))
	seen := make(map[domain.DocumentID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var found []sequencedDocument
	for chunk := range slices.Chunk(unique, maxIDsPerQuery) {
		docs, err := fetchChunk(ctx, tx, chunk)
		if err != nil {
			return nil, err
		}
		found = append(found, docs...)
	}
	slices.SortFunc(found, func(a, b sequencedDocument) int {
		return cmp.Compare(a.seq, b.seq)
	})

	docs := make([]domain.Document, len(found))
	for i := range found {
		docs[i] = found[i].doc
	}
	return docs, nil
}

type sequencedDocument struct {
	seq int64
	doc domain.Document
}

func fetchChunk(ctx context.Context, tx *sql.Tx, ids []domain.DocumentID) ([]sequencedDocument, error) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i := range ids {
		placeholders[i] = "?"
		args[i] = ids[i][:]
	}
	query := selectSequencedDocument + " WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []sequencedDocument
	for rows.Next() {
		var d sequencedDocument
		if d.doc, err = scanDocument(rows, &d.seq); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// FetchAll returns every document in insertion order.
func (s *documentStore) FetchAll(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, selectDocument+" ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	return scanDocuments(rows)
}

// Remove deletes documents in one transaction.
func (s *documentStore) Remove(ctx context.Context, ids []domain.DocumentID) error {
	if len(ids) == 0 {
		return nil
	}
	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id[:]); err != nil {
			return fmt.Errorf("deleting document %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Active Data Store ====================

// activeDataStore implements driven.ActiveDataStore.
type activeDataStore struct {
	store *Store
}

var _ driven.ActiveDataStore = (*activeDataStore)(nil)

// Update stores or replaces the data of a document.
func (s *activeDataStore) Update(ctx context.Context, id domain.DocumentID, data domain.ActiveDocumentData) error {
	viewTimeJSON, err := json.Marshal(data.ViewTime)
	if err != nil {
		return fmt.Errorf("marshalling view time: %w", err)
	}

	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO active_documents (id, embedding, view_time)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding = excluded.embedding,
			view_time = excluded.view_time
	`, id[:], float32SliceToBytes(data.Embedding), string(viewTimeJSON))
	if err != nil {
		return fmt.Errorf("saving active data: %w", err)
	}
	return nil
}

// Get retrieves the data of a document.
func (s *activeDataStore) Get(ctx context.Context, id domain.DocumentID) (*domain.ActiveDocumentData, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT embedding, view_time FROM active_documents WHERE id = ?
	`, id[:])

	var embedding []byte
	var viewTimeJSON string
	if err := row.Scan(&embedding, &viewTimeJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning active data: %w", err)
	}

	data := domain.ActiveDocumentData{Embedding: bytesToFloat32Slice(embedding)}
	if viewTimeJSON != "" && viewTimeJSON != jsonNull {
		if err := json.Unmarshal([]byte(viewTimeJSON), &data.ViewTime); err != nil {
			return nil, fmt.Errorf("unmarshalling view time: %w", err)
		}
	}
	return &data, nil
}

// Delete removes the data of a document.
func (s *activeDataStore) Delete(ctx context.Context, id domain.DocumentID) error {
	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM active_documents WHERE id = ?", id[:]); err != nil {
		return fmt.Errorf("deleting active data: %w", err)
	}
	return nil
}

// ==================== Engine State Store ====================

// engineStateStore implements driven.EngineStateStore.
type engineStateStore struct {
	store *Store
}

var _ driven.EngineStateStore = (*engineStateStore)(nil)

// Save replaces the stored state.
func (s *engineStateStore) Save(ctx context.Context, state []byte) error {
	if state == nil {
		state = []byte{}
	}
	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO engine_state (id, state, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, state, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("saving engine state: %w", err)
	}
	return nil
}

// Load returns the stored state.
func (s *engineStateStore) Load(ctx context.Context) ([]byte, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT state FROM engine_state WHERE id = 1")
	var state []byte
	if err := row.Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning engine state: %w", err)
	}
	if state == nil {
		state = []byte{}
	}
	return state, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// timeToNullInt stores times as Unix nanoseconds; the zero time is NULL.
func timeToNullInt(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nullIntToTime(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64).UTC()
}

func scanID(dst *[16]byte, src []byte, column string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("scanning document: %s has %d bytes", column, len(src))
	}
	copy(dst[:], src)
	return nil
}

// scanDocuments scans and closes rows.
func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// scanDocument scans the current row into a document. lead receives any
// columns selected ahead of documentColumns.
func scanDocument(rows *sql.Rows, lead ...any) (domain.Document, error) {
	var (
		doc           domain.Document
		id, stackID   []byte
		createdAt     sql.NullInt64
		datePublished sql.NullInt64
		thumbnail     sql.NullString
		reaction      int
	)
	dest := append(lead, &id, &stackID, &doc.BatchIndex, &createdAt,
		&doc.Resource.Title, &doc.Resource.Snippet, &doc.Resource.URL, &doc.Resource.SourceURL,
		&thumbnail, &datePublished, &doc.Resource.Rank, &doc.Resource.Score,
		&doc.Resource.Country, &doc.Resource.Language, &doc.Resource.Topic,
		&doc.IsActive, &reaction)
	if err := rows.Scan(dest...); err != nil {
		return domain.Document{}, fmt.Errorf("scanning document: %w", err)
	}
	if err := scanID((*[16]byte)(&doc.ID), id, "id"); err != nil {
		return domain.Document{}, err
	}
	if err := scanID((*[16]byte)(&doc.StackID), stackID, "stack_id"); err != nil {
		return domain.Document{}, err
	}
	doc.Timestamp = nullIntToTime(createdAt)
	doc.Resource.DatePublished = nullIntToTime(datePublished)
	if thumbnail.Valid {
		doc.Resource.Thumbnail = &thumbnail.String
	}
	doc.UserReaction = domain.UserReaction(reaction)
	if !doc.UserReaction.IsValid() {
		return domain.Document{}, fmt.Errorf("scanning document: unknown reaction %d", reaction)
	}
	return doc, nil
}
