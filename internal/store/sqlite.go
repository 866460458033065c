package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dgallion1/regindex/internal/doctree"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS source (
    celex TEXT NOT NULL,
    lang TEXT NOT NULL,
    pdf_path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
    pages INTEGER NOT NULL,
    articles_found INTEGER NOT NULL,
    chunks INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL,
    article INTEGER NOT NULL,
    chunk_index INTEGER NOT NULL,
    page_from INTEGER NOT NULL,
    page_to INTEGER NOT NULL,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_article ON chunks(article);
`

// SQLiteExporter mirrors an index into a SQLite database for SQL consumers.
// Each Export replaces the previous contents.
type SQLiteExporter struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteExporter, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteExporter{db: db}, nil
}

// Close closes the database connection.
func (e *SQLiteExporter) Close() error {
	return e.db.Close()
}

// Export replaces the stored index with idx in a single transaction.
func (e *SQLiteExporter) Export(ctx context.Context, idx doctree.Index) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"source", "stats", "chunks"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO source (celex, lang, pdf_path) VALUES (?, ?, ?)",
		idx.Source.Celex, idx.Source.Lang, idx.Source.PDFPath,
	); err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO stats (pages, articles_found, chunks) VALUES (?, ?, ?)",
		idx.Stats.Pages, idx.Stats.ArticlesFound, idx.Stats.Chunks,
	); err != nil {
		return fmt.Errorf("insert stats: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, seq, article, chunk_index, page_from, page_to, text) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range idx.Chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, i, c.Article, c.ChunkIndex, c.PageFrom, c.PageTo, c.Text); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the stored index back, chunks in build order.
func (e *SQLiteExporter) Load(ctx context.Context) (doctree.Index, error) {
	var idx doctree.Index

	err := e.db.QueryRowContext(ctx, "SELECT celex, lang, pdf_path FROM source LIMIT 1").
		Scan(&idx.Source.Celex, &idx.Source.Lang, &idx.Source.PDFPath)
	if err != nil && err != sql.ErrNoRows {
		return idx, fmt.Errorf("select source: %w", err)
	}
	err = e.db.QueryRowContext(ctx, "SELECT pages, articles_found, chunks FROM stats LIMIT 1").
		Scan(&idx.Stats.Pages, &idx.Stats.ArticlesFound, &idx.Stats.Chunks)
	if err != nil && err != sql.ErrNoRows {
		return idx, fmt.Errorf("select stats: %w", err)
	}

	rows, err := e.db.QueryContext(ctx,
		"SELECT id, article, chunk_index, page_from, page_to, text FROM chunks ORDER BY seq")
	if err != nil {
		return idx, fmt.Errorf("select chunks: %w", err)
	}
	defer rows.Close()

	idx.Chunks = []doctree.Chunk{}
	for rows.Next() {
		var c doctree.Chunk
		if err := rows.Scan(&c.ID, &c.Article, &c.ChunkIndex, &c.PageFrom, &c.PageTo, &c.Text); err != nil {
			return idx, fmt.Errorf("scan chunk: %w", err)
		}
		idx.Chunks = append(idx.Chunks, c)
	}
	return idx, rows.Err()
}
