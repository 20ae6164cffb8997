// SPDX-License-Identifier: EPL-2.0

// Package cache stores normalized NAPs in SQLite, keyed by the content of
// the input file and every parameter that influences the result.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

var ErrCorruptEntry = errors.New("corrupt cache entry")

// entry is the msgpack payload of one cached matrix.
type entry struct {
	Rows int       `msgpack:"r"`
	Cols int       `msgpack:"c"`
	Data []float64 `msgpack:"d"`
}

// Cache is safe for concurrent use; SQLite serializes the writes.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS naps (
		key TEXT PRIMARY KEY,
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at TEXT NOT NULL
	)`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Digest hashes the bytes of r.
func Digest(r io.Reader) ([]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return h.Sum(nil), nil
}

// DigestFile hashes the file at path.
func DigestFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()

	return Digest(f)
}

// Key combines an input digest with params. params must encode
// deterministically with msgpack, so pass a struct, not a map.
func Key(digest []byte, params any) (string, error) {
	enc, err := msgpack.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding cache params: %w", err)
	}

	h := sha256.New()
	h.Write(digest)
	h.Write(enc)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the matrix stored under key. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*mat.Dense, bool, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, `SELECT data FROM naps WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}

	var e entry
	if err := msgpack.Unmarshal(blob, &e); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}

	if e.Rows < 1 || e.Cols < 1 || len(e.Data) != e.Rows*e.Cols {
		return nil, false, fmt.Errorf("%w: %dx%d with %d values", ErrCorruptEntry, e.Rows, e.Cols, len(e.Data))
	}

	return mat.NewDense(e.Rows, e.Cols, e.Data), true, nil
}

// Put stores m under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, m mat.Matrix) error {
	dense := mat.DenseCopyOf(m)
	raw := dense.RawMatrix()

	blob, err := msgpack.Marshal(entry{Rows: raw.Rows, Cols: raw.Cols, Data: raw.Data})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO naps (key, rows, cols, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		key, raw.Rows, raw.Cols, blob, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}

	return nil
}

// Len reports the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM naps`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
