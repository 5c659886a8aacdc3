package offline

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"
)

// Storage holds named cache stores in a SQLite database.
type Storage struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

const dsnParams = "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

func Open(dbPath string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+dsnParams)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Storage{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS stores (
			name       TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entries (
			store     TEXT NOT NULL REFERENCES stores(name) ON DELETE CASCADE,
			key       TEXT NOT NULL,
			status    INTEGER NOT NULL,
			header    TEXT NOT NULL DEFAULT '{}',
			body      BLOB NOT NULL,
			digest    INTEGER NOT NULL,
			stored_at DATETIME NOT NULL,
			PRIMARY KEY (store, key)
		);
		CREATE INDEX IF NOT EXISTS idx_entries_key ON entries(key);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

// Keys lists store names in creation order.
func (s *Storage) Keys() ([]string, error) {
	rows, err := s.readDB.Query("SELECT name FROM stores ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning store: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Versions returns the versions that have a static store under prefix,
// oldest first. The last one is the most recently installed.
func (s *Storage) Versions(prefix string) ([]string, error) {
	names, err := s.Keys()
	if err != nil {
		return nil, err
	}
	marker := prefix + "-static-"
	var out []string
	for _, name := range names {
		if v, ok := strings.CutPrefix(name, marker); ok && v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// Has reports whether a store exists.
func (s *Storage) Has(name string) (bool, error) {
	var n int
	err := s.readDB.QueryRow("SELECT COUNT(*) FROM stores WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking store %s: %w", name, err)
	}
	return n > 0, nil
}

// Delete removes a store and its entries. It reports whether the store existed.
func (s *Storage) Delete(name string) (bool, error) {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE store = ?", name); err != nil {
		return false, fmt.Errorf("deleting entries of %s: %w", name, err)
	}
	res, err := tx.Exec("DELETE FROM stores WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("deleting store %s: %w", name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, tx.Commit()
}

// Match looks key up in every store, oldest store first.
func (s *Storage) Match(key string) (*Response, bool, error) {
	row := s.readDB.QueryRow(`
		SELECT e.status, e.header, e.body
		FROM entries e JOIN stores st ON st.name = e.store
		WHERE e.key = ?
		ORDER BY st.rowid
		LIMIT 1`, key)
	return scanResponse(row)
}

// Bucket returns a handle on one named store. The store is created on first write.
func (s *Storage) Bucket(name string) *Bucket {
	return &Bucket{s: s, name: name}
}

// PutAll creates the store if needed and writes every entry in one
// transaction: either all entries are stored or none are.
func (s *Storage) PutAll(name string, entries map[string]*Response) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := ensureStore(tx, name, now); err != nil {
		return err
	}
	stmt, err := tx.Prepare(upsertEntry)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, resp := range entries {
		if err := execPut(stmt, name, key, resp, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Entries lists the entries of a store without their bodies.
func (s *Storage) Entries(name string) ([]Entry, error) {
	rows, err := s.readDB.Query(`
		SELECT key, status, length(body), digest, stored_at
		FROM entries WHERE store = ? ORDER BY key`, name)
	if err != nil {
		return nil, fmt.Errorf("listing entries of %s: %w", name, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			digest int64
		)
		e.Store = name
		if err := rows.Scan(&e.Key, &e.Status, &e.Size, &digest, &e.StoredAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Digest = uint64(digest)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarizes every store and returns the database file size.
func (s *Storage) Stats(dbPath string) ([]StoreStats, int64, error) {
	rows, err := s.readDB.Query(`
		SELECT st.name, st.created_at, COUNT(e.key), COALESCE(SUM(length(e.body)), 0)
		FROM stores st LEFT JOIN entries e ON e.store = st.name
		GROUP BY st.name
		ORDER BY st.rowid`)
	if err != nil {
		return nil, 0, fmt.Errorf("reading stats: %w", err)
	}
	defer rows.Close()

	var stats []StoreStats
	for rows.Next() {
		var st StoreStats
		if err := rows.Scan(&st.Name, &st.CreatedAt, &st.Entries, &st.Bytes); err != nil {
			return nil, 0, fmt.Errorf("scanning stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return stats, 0, nil
	}
	return stats, info.Size(), nil
}

// Bucket is one named cache store.
type Bucket struct {
	s    *Storage
	name string
}

func (b *Bucket) Name() string { return b.name }

// Match returns the entry stored under key in this store.
func (b *Bucket) Match(key string) (*Response, bool, error) {
	row := b.s.readDB.QueryRow(
		"SELECT status, header, body FROM entries WHERE store = ? AND key = ?", b.name, key)
	return scanResponse(row)
}

// Digest returns the body digest of the entry under key.
func (b *Bucket) Digest(key string) (uint64, bool, error) {
	var d int64
	err := b.s.readDB.QueryRow(
		"SELECT digest FROM entries WHERE store = ? AND key = ?", b.name, key).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint64(d), true, nil
}

// Put stores one response under key. Each put is atomic on its own.
func (b *Bucket) Put(key string, resp *Response) error {
	tx, err := b.s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := ensureStore(tx, b.name, now); err != nil {
		return err
	}
	stmt, err := tx.Prepare(upsertEntry)
	if err != nil {
		return err
	}
	defer stmt.Close()
	if err := execPut(stmt, b.name, key, resp, now); err != nil {
		return err
	}
	return tx.Commit()
}

const upsertEntry = `
	INSERT INTO entries (store, key, status, header, body, digest, stored_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(store, key) DO UPDATE SET
		status = excluded.status,
		header = excluded.header,
		body = excluded.body,
		digest = excluded.digest,
		stored_at = excluded.stored_at
`

func ensureStore(tx *sql.Tx, name string, now time.Time) error {
	_, err := tx.Exec(`INSERT INTO stores (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, name, now)
	if err != nil {
		return fmt.Errorf("creating store %s: %w", name, err)
	}
	return nil
}

func execPut(stmt *sql.Stmt, store, key string, resp *Response, now time.Time) error {
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("encoding headers for %s: %w", key, err)
	}
	body := resp.Body
	if body == nil {
		body = []byte{}
	}
	if _, err := stmt.Exec(store, key, resp.Status, string(header), body, int64(Digest(body)), now); err != nil {
		return fmt.Errorf("storing %s in %s: %w", key, store, err)
	}
	return nil
}

// Digest hashes a response body.
func Digest(body []byte) uint64 {
	return xxhash.Sum64(body)
}

func scanResponse(row *sql.Row) (*Response, bool, error) {
	var (
		resp   Response
		header string
	)
	err := row.Scan(&resp.Status, &header, &resp.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached response: %w", err)
	}
	resp.Header = http.Header{}
	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		return nil, false, fmt.Errorf("decoding cached headers: %w", err)
	}
	return &resp, true, nil
}
