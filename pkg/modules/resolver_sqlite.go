package modules

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"stackjs/pkg/errors"
)

// SQLResolver resolves db:// modules stored in a SQLite table
// modules(path TEXT PRIMARY KEY, source BLOB). Paths are absolute slash
// paths; directories are implied by the stored paths.
type SQLResolver struct {
	db    *sql.DB
	owned bool // Close closes db
}

const createModulesTable = `CREATE TABLE IF NOT EXISTS modules (
	path   TEXT PRIMARY KEY,
	source BLOB
)`

// OpenSQLResolver opens (creating if needed) the SQLite database at dsn.
// ":memory:" gives a private in-memory database.
func OpenSQLResolver(dsn string) (*SQLResolver, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	r, err := NewSQLResolver(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.owned = true
	log.Infof("module database opened at %s", dsn)
	return r, nil
}

// NewSQLResolver uses an already open database, creating the modules table
// if needed.
func NewSQLResolver(db *sql.DB) (*SQLResolver, error) {
	if _, err := db.Exec(createModulesTable); err != nil {
		return nil, fmt.Errorf("creating modules table: %w", err)
	}
	return &SQLResolver{db: db}, nil
}

// Close closes the database if the resolver opened it
func (r *SQLResolver) Close() error {
	if r.owned && r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Put stores or replaces the module at p
func (r *SQLResolver) Put(p string, source []byte) error {
	p = cleanModulePath(p)
	_, err := r.db.Exec(`INSERT INTO modules (path, source) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET source = excluded.source`, p, source)
	if err != nil {
		return fmt.Errorf("storing module %s: %w", p, err)
	}
	log.Debugf("stored module %s (%s)", p, humanize.Bytes(uint64(len(source))))
	return nil
}

// Delete removes the module at p
func (r *SQLResolver) Delete(p string) error {
	_, err := r.db.Exec(`DELETE FROM modules WHERE path = ?`, cleanModulePath(p))
	return err
}

// List returns every stored module path, sorted
func (r *SQLResolver) List() ([]string, error) {
	rows, err := r.db.Query(`SELECT path FROM modules ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (r *SQLResolver) stat(p string) (entryKind, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM modules WHERE path = ?`, p).Scan(&one)
	switch {
	case err == nil:
		return entryFile, nil
	case !stderrors.Is(err, sql.ErrNoRows):
		return entryMissing, err
	}

	// Any path under p/ makes p a directory. "0" sorts right after "/".
	prefix := strings.TrimSuffix(p, "/") + "/"
	upper := strings.TrimSuffix(p, "/") + "0"
	err = r.db.QueryRow(`SELECT 1 FROM modules WHERE path >= ? AND path < ? LIMIT 1`, prefix, upper).Scan(&one)
	switch {
	case err == nil:
		return entryDir, nil
	case stderrors.Is(err, sql.ErrNoRows):
		return entryMissing, nil
	}
	return entryMissing, err
}

// Resolve implements Resolver. Top-level relative specifiers start at "/".
func (r *SQLResolver) Resolve(specifier string, parent string, extensions []string) (string, error) {
	return resolveWith(specifier, parent, "/", extensions, r.stat)
}

// Read implements Resolver
func (r *SQLResolver) Read(p string) ([]byte, error) {
	var source []byte
	err := r.db.QueryRow(`SELECT source FROM modules WHERE path = ?`, p).Scan(&source)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewLoadError(p, "module not found")
		}
		return nil, (&errors.LoadError{ID: p, Msg: err.Error()}).CausedBy(err)
	}
	return source, nil
}
