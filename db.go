package mapstitch

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog records which captures have been built. Builds are keyed by
// the sequence CRC, so editing a capture directory invalidates its
// entry naturally.
type Catalog struct {
	db *sql.DB
}

// Build is one recorded catalog entry.
type Build struct {
	CRC       string
	BuiltAt   time.Time
	Frames    int
	Fragments int
}

// NewCatalog opens or creates the catalog database.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS build (id INTEGER PRIMARY KEY NOT NULL, crc TEXT NOT NULL UNIQUE, built_at TIMESTAMP NOT NULL, frames INTEGER NOT NULL, fragments INTEGER NOT NULL)"); err != nil {
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// FindBuildByCRC returns the recorded build for a sequence, or nil when
// the sequence was never built.
func (c *Catalog) FindBuildByCRC(crc string) (*Build, error) {
	b := Build{CRC: crc}

	err := c.db.QueryRow("SELECT built_at, frames, fragments FROM build WHERE crc = ?", crc).
		Scan(&b.BuiltAt, &b.Frames, &b.Fragments)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, err
	}

	return &b, nil
}

// RecordBuild stores or replaces the build entry for a sequence.
func (c *Catalog) RecordBuild(crc string, frames, fragments int) error {
	_, err := c.db.Exec(
		"INSERT INTO build (crc, built_at, frames, fragments) VALUES (?, ?, ?, ?) ON CONFLICT(crc) DO UPDATE SET built_at = excluded.built_at, frames = excluded.frames, fragments = excluded.fragments",
		crc, time.Now().UTC(), frames, fragments)
	return err
}

// ForgetBuild removes the entry for a sequence, forcing the next build
// to run.
func (c *Catalog) ForgetBuild(crc string) error {
	_, err := c.db.Exec("DELETE FROM build WHERE crc = ?", crc)
	return err
}
