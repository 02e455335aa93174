// Package cache persists PubChem lookup results in a local SQLite database so
// repeated queries never hit the network.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createCompoundsTable = `
CREATE TABLE IF NOT EXISTS compounds (
    cache_key         TEXT PRIMARY KEY,
    cid               TEXT NOT NULL,
    iupac_name        TEXT,
    molecular_formula TEXT,
    molecular_weight  TEXT,
    canonical_smiles  TEXT,
    inchi             TEXT,
    inchikey          TEXT,
    fetched_at        DATETIME NOT NULL
)`

const createStructuresTable = `
CREATE TABLE IF NOT EXISTS structures (
    cid        TEXT PRIMARY KEY,
    xyz        TEXT NOT NULL,
    fetched_at DATETIME NOT NULL
)`

// Compound is one cached property record.
type Compound struct {
	CID              string
	IUPACName        string
	MolecularFormula string
	MolecularWeight  string
	CanonicalSMILES  string
	InChI            string
	InChIKey         string
}

// DB is a SQLite-backed compound and structure cache.
type DB struct {
	db *sql.DB
}

// Open opens the cache database at dbPath and runs migrations.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createCompoundsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create compounds table: %w", err)
	}

	if _, err := db.Exec(createStructuresTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create structures table: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (c *DB) Close() error {
	return c.db.Close()
}

// GetCompound looks up a property record by cache key. The second return
// value reports whether the key was present.
func (c *DB) GetCompound(ctx context.Context, key string) (Compound, bool, error) {
	var cp Compound
	err := c.db.QueryRowContext(ctx,
		`SELECT cid, iupac_name, molecular_formula, molecular_weight,
			canonical_smiles, inchi, inchikey
		FROM compounds WHERE cache_key = ?`, key,
	).Scan(
		&cp.CID, &cp.IUPACName, &cp.MolecularFormula, &cp.MolecularWeight,
		&cp.CanonicalSMILES, &cp.InChI, &cp.InChIKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Compound{}, false, nil
	}
	if err != nil {
		return Compound{}, false, fmt.Errorf("get compound: %w", err)
	}
	return cp, true, nil
}

// PutCompound stores a property record under the given cache key, replacing
// any previous record.
func (c *DB) PutCompound(ctx context.Context, key string, cp Compound) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO compounds (
			cache_key, cid, iupac_name, molecular_formula, molecular_weight,
			canonical_smiles, inchi, inchikey, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key, cp.CID, cp.IUPACName, cp.MolecularFormula, cp.MolecularWeight,
		cp.CanonicalSMILES, cp.InChI, cp.InChIKey, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put compound: %w", err)
	}
	return nil
}

// GetStructure looks up a rendered XYZ document by CID.
func (c *DB) GetStructure(ctx context.Context, cid string) (string, bool, error) {
	var xyz string
	err := c.db.QueryRowContext(ctx,
		"SELECT xyz FROM structures WHERE cid = ?", cid,
	).Scan(&xyz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get structure: %w", err)
	}
	return xyz, true, nil
}

// PutStructure stores a rendered XYZ document for a CID.
func (c *DB) PutStructure(ctx context.Context, cid, xyz string) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO structures (cid, xyz, fetched_at) VALUES (?, ?, ?)",
		cid, xyz, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put structure: %w", err)
	}
	return nil
}
