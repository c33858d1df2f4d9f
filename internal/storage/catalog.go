package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var ErrCatalogClosed = errors.New("storage: catalog is not open")

// Record is one catalogued run.
type Record struct {
	ID          string
	Variant     string
	Created     time.Time
	Particles   int
	TEnd        float64
	Seed        int64
	Integrator  string
	Config      string // yaml snapshot
	File        string // trajectory file, relative to the run directory
	Samples     int
	Steps       int
	Rejected    int
	Evaluations int
	Metrics     map[string]float64
}

// Catalog indexes saved runs in a sqlite database.
type Catalog struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

func (c *Catalog) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return errors.New("catalog path is required")
	}
	if c.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	c.db = db
	return nil
}

func (c *Catalog) Put(ctx context.Context, r Record) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}

	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics for %s: %w", r.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, variant, created, particles, t_end, seed, integrator,
			config, file, samples, steps, rejected, evaluations, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			variant = excluded.variant,
			created = excluded.created,
			particles = excluded.particles,
			t_end = excluded.t_end,
			seed = excluded.seed,
			integrator = excluded.integrator,
			config = excluded.config,
			file = excluded.file,
			samples = excluded.samples,
			steps = excluded.steps,
			rejected = excluded.rejected,
			evaluations = excluded.evaluations,
			metrics = excluded.metrics
	`, r.ID, r.Variant, r.Created.UTC().Format(createdLayout), r.Particles, r.TEnd, r.Seed, r.Integrator,
		r.Config, r.File, r.Samples, r.Steps, r.Rejected, r.Evaluations, string(metrics))
	return err
}

// Get returns the record for id; ok is false when no such run exists.
func (c *Catalog) Get(ctx context.Context, id string) (Record, bool, error) {
	db, err := c.getDB()
	if err != nil {
		return Record{}, false, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return r, true, nil
}

// List returns every record, newest first.
func (c *Catalog) List(ctx context.Context) ([]Record, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+recordColumns+` FROM runs ORDER BY created DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Catalog) getDB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, ErrCatalogClosed
	}
	return c.db, nil
}

// createdLayout has a fixed width so the text column sorts chronologically.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

const recordColumns = `id, variant, created, particles, t_end, seed, integrator,
	config, file, samples, steps, rejected, evaluations, metrics`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		r       Record
		created string
		metrics string
	)
	err := s.Scan(&r.ID, &r.Variant, &created, &r.Particles, &r.TEnd, &r.Seed, &r.Integrator,
		&r.Config, &r.File, &r.Samples, &r.Steps, &r.Rejected, &r.Evaluations, &metrics)
	if err != nil {
		return Record{}, err
	}

	if r.Created, err = time.Parse(createdLayout, created); err != nil {
		return Record{}, fmt.Errorf("decode created time of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
		return Record{}, fmt.Errorf("decode metrics of %s: %w", r.ID, err)
	}
	return r, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			variant TEXT NOT NULL,
			created TEXT NOT NULL,
			particles INTEGER NOT NULL,
			t_end REAL NOT NULL,
			seed INTEGER NOT NULL,
			integrator TEXT NOT NULL,
			config TEXT NOT NULL,
			file TEXT NOT NULL,
			samples INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			evaluations INTEGER NOT NULL,
			metrics TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_created ON runs (created);
	`)
	return err
}
