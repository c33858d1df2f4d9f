package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/brinksim/internal/config"
	"github.com/san-kum/brinksim/internal/dynamo"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	catalogFile = "catalog.db"
	timesFile   = "times.npy"
)

// Store keeps one directory per run under baseDir, holding the trajectory
// array and its sample times, and indexes the runs in a sqlite catalog.
type Store struct {
	baseDir string
	catalog *Catalog
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		catalog: NewCatalog(filepath.Join(baseDir, catalogFile)),
	}
}

func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	return s.catalog.Open(ctx)
}

func (s *Store) Close() error { return s.catalog.Close() }

// Save writes the trajectory of result and catalogues it under a fresh id.
func (s *Store) Save(ctx context.Context, cfg *config.Config, result *dynamo.Result) (Record, error) {
	snapshot, err := yaml.Marshal(cfg)
	if err != nil {
		return Record{}, fmt.Errorf("encode config: %w", err)
	}

	rec := Record{
		ID:          uuid.NewString(),
		Variant:     cfg.Variant(),
		Created:     time.Now(),
		Particles:   cfg.NumParticles(),
		TEnd:        cfg.Time.End,
		Seed:        cfg.Seed,
		Integrator:  cfg.Integrator,
		Config:      string(snapshot),
		File:        OutputName(cfg),
		Samples:     len(result.States),
		Steps:       result.StepsTaken,
		Rejected:    result.Rejected,
		Evaluations: result.Evaluations,
		Metrics:     result.Metrics,
	}

	runDir := filepath.Join(s.baseDir, rec.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return Record{}, err
	}

	shape, data := TrajectoryArray(result.States)
	if err := SaveNPY(filepath.Join(runDir, rec.File), shape, data); err != nil {
		return Record{}, fmt.Errorf("write trajectory: %w", err)
	}
	if err := SaveNPY(filepath.Join(runDir, timesFile), []int{len(result.Times)}, result.Times); err != nil {
		return Record{}, fmt.Errorf("write times: %w", err)
	}

	if err := s.catalog.Put(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("catalog run %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context) ([]Record, error) {
	return s.catalog.List(ctx)
}

func (s *Store) Load(ctx context.Context, id string) (Record, error) {
	rec, ok, err := s.catalog.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return rec, nil
}

// LoadConfig decodes the configuration snapshot taken when the run was saved.
func (s *Store) LoadConfig(ctx context.Context, id string) (*config.Config, error) {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg := config.DefaultConfig()
	if err := yaml.Unmarshal([]byte(rec.Config), cfg); err != nil {
		return nil, fmt.Errorf("decode config of %s: %w", id, err)
	}
	return cfg, nil
}

// LoadTrajectory reads back the sample times and states of a saved run.
func (s *Store) LoadTrajectory(ctx context.Context, id string) ([]float64, []dynamo.State, error) {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	runDir := filepath.Join(s.baseDir, rec.ID)

	shape, data, err := LoadNPY(filepath.Join(runDir, rec.File))
	if err != nil {
		return nil, nil, fmt.Errorf("read trajectory: %w", err)
	}
	states, err := StatesFromArray(shape, data)
	if err != nil {
		return nil, nil, err
	}

	_, times, err := LoadNPY(filepath.Join(runDir, timesFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read times: %w", err)
	}
	if len(times) != len(states) {
		return nil, nil, fmt.Errorf("%w: %d times for %d samples", ErrShapeMismatch, len(times), len(states))
	}
	return times, states, nil
}

// Path is where the trajectory file of rec lives.
func (s *Store) Path(rec Record) string {
	return filepath.Join(s.baseDir, rec.ID, rec.File)
}

// ExportCSV writes a saved run as one row per sample: the time followed by
// the x, y, z of every particle.
func (s *Store) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	times, states, err := s.LoadTrajectory(ctx, id)
	if err != nil {
		return err
	}
	return WriteCSV(w, times, states)
}
