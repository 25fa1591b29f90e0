package telemetry

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists runs in a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies any pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	// One writer; the sqlite driver serialises anyway.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// MigrateVersion reports the applied schema version.
func (s *Store) MigrateVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// The migrate instance is not closed: closing it would close s.db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Debugf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// RunInfo describes a run when it starts.
type RunInfo struct {
	Strategy string
	PathName string
	Dt       float64
}

// RunSummary is written when a run finishes.
type RunSummary struct {
	SimSeconds float64
	Laps       int
	MeanSpeed  float64
}

// RunRecord is a row of the runs table.
type RunRecord struct {
	ID        string
	Info      RunInfo
	StartedAt time.Time
	Summary   RunSummary
	Finished  bool
}

// StartRun inserts a run row and returns a Sink that records into it.
func (s *Store) StartRun(ctx context.Context, info RunInfo) (*Run, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, strategy, path_name, dt) VALUES (?, ?, ?, ?)`,
		id, info.Strategy, info.PathName, info.Dt)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	monitoring.Logf("telemetry: run %s started (%s)", id, info.Strategy)
	// Writes outlive cancellation of ctx so an interrupted run still
	// records its last events and its summary.
	return &Run{store: s, id: id, ctx: context.WithoutCancel(ctx)}, nil
}

// Runs lists every run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, strategy, path_name, dt, started_at, sim_seconds, laps, mean_speed
		FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r         RunRecord
			simSecs   sql.NullFloat64
			laps      sql.NullInt64
			meanSpeed sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Info.Strategy, &r.Info.PathName, &r.Info.Dt, &r.StartedAt, &simSecs, &laps, &meanSpeed); err != nil {
			return nil, err
		}
		r.Finished = simSecs.Valid
		r.Summary = RunSummary{SimSeconds: simSecs.Float64, Laps: int(laps.Int64), MeanSpeed: meanSpeed.Float64}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Checkpoints returns a run's checkpoints in time order.
func (s *Store) Checkpoints(ctx context.Context, runID string) ([]Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sim_time, idx FROM checkpoints WHERE run_id = ? ORDER BY sim_time, rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var c Checkpoint
		if err := rows.Scan(&c.Time, &c.Index); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Laps returns a run's laps in order.
func (s *Store) Laps(ctx context.Context, runID string) ([]Lap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lap_number, start_time, end_time, splits FROM laps WHERE run_id = ? ORDER BY lap_number`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lap
	for rows.Next() {
		var (
			l      Lap
			splits string
		)
		if err := rows.Scan(&l.Number, &l.Start, &l.End, &splits); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(splits), &l.Splits); err != nil {
			return nil, fmt.Errorf("lap %d splits: %w", l.Number, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// PoseSamples returns a run's pose samples in time order.
func (s *Store) PoseSamples(ctx context.Context, runID string) ([]PoseSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sim_time, x, y, z, yaw, speed, gear, engine_rpm, accel, steer, target
		FROM pose_samples WHERE run_id = ? ORDER BY sim_time, rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PoseSample
	for rows.Next() {
		var (
			p       PoseSample
			x, y, z float64
		)
		if err := rows.Scan(&p.Time, &x, &y, &z, &p.Pose.Yaw, &p.Drive.Speed, &p.Drive.Gear,
			&p.Drive.EngineRPM, &p.Drive.Accel, &p.Drive.Steer, &p.Target); err != nil {
			return nil, err
		}
		p.Pose.Position = mgl64.Vec3{x, y, z}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Run is a Sink bound to one run row. Write failures do not interrupt the
// simulation; the first one is logged and kept for Err.
type Run struct {
	store *Store
	id    string
	ctx   context.Context

	mu  sync.Mutex
	err error
}

// ID returns the run's UUID.
func (r *Run) ID() string { return r.id }

// Err returns the first write error, if any.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Run) CheckpointReached(c Checkpoint) {
	r.exec(`INSERT INTO checkpoints (run_id, sim_time, idx) VALUES (?, ?, ?)`, r.id, c.Time, c.Index)
}

func (r *Run) LapCompleted(l Lap) {
	splits, err := json.Marshal(l.Splits)
	if err != nil {
		r.fail(err)
		return
	}
	r.exec(`INSERT INTO laps (run_id, lap_number, start_time, end_time, splits) VALUES (?, ?, ?, ?, ?)`,
		r.id, l.Number, l.Start, l.End, string(splits))
}

func (r *Run) PoseSampled(p PoseSample) {
	pos := p.Pose.Position
	r.exec(`INSERT INTO pose_samples (run_id, sim_time, x, y, z, yaw, speed, gear, engine_rpm, accel, steer, target)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, p.Time, pos.X(), pos.Y(), pos.Z(), p.Pose.Yaw, p.Drive.Speed, p.Drive.Gear,
		p.Drive.EngineRPM, p.Drive.Accel, p.Drive.Steer, p.Target)
}

// Finish writes the run summary.
func (r *Run) Finish(sum RunSummary) error {
	_, err := r.store.db.ExecContext(r.ctx,
		`UPDATE runs SET sim_seconds = ?, laps = ?, mean_speed = ? WHERE run_id = ?`,
		sum.SimSeconds, sum.Laps, sum.MeanSpeed, r.id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", r.id, err)
	}
	return r.Err()
}

func (r *Run) exec(query string, args ...interface{}) {
	if _, err := r.store.db.ExecContext(r.ctx, query, args...); err != nil {
		r.fail(err)
	}
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
		monitoring.Logf("telemetry: run %s: write failed: %v", r.id, err)
	}
}
