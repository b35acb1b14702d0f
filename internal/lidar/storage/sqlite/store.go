// Package sqlite persists driver sessions in SQLite: the sensor metadata a
// session ran with and the conversion statistics of every revolution. The
// schema is embedded and migrated on Open.
package sqlite

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
	"github.com/banshee-data/ouster-bridge/internal/lidar/pipeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Store persists sensor metadata and per-revolution statistics. It
// satisfies pipeline.StatsSink.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and migrates it to the latest
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writers from concurrent workers.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Closing the migrate instance would close s.db, so it is left to the GC.
func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current schema version and dirty state.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// InsertMetadata stores the metadata a session ran with. Re-inserting the
// same session replaces the row.
func (s *Store) InsertMetadata(sessionID string, md ouster.Metadata) error {
	blob, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO sensor_metadata
			(session_id, lidar_ip, computer_ip, lidar_port, imu_port, lidar_mode, num_lasers, metadata_json, created_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, md.LidarIP, md.ComputerIP, md.LidarPort, md.IMUPort, string(md.Mode), md.NumLasers,
		string(blob), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert metadata: %w", err)
	}
	return nil
}

// Metadata returns the metadata stored for a session. It returns
// sql.ErrNoRows when the session is unknown.
func (s *Store) Metadata(sessionID string) (ouster.Metadata, error) {
	var blob string
	err := s.db.QueryRow(`SELECT metadata_json FROM sensor_metadata WHERE session_id = ?`, sessionID).Scan(&blob)
	if err != nil {
		return ouster.Metadata{}, fmt.Errorf("failed to load metadata for %s: %w", sessionID, err)
	}
	var md ouster.Metadata
	if err := json.Unmarshal([]byte(blob), &md); err != nil {
		return ouster.Metadata{}, fmt.Errorf("failed to parse metadata for %s: %w", sessionID, err)
	}
	return md, nil
}

// RecordRevolution stores the statistics of one revolution.
func (s *Store) RecordRevolution(st pipeline.RevolutionStats) error {
	_, err := s.db.Exec(`
		INSERT INTO revolution_stats
			(session_id, seq, stamp_ns, rings, columns, dense, cloud_bytes, scan_points, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.SessionID, int64(st.Seq), st.StampNanos, st.Rings, st.Columns, st.Dense,
		st.CloudBytes, st.ScanPoints, st.Elapsed.Nanoseconds())
	if err != nil {
		return fmt.Errorf("failed to insert revolution %d stats: %w", st.Seq, err)
	}
	return nil
}

// ListRevolutions returns a session's revolution statistics ordered by
// sequence number.
func (s *Store) ListRevolutions(sessionID string) ([]pipeline.RevolutionStats, error) {
	rows, err := s.db.Query(`
		SELECT seq, stamp_ns, rings, columns, dense, cloud_bytes, scan_points, elapsed_ns
		FROM revolution_stats
		WHERE session_id = ?
		ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query revolutions: %w", err)
	}
	defer rows.Close()

	var out []pipeline.RevolutionStats
	for rows.Next() {
		st := pipeline.RevolutionStats{SessionID: sessionID}
		var seq, elapsed int64
		if err := rows.Scan(&seq, &st.StampNanos, &st.Rings, &st.Columns, &st.Dense,
			&st.CloudBytes, &st.ScanPoints, &elapsed); err != nil {
			return nil, fmt.Errorf("failed to scan revolution row: %w", err)
		}
		st.Seq = uint64(seq)
		st.Elapsed = time.Duration(elapsed)
		out = append(out, st)
	}
	return out, rows.Err()
}
