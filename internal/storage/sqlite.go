package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const dateFormat = "2006-01-02"

// Store wraps a SQLite database holding simulated profiles and their
// generated cycles.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "fakemens.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Required for cycle rows to cascade when a profile is deleted.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Profiles ---

func (s *Store) SaveProfile(p Profile) error {
	_, err := s.db.Exec(`
		INSERT INTO profiles (id, created_at, label, description, cycle_mu, cycle_sigma, bleed_mu, bleed_sigma, anomaly_p)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CreatedAt.UTC().Format(time.RFC3339), p.Label, p.Description,
		p.CycleMu, p.CycleSigma, p.BleedMu, p.BleedSigma, p.AnomalyP,
	)
	return err
}

func (s *Store) GetProfile(id string) (Profile, error) {
	var p Profile
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, created_at, label, description, cycle_mu, cycle_sigma, bleed_mu, bleed_sigma, anomaly_p
		FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &createdAt, &p.Label, &p.Description, &p.CycleMu, &p.CycleSigma, &p.BleedMu, &p.BleedSigma, &p.AnomalyP)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing created_at: %w", err)
	}
	p.CreatedAt = t
	return p, nil
}

// LatestProfile returns the most recently created profile.
func (s *Store) LatestProfile() (Profile, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM profiles ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return s.GetProfile(id)
}

func (s *Store) ListProfiles() ([]Profile, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, label, description, cycle_mu, cycle_sigma, bleed_mu, bleed_sigma, anomaly_p
		FROM profiles ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Profile
	for rows.Next() {
		var p Profile
		var createdAt string
		if err := rows.Scan(&p.ID, &createdAt, &p.Label, &p.Description, &p.CycleMu, &p.CycleSigma, &p.BleedMu, &p.BleedSigma, &p.AnomalyP); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		p.CreatedAt = t
		results = append(results, p)
	}
	return results, rows.Err()
}

// DeleteProfile removes a profile and, via cascade, its cycles.
func (s *Store) DeleteProfile(id string) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Cycles ---

// SaveCycles inserts a batch of generated cycles in one transaction.
func (s *Store) SaveCycles(cycles []Cycle) error {
	if len(cycles) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning cycle batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cycles (id, profile_id, seq, start_date, bleed_days, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cycle insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cycles {
		if _, err := stmt.Exec(
			c.ID, c.ProfileID, c.Seq,
			c.StartDate.Format(dateFormat), c.BleedDays, c.Note,
			c.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("inserting cycle %d for profile %s: %w", c.Seq, c.ProfileID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ListCycles(profileID string) ([]Cycle, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, seq, start_date, bleed_days, note, created_at
		FROM cycles WHERE profile_id = ? ORDER BY seq ASC`, profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCycles(rows)
}

// ListAllCycles returns every stored cycle grouped by profile, seq-ordered.
func (s *Store) ListAllCycles() ([]Cycle, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, seq, start_date, bleed_days, note, created_at
		FROM cycles ORDER BY profile_id ASC, seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCycles(rows)
}

// LatestCycle returns the highest-seq cycle for a profile.
func (s *Store) LatestCycle(profileID string) (Cycle, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, seq, start_date, bleed_days, note, created_at
		FROM cycles WHERE profile_id = ? ORDER BY seq DESC LIMIT 1`, profileID,
	)
	if err != nil {
		return Cycle{}, err
	}
	defer rows.Close()

	cycles, err := scanCycles(rows)
	if err != nil {
		return Cycle{}, err
	}
	if len(cycles) == 0 {
		return Cycle{}, ErrNotFound
	}
	return cycles[0], nil
}

// NextSeq returns the sequence number the next generated batch for a
// profile should start at.
func (s *Store) NextSeq(profileID string) (int, error) {
	var max sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(seq) FROM cycles WHERE profile_id = ?`, profileID).Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

func (s *Store) CountCycles(profileID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cycles WHERE profile_id = ?`, profileID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// PurgeAll deletes every profile and cycle.
func (s *Store) PurgeAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning purge: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cycles`); err != nil {
		return fmt.Errorf("purging cycles: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM profiles`); err != nil {
		return fmt.Errorf("purging profiles: %w", err)
	}
	return tx.Commit()
}

func scanCycles(rows *sql.Rows) ([]Cycle, error) {
	var results []Cycle
	for rows.Next() {
		var c Cycle
		var startDate, createdAt string
		if err := rows.Scan(&c.ID, &c.ProfileID, &c.Seq, &startDate, &c.BleedDays, &c.Note, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(dateFormat, startDate)
		if err != nil {
			return nil, fmt.Errorf("parsing start_date: %w", err)
		}
		c.StartDate = t
		ct, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		c.CreatedAt = ct
		results = append(results, c)
	}
	return results, rows.Err()
}
