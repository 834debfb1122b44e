package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a session-scoped database that vanishes on close.
const MemoryPath = ":memory:"

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if strings.Contains(path, ":memory:") {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	} else {
		// Enable WAL mode for better concurrency
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS rolls (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			nonce INTEGER NOT NULL,
			dice_count INTEGER NOT NULL,
			faces TEXT NOT NULL,
			desired TEXT,
			report TEXT NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			retries INTEGER NOT NULL DEFAULT 0,
			timed_out INTEGER NOT NULL DEFAULT 0,
			engine_version TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rolls_created_at ON rolls(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_rolls_seed ON rolls(seed, nonce)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRoll saves one resolved roll to the database
func (s *SQLiteDB) SaveRoll(roll *Roll) error {
	if roll.ID == "" {
		roll.ID = uuid.New().String()
	}

	facesJSON, err := json.Marshal(roll.Faces)
	if err != nil {
		return fmt.Errorf("failed to encode faces: %w", err)
	}
	var desiredJSON []byte
	if len(roll.Desired) > 0 {
		desiredJSON, err = json.Marshal(roll.Desired)
		if err != nil {
			return fmt.Errorf("failed to encode desired faces: %w", err)
		}
	}

	timedOutInt := 0
	if roll.TimedOut {
		timedOutInt = 1
	}

	query := `INSERT INTO rolls (
		id, seed, nonce, dice_count, faces, desired, report,
		steps, retries, timed_out, engine_version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		roll.ID, roll.Seed, roll.Nonce, roll.DiceCount, string(facesJSON),
		nullableString(desiredJSON), roll.Report,
		roll.Steps, roll.Retries, timedOutInt, roll.EngineVersion,
	)
	return err
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

const rollColumns = `id, seed, nonce, dice_count, faces, desired, report,
	steps, retries, timed_out, engine_version, created_at`

func scanRoll(scan func(dest ...interface{}) error) (*Roll, error) {
	var roll Roll
	var timedOutInt int
	var facesJSON string
	var desiredJSON sql.NullString

	err := scan(
		&roll.ID, &roll.Seed, &roll.Nonce, &roll.DiceCount, &facesJSON,
		&desiredJSON, &roll.Report, &roll.Steps, &roll.Retries,
		&timedOutInt, &roll.EngineVersion, &roll.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(facesJSON), &roll.Faces); err != nil {
		return nil, fmt.Errorf("failed to decode faces: %w", err)
	}
	if desiredJSON.Valid && desiredJSON.String != "" {
		if err := json.Unmarshal([]byte(desiredJSON.String), &roll.Desired); err != nil {
			return nil, fmt.Errorf("failed to decode desired faces: %w", err)
		}
	}
	roll.TimedOut = timedOutInt == 1
	return &roll, nil
}

// GetRoll retrieves a roll by ID
func (s *SQLiteDB) GetRoll(id string) (*Roll, error) {
	query := `SELECT ` + rollColumns + ` FROM rolls WHERE id = ?`
	return scanRoll(s.db.QueryRow(query, id).Scan)
}

// ListRolls retrieves rolls with pagination and optional seed filtering
func (s *SQLiteDB) ListRolls(query RollsQuery) (*RollsList, error) {
	whereClause := ""
	args := []interface{}{}

	if query.Seed != "" {
		whereClause = "WHERE seed = ?"
		args = append(args, query.Seed)
	}

	countQuery := "SELECT COUNT(*) FROM rolls " + whereClause
	var totalCount int
	if err := s.db.QueryRow(countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50 // Default page size
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT ` + rollColumns + ` FROM rolls ` + whereClause + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.Query(mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rolls: %w", err)
	}
	defer rows.Close()

	var rolls []Roll
	for rows.Next() {
		roll, err := scanRoll(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roll: %w", err)
		}
		rolls = append(rolls, *roll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rolls: %w", err)
	}

	return &RollsList{
		Rolls:      rolls,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}
