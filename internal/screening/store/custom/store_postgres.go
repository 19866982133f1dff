package custom

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vigil/internal/screening/models"
	"vigil/pkg/platform/sentinel"
	pstrings "vigil/pkg/platform/strings"
	txcontext "vigil/pkg/platform/tx"
)

// PostgresStore persists custom-list entries in the custom_entities table.
// Matching reads run inside a repeatable-read transaction so a batch sees
// one consistent version of the list even while the management endpoints
// keep writing.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL custom-list store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Tag identifies the user-managed list.
func (s *PostgresStore) Tag() models.SourceTag {
	return models.SourceCustom
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create stores a new entry and assigns its identifier.
func (s *PostgresStore) Create(ctx context.Context, record Record) (Record, error) {
	record.ID = uuid.NewString()
	record.Aliases = pstrings.DedupeAndTrim(record.Aliases)
	record.Active = true
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `
		INSERT INTO custom_entities
			(id, primary_name, aliases, subject_type, nationality, date_of_birth,
			 notes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.ID,
		record.PrimaryName,
		pq.Array(record.Aliases),
		string(record.SubjectType),
		record.Nationality,
		record.DateOfBirth,
		record.Notes,
		record.Active,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert custom entity: %w", err)
	}
	return record, nil
}

// Get returns one entry by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, primary_name, aliases, subject_type, nationality,
		       date_of_birth, notes, active, created_at, updated_at
		FROM custom_entities
		WHERE id = $1
	`, id)
	return scanRecord(row)
}

// Update replaces the mutable fields of an existing entry.
func (s *PostgresStore) Update(ctx context.Context, record Record) (Record, error) {
	record.Aliases = pstrings.DedupeAndTrim(record.Aliases)
	record.UpdatedAt = time.Now().UTC()

	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE custom_entities
		SET primary_name = $2, aliases = $3, subject_type = $4,
		    nationality = $5, date_of_birth = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`,
		record.ID,
		record.PrimaryName,
		pq.Array(record.Aliases),
		string(record.SubjectType),
		record.Nationality,
		record.DateOfBirth,
		record.Notes,
		record.UpdatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("update custom entity: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return Record{}, sentinel.ErrNotFound
	}
	return s.Get(ctx, record.ID)
}

// Deactivate soft-deletes an entry.
func (s *PostgresStore) Deactivate(ctx context.Context, id string) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE custom_entities SET active = FALSE, updated_at = $2 WHERE id = $1
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate custom entity: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns every entry, active or not, ordered by creation time.
func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, primary_name, aliases, subject_type, nationality,
		       date_of_birth, notes, active, created_at, updated_at
		FROM custom_entities
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list custom entities: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// FetchActive returns the active entries as matching entities, read under
// repeatable-read isolation.
func (s *PostgresStore) FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot read: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, primary_name, aliases, subject_type, nationality,
		       date_of_birth, notes, active, created_at, updated_at
		FROM custom_entities
		WHERE active
	`
	args := []any{}
	if hint != "" && hint != models.SubjectUnknown {
		query += ` AND (subject_type = $1 OR subject_type = '')`
		args = append(args, string(hint))
	}
	query += ` ORDER BY id`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active custom entities: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	entities := make([]models.Entity, len(records))
	for i, r := range records {
		entities[i] = r.Entity()
	}
	return entities, nil
}

// Count returns the number of active entries.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM custom_entities WHERE active`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count custom entities: %w", err)
	}
	return n, nil
}

// Health checks database connectivity.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(scanner rowScanner) (Record, error) {
	var (
		r           Record
		subjectType string
		aliases     pq.StringArray
	)
	err := scanner.Scan(
		&r.ID, &r.PrimaryName, &aliases, &subjectType, &r.Nationality,
		&r.DateOfBirth, &r.Notes, &r.Active, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	r.Aliases = aliases
	r.SubjectType = models.SubjectType(subjectType)
	return r, nil
}

func scanRecord(row *sql.Row) (Record, error) {
	record, err := scanOne(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan custom entity: %w", err)
	}
	return record, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		record, err := scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custom entity: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom entities: %w", err)
	}
	return records, nil
}
