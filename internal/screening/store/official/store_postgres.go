package official

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"vigil/internal/screening/models"
	dErrors "vigil/pkg/domain-errors"
)

// PostgresStore reads one official list from the sanction_entities table.
// The import job owns writes; ReplaceSnapshot swaps a list version inside a
// single transaction so readers never observe a half-imported list.
type PostgresStore struct {
	db  *sql.DB
	tag models.SourceTag
}

// NewPostgres creates a store bound to one list source.
func NewPostgres(db *sql.DB, tag models.SourceTag) *PostgresStore {
	return &PostgresStore{db: db, tag: tag}
}

// Tag returns which list this store serves.
func (s *PostgresStore) Tag() models.SourceTag {
	return s.tag
}

// FetchActive returns the active entities for this list, optionally narrowed
// by a concrete subject-type hint.
func (s *PostgresStore) FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error) {
	query := `
		SELECT id, subject_type, primary_name, aliases, weak_aliases,
		       nationality, date_of_birth, addresses
		FROM sanction_entities
		WHERE source = $1 AND active
	`
	args := []any{string(s.tag)}
	if hint != "" && hint != models.SubjectUnknown {
		query += ` AND (subject_type = $2 OR subject_type = '')`
		args = append(args, string(hint))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sanction entities: %w", err)
	}
	defer rows.Close()

	return s.scanEntities(rows)
}

// Count returns the number of active entities for this list.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sanction_entities WHERE source = $1 AND active`,
		string(s.tag),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sanction entities: %w", err)
	}
	return n, nil
}

// Health checks database connectivity.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReplaceSnapshot installs a new list version: within one transaction the
// previous rows for this source are removed and the new set inserted, so a
// concurrent FetchActive sees either the old or the new list in full.
func (s *PostgresStore) ReplaceSnapshot(ctx context.Context, entities []models.Entity) error {
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return err
		}
		if e.Source != s.tag {
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"entity %s carries source %s, store serves %s", e.ID, e.Source, s.tag)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sanction_entities WHERE source = $1`, string(s.tag),
	); err != nil {
		return fmt.Errorf("clear previous snapshot: %w", err)
	}

	insert := `
		INSERT INTO sanction_entities
			(id, source, subject_type, active, primary_name, aliases, weak_aliases,
			 nationality, date_of_birth, addresses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, e := range entities {
		aliases, weak := splitAliases(e.Names)
		if _, err := tx.ExecContext(ctx, insert,
			e.ID,
			string(e.Source),
			string(e.SubjectType),
			e.Active,
			e.PrimaryName(),
			pq.Array(aliases),
			pq.Array(weak),
			e.Details.Nationality,
			e.Details.DateOfBirth,
			pq.Array(e.Details.Addresses),
		); err != nil {
			return fmt.Errorf("insert entity %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanEntities(rows *sql.Rows) ([]models.Entity, error) {
	var entities []models.Entity
	for rows.Next() {
		var (
			e           models.Entity
			subjectType string
			primaryName string
			aliases     pq.StringArray
			weakAliases pq.StringArray
			addresses   pq.StringArray
		)
		if err := rows.Scan(
			&e.ID, &subjectType, &primaryName, &aliases, &weakAliases,
			&e.Details.Nationality, &e.Details.DateOfBirth, &addresses,
		); err != nil {
			return nil, fmt.Errorf("scan sanction entity: %w", err)
		}

		e.Source = s.tag
		e.SubjectType = models.SubjectType(subjectType)
		e.Active = true
		e.Details.Addresses = addresses
		e.Names = assembleNames(primaryName, aliases, weakAliases)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sanction entities: %w", err)
	}
	return entities, nil
}

func splitAliases(names []models.NameVariant) (aliases, weak []string) {
	for _, n := range names {
		switch n.Kind {
		case models.KindAlias:
			aliases = append(aliases, n.Text)
		case models.KindWeakAlias:
			weak = append(weak, n.Text)
		}
	}
	return aliases, weak
}

func assembleNames(primary string, aliases, weak []string) []models.NameVariant {
	names := make([]models.NameVariant, 0, 1+len(aliases)+len(weak))
	names = append(names, models.NameVariant{Text: primary, Kind: models.KindPrimary})
	for _, a := range aliases {
		names = append(names, models.NameVariant{Text: a, Kind: models.KindAlias})
	}
	for _, a := range weak {
		names = append(names, models.NameVariant{Text: a, Kind: models.KindWeakAlias})
	}
	return names
}
