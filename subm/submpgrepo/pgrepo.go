package submpgrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ikk-contest/backend/subm"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const submColumns = `subm_key, student_name, student_surname, parent_phone,
	school, grade, category, ai_consent, social_follow,
	file_name, file_type, file_path, file_url,
	validation_id, owner_uid, created_at, status, ai_score`

type PgSubmRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPgSubmRepo(pool *pgxpool.Pool) *PgSubmRepo {
	return &PgSubmRepo{
		pool:   pool,
		logger: slog.Default().With("module", "submpgrepo"),
	}
}

// Create inserts the row unless the key is already present.
func (r *PgSubmRepo) Create(ctx context.Context, s subm.Subm) error {
	if err := s.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO submissions (` + submColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (subm_key) DO NOTHING`
	tag, err := r.pool.Exec(ctx, query,
		s.Key, s.StudentName, s.StudentSurname, s.ParentPhone,
		s.School, s.Grade, s.Category, s.AIConsent, s.SocialFollow,
		s.FileName, s.FileType, s.FilePath, s.FileURL,
		s.ValidationID, s.OwnerUID, s.CreatedAt.UTC(), s.Status, s.AIScore,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", subm.ErrKeyTaken, s.Key)
	}
	return nil
}

// SetAIScore overwrites ai_score only while it still equals from.
func (r *PgSubmRepo) SetAIScore(ctx context.Context, key string, from string, to string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET ai_score = $1 WHERE subm_key = $2 AND ai_score = $3`,
		to, key, from)
	if err != nil {
		return fmt.Errorf("failed to update ai score: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE subm_key = $1)`, key).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check submission: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", subm.ErrNotFound, key)
	}
	return fmt.Errorf("%w: %s", subm.ErrScoreSettled, key)
}

func (r *PgSubmRepo) Get(ctx context.Context, key string) (subm.Subm, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submColumns+` FROM submissions WHERE subm_key = $1`, key)
	if err != nil {
		return subm.Subm{}, fmt.Errorf("failed to query submission: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSubm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return subm.Subm{}, fmt.Errorf("%w: %s", subm.ErrNotFound, key)
		}
		return subm.Subm{}, err
	}
	return s, nil
}

// List returns every stored submission, newest first. Invalid rows are
// logged and skipped.
func (r *PgSubmRepo) List(ctx context.Context) ([]subm.Subm, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submColumns+` FROM submissions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var res []subm.Subm
	for rows.Next() {
		s, err := scanSubm(rows)
		if err != nil {
			if errors.Is(err, subm.ErrInvalidRecord) {
				r.logger.Error("skipping invalid submission row", "error", err)
				continue
			}
			return nil, err
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}
	return res, nil
}

func scanSubm(row pgx.CollectableRow) (subm.Subm, error) {
	var s subm.Subm
	err := row.Scan(
		&s.Key, &s.StudentName, &s.StudentSurname, &s.ParentPhone,
		&s.School, &s.Grade, &s.Category, &s.AIConsent, &s.SocialFollow,
		&s.FileName, &s.FileType, &s.FilePath, &s.FileURL,
		&s.ValidationID, &s.OwnerUID, &s.CreatedAt, &s.Status, &s.AIScore,
	)
	if err != nil {
		return subm.Subm{}, fmt.Errorf("failed to scan submission: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	if err := s.Validate(); err != nil {
		return subm.Subm{}, err
	}
	return s, nil
}
