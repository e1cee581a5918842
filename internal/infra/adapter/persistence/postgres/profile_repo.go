package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/repository"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
)

type ProfileRepo struct{ db *circuitbreaker.DBCircuitBreaker }

func NewProfileRepo(db *circuitbreaker.DBCircuitBreaker) repository.ProfileRepository {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *entity.Profile) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, fmt.Errorf("Upsert: validate: %w", err)
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("Upsert: marshal: %w", err)
	}
	const query = `
INSERT INTO profiles (account_id, document, generated_at)
VALUES ($1, $2, now())
ON CONFLICT (account_id) DO UPDATE SET document = EXCLUDED.document, generated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, p.AccountID, doc); err != nil {
		return false, fmt.Errorf("Upsert: %w", err)
	}
	return true, nil
}

func (r *ProfileRepo) Get(ctx context.Context, accountID int64) (*entity.Profile, error) {
	const query = `SELECT account_id, document, generated_at FROM profiles WHERE account_id = $1`
	var p entity.Profile
	var doc []byte
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&p.AccountID, &doc, &p.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("Get: unmarshal document: %w", err)
	}
	return &p, nil
}

type ReportRepo struct{ db *circuitbreaker.DBCircuitBreaker }

func NewReportRepo(db *circuitbreaker.DBCircuitBreaker) repository.ReportRepository {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) Insert(ctx context.Context, rep *entity.Report) (bool, error) {
	if err := rep.Validate(); err != nil {
		return false, fmt.Errorf("Insert: validate: %w", err)
	}
	const query = `
INSERT INTO reports (kind, title, body, window_start, window_end, account_id, model_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rep.Kind, rep.Title, rep.Body, rep.WindowStart, rep.WindowEnd, rep.AccountID, rep.ModelName).Scan(&rep.ID)
	if err != nil {
		return false, fmt.Errorf("Insert: %w", err)
	}
	return true, nil
}
