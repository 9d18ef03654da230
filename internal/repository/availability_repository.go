package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorlink/tutorlink-api/internal/models"
)

// AvailabilityRepository persists weekly rules and date overrides.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListWeeklyRules returns every recurring rule for a teacher, ordered by
// weekday then window start.
func (r *AvailabilityRepository) ListWeeklyRules(ctx context.Context, teacherID string) ([]models.WeeklyRule, error) {
	const query = `SELECT id, teacher_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM weekly_rules WHERE teacher_id = $1 ORDER BY day_of_week ASC, start_time ASC`
	var rules []models.WeeklyRule
	if err := r.db.SelectContext(ctx, &rules, query, teacherID); err != nil {
		return nil, fmt.Errorf("list weekly rules: %w", err)
	}
	return rules, nil
}

// ReplaceWeeklyRules swaps the teacher's full weekly rule set in one
// transaction, matching the bulk "save weekly settings" semantics.
func (r *AvailabilityRepository) ReplaceWeeklyRules(ctx context.Context, teacherID string, rules []models.WeeklyRule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace weekly rules: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_rules WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear weekly rules: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO weekly_rules (id, teacher_id, day_of_week, start_time, end_time, created_at, updated_at)
		VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	for i := range rules {
		rules[i].TeacherID = teacherID
		if rules[i].ID == "" {
			rules[i].ID = uuid.NewString()
		}
		rules[i].CreatedAt = now
		rules[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, rules[i]); err != nil {
			return fmt.Errorf("insert weekly rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace weekly rules: %w", err)
	}
	return nil
}

// ListOverrides returns overrides for a teacher within the inclusive
// date range, ordered by date.
func (r *AvailabilityRepository) ListOverrides(ctx context.Context, teacherID string, from, to time.Time) ([]models.Override, error) {
	const query = `SELECT id, teacher_id, date, is_unavailable, start_time, end_time, created_at, updated_at
		FROM availability_overrides WHERE teacher_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`
	var overrides []models.Override
	if err := r.db.SelectContext(ctx, &overrides, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return overrides, nil
}

// UpsertOverride inserts or replaces the single override for the date.
// The unique constraint on (teacher_id, date) keeps one authoritative
// row per day.
func (r *AvailabilityRepository) UpsertOverride(ctx context.Context, override *models.Override) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	override.CreatedAt = now
	override.UpdatedAt = now

	const query = `INSERT INTO availability_overrides (id, teacher_id, date, is_unavailable, start_time, end_time, created_at, updated_at)
		VALUES (:id, :teacher_id, :date, :is_unavailable, :start_time, :end_time, :created_at, :updated_at)
		ON CONFLICT (teacher_id, date) DO UPDATE SET
			is_unavailable = EXCLUDED.is_unavailable,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, override); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// DeleteOverride removes the override for a specific date. It reports
// whether a row was actually deleted.
func (r *AvailabilityRepository) DeleteOverride(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	const query = `DELETE FROM availability_overrides WHERE teacher_id = $1 AND date = $2`
	res, err := r.db.ExecContext(ctx, query, teacherID, date)
	if err != nil {
		return false, fmt.Errorf("delete override: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete override rows affected: %w", err)
	}
	return affected > 0, nil
}
