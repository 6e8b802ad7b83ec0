package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mealgrid/apiserver/types"
)

// MealPlanRepository handles persistence for meal plans.
type MealPlanRepository struct {
	db *sql.DB
}

func NewMealPlanRepository(db *sql.DB) *MealPlanRepository {
	return &MealPlanRepository{db: db}
}

const mealPlanColumns = `id, user_id, week_start, plan, created_at, updated_at`

func scanMealPlan(scan func(dest ...any) error) (types.MealPlan, error) {
	var plan types.MealPlan
	var planJSON []byte
	err := scan(
		&plan.ID,
		&plan.UserID,
		&plan.WeekStart.Time,
		&planJSON,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return types.MealPlan{}, err
	}
	if err := json.Unmarshal(planJSON, &plan.Plan); err != nil {
		return types.MealPlan{}, err
	}
	return plan, nil
}

func (r *MealPlanRepository) ListByUser(ctx context.Context, userID int) ([]types.MealPlan, error) {
	const query = `
		SELECT ` + mealPlanColumns + `
		FROM meal_plans
		WHERE user_id = $1
		ORDER BY week_start`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]types.MealPlan, 0)
	for rows.Next() {
		plan, err := scanMealPlan(rows.Scan)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *MealPlanRepository) GetForUser(ctx context.Context, userID, id int) (types.MealPlan, error) {
	const query = `
		SELECT ` + mealPlanColumns + `
		FROM meal_plans
		WHERE id = $1 AND user_id = $2`
	plan, err := scanMealPlan(r.db.QueryRowContext(ctx, query, id, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MealPlan{}, ErrNotFound
		}
		return types.MealPlan{}, err
	}
	return plan, nil
}

// Replace removes any existing plan for (user, week-start) and inserts the
// given one, in a single transaction. Whole weeks are replaced, never merged.
func (r *MealPlanRepository) Replace(ctx context.Context, plan types.MealPlan) (types.MealPlan, error) {
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	planJSON, err := json.Marshal(plan.Plan)
	if err != nil {
		return types.MealPlan{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.MealPlan{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const deleteQuery = `DELETE FROM meal_plans WHERE user_id = $1 AND week_start = $2`
	if _, err := tx.ExecContext(ctx, deleteQuery, plan.UserID, plan.WeekStart.Time); err != nil {
		return types.MealPlan{}, err
	}

	const insertQuery = `
		INSERT INTO meal_plans (user_id, week_start, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertQuery,
		plan.UserID,
		plan.WeekStart.Time,
		planJSON,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Scan(&plan.ID); err != nil {
		return types.MealPlan{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.MealPlan{}, err
	}
	return plan, nil
}

func (r *MealPlanRepository) Update(ctx context.Context, plan types.MealPlan) (types.MealPlan, error) {
	plan.UpdatedAt = time.Now()

	planJSON, err := json.Marshal(plan.Plan)
	if err != nil {
		return types.MealPlan{}, err
	}

	const query = `
		UPDATE meal_plans
		SET week_start = $1,
			plan = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		plan.WeekStart.Time,
		planJSON,
		plan.UpdatedAt,
		plan.ID,
		plan.UserID,
	)
	if err != nil {
		return types.MealPlan{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.MealPlan{}, err
	}
	if affected == 0 {
		return types.MealPlan{}, ErrNotFound
	}
	return plan, nil
}

func (r *MealPlanRepository) Delete(ctx context.Context, userID, id int) error {
	const query = `DELETE FROM meal_plans WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
