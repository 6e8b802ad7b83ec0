package services

import (
	"context"

	"github.com/mealgrid/apiserver/types"
)

// MealPlanRepository defines persistence operations for meal plans.
type MealPlanRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.MealPlan, error)
	GetForUser(ctx context.Context, userID, id int) (types.MealPlan, error)
	Replace(ctx context.Context, plan types.MealPlan) (types.MealPlan, error)
	Update(ctx context.Context, plan types.MealPlan) (types.MealPlan, error)
	Delete(ctx context.Context, userID, id int) error
}

// MealPlanService encapsulates meal-plan use-cases. It holds the recipe
// repository as well so nutrition summaries can resolve recipe references.
type MealPlanService struct {
	repo    MealPlanRepository
	recipes RecipeRepository
}

func NewMealPlanService(repo MealPlanRepository, recipes RecipeRepository) *MealPlanService {
	return &MealPlanService{repo: repo, recipes: recipes}
}

func (s *MealPlanService) List(ctx context.Context, userID int) ([]types.MealPlan, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *MealPlanService) Get(ctx context.Context, userID, id int) (types.MealPlan, error) {
	return s.repo.GetForUser(ctx, userID, id)
}

// Save stores the plan for (owner, week-start), replacing any existing plan
// for that key wholesale.
func (s *MealPlanService) Save(ctx context.Context, userID int, weekStart types.Date, plan []types.DayPlan) (types.MealPlan, error) {
	return s.repo.Replace(ctx, types.MealPlan{
		UserID:    userID,
		WeekStart: weekStart,
		Plan:      canonicalizePlan(plan),
	})
}

// Update overwrites week-start and/or the plan grid when provided; an absent
// or empty value leaves the stored one untouched.
func (s *MealPlanService) Update(ctx context.Context, userID, id int, weekStart types.Date, plan []types.DayPlan) (types.MealPlan, error) {
	stored, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return types.MealPlan{}, err
	}

	if !weekStart.IsZero() {
		stored.WeekStart = weekStart
	}
	if len(plan) > 0 {
		stored.Plan = canonicalizePlan(plan)
	}
	return s.repo.Update(ctx, stored)
}

func (s *MealPlanService) Delete(ctx context.Context, userID, id int) error {
	return s.repo.Delete(ctx, userID, id)
}

// Nutrition resolves the plan's recipe references against the owner's
// recipes and returns the weekly per-day totals.
func (s *MealPlanService) Nutrition(ctx context.Context, userID, id int) ([]DayTotals, error) {
	plan, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipesByID := make(map[int]types.Recipe, len(recipes))
	for _, recipe := range recipes {
		recipesByID[recipe.ID] = recipe
	}

	return WeeklyTotals(plan.Plan, recipesByID), nil
}

// canonicalizePlan fills in day names missing from named-key submissions,
// assigning them by position Monday through Sunday.
func canonicalizePlan(plan []types.DayPlan) []types.DayPlan {
	for i := range plan {
		if plan[i].Day == "" && i < len(types.WeekDays) {
			plan[i].Day = types.WeekDays[i]
		}
	}
	return plan
}
