package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mealgrid/apiserver/internal/store"
	"github.com/mealgrid/apiserver/types"
)

// fakeMealPlanRepo mirrors the database semantics: at most one plan per
// (user, week-start), with Replace deleting any occupant first.
type fakeMealPlanRepo struct {
	plans  map[int]types.MealPlan
	nextID int
}

func newFakeMealPlanRepo() *fakeMealPlanRepo {
	return &fakeMealPlanRepo{plans: make(map[int]types.MealPlan), nextID: 1}
}

func (f *fakeMealPlanRepo) ListByUser(_ context.Context, userID int) ([]types.MealPlan, error) {
	var out []types.MealPlan
	for _, plan := range f.plans {
		if plan.UserID == userID {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (f *fakeMealPlanRepo) GetForUser(_ context.Context, userID, id int) (types.MealPlan, error) {
	plan, ok := f.plans[id]
	if !ok || plan.UserID != userID {
		return types.MealPlan{}, store.ErrNotFound
	}
	return plan, nil
}

func (f *fakeMealPlanRepo) Replace(_ context.Context, plan types.MealPlan) (types.MealPlan, error) {
	for id, existing := range f.plans {
		if existing.UserID == plan.UserID && existing.WeekStart.Equal(plan.WeekStart.Time) {
			delete(f.plans, id)
		}
	}
	plan.ID = f.nextID
	f.nextID++
	f.plans[plan.ID] = plan
	return plan, nil
}

func (f *fakeMealPlanRepo) Update(_ context.Context, plan types.MealPlan) (types.MealPlan, error) {
	stored, ok := f.plans[plan.ID]
	if !ok || stored.UserID != plan.UserID {
		return types.MealPlan{}, store.ErrNotFound
	}
	f.plans[plan.ID] = plan
	return plan, nil
}

func (f *fakeMealPlanRepo) Delete(_ context.Context, userID, id int) error {
	plan, ok := f.plans[id]
	if !ok || plan.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.plans, id)
	return nil
}

func TestMealPlanSaveReplacesExistingWeek(t *testing.T) {
	repo := newFakeMealPlanRepo()
	svc := NewMealPlanService(repo, newFakeRecipeRepo())

	week := types.NewDate(2026, time.August, 31)
	first, err := svc.Save(context.Background(), 1, week, []types.DayPlan{
		{Day: "Monday", Slots: []types.SlotEntry{{Slot: "Breakfast", Recipe: 1}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := svc.Save(context.Background(), 1, week, []types.DayPlan{
		{Day: "Monday", Slots: []types.SlotEntry{{Slot: "Breakfast", Recipe: 2}}},
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("replacement should produce a new row")
	}

	plans, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("expected exactly one plan per (user, week), got %d", len(plans))
	}
	if plans[0].Plan[0].Slots[0].Recipe != 2 {
		t.Fatalf("old plan survived the replace: %+v", plans[0].Plan)
	}
}

func TestMealPlanSaveSameWeekDifferentUsers(t *testing.T) {
	repo := newFakeMealPlanRepo()
	svc := NewMealPlanService(repo, newFakeRecipeRepo())

	week := types.NewDate(2026, time.August, 31)
	if _, err := svc.Save(context.Background(), 1, week, nil); err != nil {
		t.Fatalf("save user 1: %v", err)
	}
	if _, err := svc.Save(context.Background(), 2, week, nil); err != nil {
		t.Fatalf("save user 2: %v", err)
	}

	for _, userID := range []int{1, 2} {
		plans, err := svc.List(context.Background(), userID)
		if err != nil {
			t.Fatalf("list user %d: %v", userID, err)
		}
		if len(plans) != 1 {
			t.Fatalf("user %d expected 1 plan, got %d", userID, len(plans))
		}
	}
}

func TestMealPlanSaveFillsMissingDayNames(t *testing.T) {
	repo := newFakeMealPlanRepo()
	svc := NewMealPlanService(repo, newFakeRecipeRepo())

	// Named-key submissions arrive without day names; they are assigned
	// positionally Monday through Sunday.
	saved, err := svc.Save(context.Background(), 1, types.NewDate(2026, time.August, 31), []types.DayPlan{
		{Slots: []types.SlotEntry{{Slot: "Breakfast", Recipe: 1}}},
		{Slots: []types.SlotEntry{{Slot: "Lunch", Recipe: 2}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Plan[0].Day != "Monday" || saved.Plan[1].Day != "Tuesday" {
		t.Fatalf("day names not filled: %q, %q", saved.Plan[0].Day, saved.Plan[1].Day)
	}
}

func TestMealPlanUpdateLeavesAbsentFieldsUntouched(t *testing.T) {
	repo := newFakeMealPlanRepo()
	svc := NewMealPlanService(repo, newFakeRecipeRepo())

	week := types.NewDate(2026, time.August, 31)
	saved, err := svc.Save(context.Background(), 1, week, []types.DayPlan{
		{Day: "Monday", Slots: []types.SlotEntry{{Slot: "Breakfast", Recipe: 1}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// Zero week-start and empty plan leave both stored values alone.
	updated, err := svc.Update(context.Background(), 1, saved.ID, types.Date{}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.WeekStart.Equal(week.Time) {
		t.Fatalf("week-start changed: %v", updated.WeekStart)
	}
	if len(updated.Plan) != 1 {
		t.Fatalf("plan changed: %+v", updated.Plan)
	}

	// A provided week-start moves the plan.
	nextWeek := types.NewDate(2026, time.September, 7)
	updated, err = svc.Update(context.Background(), 1, saved.ID, nextWeek, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.WeekStart.Equal(nextWeek.Time) {
		t.Fatalf("week-start not updated: %v", updated.WeekStart)
	}
}

func TestMealPlanOwnershipScopesLookups(t *testing.T) {
	repo := newFakeMealPlanRepo()
	svc := NewMealPlanService(repo, newFakeRecipeRepo())

	saved, err := svc.Save(context.Background(), 1, types.NewDate(2026, time.August, 31), nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := svc.Get(context.Background(), 2, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign plan, got %v", err)
	}
	if err := svc.Delete(context.Background(), 2, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign delete, got %v", err)
	}
}

func TestMealPlanNutritionResolvesOwnRecipes(t *testing.T) {
	planRepo := newFakeMealPlanRepo()
	recipeRepo := newFakeRecipeRepo()
	svc := NewMealPlanService(planRepo, recipeRepo)

	recipe, err := recipeRepo.Create(context.Background(), types.Recipe{
		UserID: 1, Name: "Oatmeal", Calories: 300, Protein: 10,
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	saved, err := svc.Save(context.Background(), 1, types.NewDate(2026, time.August, 31), []types.DayPlan{
		{Day: "Monday", Slots: []types.SlotEntry{{Slot: "Breakfast", Recipe: types.RecipeRef(recipe.ID)}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	week, err := svc.Nutrition(context.Background(), 1, saved.ID)
	if err != nil {
		t.Fatalf("nutrition: %v", err)
	}
	if len(week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(week))
	}
	if week[0].Calories != 300 {
		t.Fatalf("monday calories = %v, want 300", week[0].Calories)
	}
	if week[6].Calories != 0 {
		t.Fatalf("sunday should be zero, got %v", week[6].Calories)
	}
}
