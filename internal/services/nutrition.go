package services

import "github.com/mealgrid/apiserver/types"

// SlotBreakdown describes the recipe resolved for one meal slot. Planned is
// false when the slot has no assignment or the reference cannot be resolved;
// such slots contribute zero to the totals.
type SlotBreakdown struct {
	Slot     string  `json:"slot"`
	Recipe   string  `json:"recipe,omitempty"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Planned  bool    `json:"planned"`
}

// DayTotals sums the macro-nutrients of one day's assigned recipes.
type DayTotals struct {
	Day      string          `json:"day"`
	Calories float64         `json:"calories"`
	Protein  float64         `json:"protein"`
	Carbs    float64         `json:"carbs"`
	Fats     float64         `json:"fats"`
	Slots    []SlotBreakdown `json:"slots"`
}

// DailyTotals resolves each slot of a day against recipesByID and sums the
// macro fields. It is total: it never fails, and unresolvable references
// simply contribute zero.
func DailyTotals(day types.DayPlan, recipesByID map[int]types.Recipe) DayTotals {
	totals := DayTotals{
		Day:   day.Day,
		Slots: make([]SlotBreakdown, 0, len(types.SlotNames)),
	}

	for _, name := range types.SlotNames {
		breakdown := SlotBreakdown{Slot: name}
		for _, entry := range day.Slots {
			if entry.Slot != name || entry.Recipe == 0 {
				continue
			}
			recipe, ok := recipesByID[int(entry.Recipe)]
			if !ok {
				continue
			}
			breakdown = SlotBreakdown{
				Slot:     name,
				Recipe:   recipe.Name,
				Calories: recipe.Calories,
				Protein:  recipe.Protein,
				Carbs:    recipe.Carbs,
				Fats:     recipe.Fats,
				Planned:  true,
			}
			totals.Calories += recipe.Calories
			totals.Protein += recipe.Protein
			totals.Carbs += recipe.Carbs
			totals.Fats += recipe.Fats
			break
		}
		totals.Slots = append(totals.Slots, breakdown)
	}
	return totals
}

// WeeklyTotals applies DailyTotals across all seven days. Days missing from
// the plan produce all-zero totals with every slot unplanned.
func WeeklyTotals(plan []types.DayPlan, recipesByID map[int]types.Recipe) []DayTotals {
	week := make([]DayTotals, 0, len(types.WeekDays))
	for i, dayName := range types.WeekDays {
		day := types.DayPlan{Day: dayName}
		if i < len(plan) {
			day = plan[i]
		}
		totals := DailyTotals(day, recipesByID)
		if totals.Day == "" {
			totals.Day = dayName
		}
		week = append(week, totals)
	}
	return week
}
