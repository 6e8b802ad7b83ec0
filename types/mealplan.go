package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeekDays lists the plan days in order. A full plan has one DayPlan per entry.
var WeekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// SlotNames lists the canonical meal slot names in order.
var SlotNames = []string{"Breakfast", "Lunch", "Dinner", "Snack1", "Snack2"}

// slotAliases maps alternate slot spellings used by clients to the
// canonical names.
var slotAliases = map[string]string{
	"Snack 1": "Snack1",
	"Snack 2": "Snack2",
}

// MealPlan represents one user's plan for a single week, keyed by
// (user, week-start). At most one plan exists per key; saving a new plan for
// an occupied key replaces the old one wholesale.
type MealPlan struct {
	// ID is the unique identifier of the meal plan.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user. It is set from the authenticated
	// caller and never changes afterwards.
	UserID int `json:"user_id" db:"user_id"`

	// WeekStart is the Monday date identifying the covered calendar week.
	// The wire name is camelCase for compatibility with existing clients.
	WeekStart Date `json:"weekStart" db:"week_start"`

	// Plan is the ordered sequence of day entries, Monday through Sunday.
	Plan []DayPlan `json:"plan" db:"plan"`

	// CreatedAt is the timestamp at which the plan was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the plan.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DayPlan holds the ordered slot entries of one day.
//
// Two external encodings are accepted: the canonical slot-array form
// {"day":"Monday","slots":[{"slot":"Breakfast","recipe":12},...]} and the
// named-key form {"Breakfast":12,"Lunch":7,...} produced by older clients.
// Marshalling always emits the canonical form.
type DayPlan struct {
	// Day is the day name, e.g. "Monday".
	Day string `json:"day"`

	// Slots is the ordered list of meal slots for the day.
	Slots []SlotEntry `json:"slots"`
}

// SlotEntry assigns an optional recipe to a named meal slot.
type SlotEntry struct {
	// Slot is the meal occasion name, e.g. "Breakfast".
	Slot string `json:"slot"`

	// Recipe references the assigned recipe. Zero means the slot is
	// unplanned and is encoded as null.
	Recipe RecipeRef `json:"recipe"`
}

// RecipeRef is a recipe identifier that tolerates the encodings clients
// send: JSON number, numeric string, empty string, or null. Zero means no
// recipe is assigned.
type RecipeRef int

func (r RecipeRef) MarshalJSON() ([]byte, error) {
	if r == 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

func (r *RecipeRef) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*r = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	id, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid recipe reference %s", string(data))
	}
	*r = RecipeRef(id)
	return nil
}

func (d *DayPlan) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if _, ok := raw["slots"]; ok {
		type dayPlan DayPlan
		var decoded dayPlan
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		for i, slot := range decoded.Slots {
			if canonical, ok := slotAliases[slot.Slot]; ok {
				decoded.Slots[i].Slot = canonical
			}
		}
		*d = DayPlan(decoded)
		return nil
	}

	// Named-key form: every known slot name (or alias) may appear as a key
	// holding the recipe reference. Missing keys mean unplanned slots.
	d.Day = ""
	if rawDay, ok := raw["day"]; ok {
		if err := json.Unmarshal(rawDay, &d.Day); err != nil {
			return err
		}
	}
	d.Slots = make([]SlotEntry, 0, len(SlotNames))
	for _, name := range SlotNames {
		entry := SlotEntry{Slot: name}
		msg, ok := raw[name]
		if !ok {
			for alias, canonical := range slotAliases {
				if canonical != name {
					continue
				}
				if aliased, found := raw[alias]; found {
					msg, ok = aliased, true
				}
			}
		}
		if ok {
			if err := json.Unmarshal(msg, &entry.Recipe); err != nil {
				return err
			}
		}
		d.Slots = append(d.Slots, entry)
	}
	return nil
}

// Date is a calendar date carried over JSON as "2006-01-02". RFC 3339
// timestamps are also accepted on decode and truncated to their date.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date{t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return errors.New("invalid date: expected YYYY-MM-DD or RFC 3339")
	}
	*d = Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
	return nil
}
