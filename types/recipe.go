package types

import "time"

// Category is the fixed taxonomy tag derived from recipe content.
// It is computed at creation time and never set directly by clients.
type Category string

// Supported category values, in categorization priority order.
const (
	CategoryChicken     Category = "Chicken"
	CategoryNonVeg      Category = "Non-Veg"
	CategoryVeggie      Category = "Veggie"
	CategoryLiquid      Category = "Liquid"
	CategoryHighProtein Category = "High Protein"
	CategoryOther       Category = "Other"
)

// Recipe represents a recipe owned by a single user.
// It carries the recipe content, optional macro-nutrient values, and the
// derived category tag.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user. It is set from the authenticated
	// caller on creation and never changes afterwards.
	UserID int `json:"user_id" db:"user_id"`

	// Name is the human-readable name of the recipe.
	Name string `json:"name" db:"name"`

	// Description is free-form text about the recipe. It participates in
	// categorization alongside the name and ingredient names.
	Description string `json:"description" db:"description"`

	// Ingredients is the ordered list of ingredient entries.
	Ingredients []Ingredient `json:"ingredients" db:"ingredients"`

	// Instructions contains the preparation steps.
	Instructions string `json:"instructions" db:"instructions"`

	// Calories, Protein, Carbs and Fats are the per-recipe macro-nutrient
	// values. All are optional and default to zero.
	Calories float64 `json:"calories" db:"calories"`
	Protein  float64 `json:"protein" db:"protein"`
	Carbs    float64 `json:"carbs" db:"carbs"`
	Fats     float64 `json:"fats" db:"fats"`

	// Image is the recipe image URL. When blank at creation time a
	// deterministic placeholder is derived from the name and category.
	Image string `json:"image" db:"image"`

	// ImageKey is the object-storage key of an uploaded image, empty when
	// the image is an external URL. Never exposed in API responses.
	ImageKey string `json:"-" db:"image_key"`

	// Tags are free-form labels used for filtering and search.
	Tags []string `json:"tags" db:"tags"`

	// Category is the derived taxonomy tag.
	Category Category `json:"category" db:"category"`

	// CreatedAt is the timestamp at which the recipe was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the recipe.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Ingredient is a single entry in a recipe's ingredient list.
type Ingredient struct {
	// Name is the ingredient name, e.g. "Chicken".
	Name string `json:"name"`

	// Quantity is the amount as entered by the user, e.g. "1" or "250".
	Quantity string `json:"quantity"`

	// Unit is the measurement unit, e.g. "piece" or "g".
	Unit string `json:"unit"`
}
