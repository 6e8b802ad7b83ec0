package services

import (
	"context"
	"strings"

	"github.com/mealgrid/apiserver/types"
)

// RecipeRepository defines persistence operations for recipes.
type RecipeRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.Recipe, error)
	GetForUser(ctx context.Context, userID, id int) (types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Delete(ctx context.Context, userID, id int) error
}

// RecipeService encapsulates recipe use-cases.
type RecipeService struct {
	repo RecipeRepository
}

func NewRecipeService(repo RecipeRepository) *RecipeService {
	return &RecipeService{repo: repo}
}

func (s *RecipeService) List(ctx context.Context, userID int) ([]types.Recipe, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *RecipeService) Get(ctx context.Context, userID, id int) (types.Recipe, error) {
	return s.repo.GetForUser(ctx, userID, id)
}

// Create persists a new recipe for the given owner. The category is always
// derived from the content, and a blank image is replaced with a suggested
// placeholder URL. The owner comes from the authenticated caller, never from
// the payload.
func (s *RecipeService) Create(ctx context.Context, userID int, recipe types.Recipe) (types.Recipe, error) {
	recipe.UserID = userID
	recipe.Category = Categorize(recipe.Name, recipe.Description, recipe.Ingredients)
	if strings.TrimSpace(recipe.Image) == "" {
		recipe.Image = SuggestImage(recipe.Name, recipe.Category)
	}
	return s.repo.Create(ctx, recipe)
}

// Update applies a partial update where a stored field is overwritten only
// when the incoming value is non-empty. A field cleared to empty is therefore
// not persisted; clients cannot blank a field through this path. When any of
// name, description or ingredients is supplied the category is recomputed
// from the merged content.
func (s *RecipeService) Update(ctx context.Context, userID, id int, incoming types.Recipe) (types.Recipe, error) {
	stored, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return types.Recipe{}, err
	}

	recategorize := false
	if incoming.Name != "" {
		stored.Name = incoming.Name
		recategorize = true
	}
	if incoming.Description != "" {
		stored.Description = incoming.Description
		recategorize = true
	}
	if len(incoming.Ingredients) > 0 {
		stored.Ingredients = incoming.Ingredients
		recategorize = true
	}
	if incoming.Instructions != "" {
		stored.Instructions = incoming.Instructions
	}
	if incoming.Calories != 0 {
		stored.Calories = incoming.Calories
	}
	if incoming.Protein != 0 {
		stored.Protein = incoming.Protein
	}
	if incoming.Carbs != 0 {
		stored.Carbs = incoming.Carbs
	}
	if incoming.Fats != 0 {
		stored.Fats = incoming.Fats
	}
	if incoming.Image != "" {
		stored.Image = incoming.Image
	}
	if len(incoming.Tags) > 0 {
		stored.Tags = incoming.Tags
	}
	if recategorize {
		stored.Category = Categorize(stored.Name, stored.Description, stored.Ingredients)
	}

	return s.repo.Update(ctx, stored)
}

// RecipePatch carries an explicit-presence partial update: nil means the
// field is untouched, a non-nil pointer overwrites verbatim, empty values
// included.
type RecipePatch struct {
	Name         *string
	Description  *string
	Ingredients  *[]types.Ingredient
	Instructions *string
	Calories     *float64
	Protein      *float64
	Carbs        *float64
	Fats         *float64
	Image        *string
	Tags         *[]string
	Category     *string
}

// Overwrite applies the provided fields verbatim without recomputing the
// category. It is kept as a distinct operation from Update because the two
// behaviors differ deliberately: Update merges and recategorizes, Overwrite
// writes exactly what it is given.
func (s *RecipeService) Overwrite(ctx context.Context, userID, id int, patch RecipePatch) (types.Recipe, error) {
	stored, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return types.Recipe{}, err
	}

	if patch.Name != nil {
		stored.Name = *patch.Name
	}
	if patch.Description != nil {
		stored.Description = *patch.Description
	}
	if patch.Ingredients != nil {
		stored.Ingredients = *patch.Ingredients
	}
	if patch.Instructions != nil {
		stored.Instructions = *patch.Instructions
	}
	if patch.Calories != nil {
		stored.Calories = *patch.Calories
	}
	if patch.Protein != nil {
		stored.Protein = *patch.Protein
	}
	if patch.Carbs != nil {
		stored.Carbs = *patch.Carbs
	}
	if patch.Fats != nil {
		stored.Fats = *patch.Fats
	}
	if patch.Image != nil {
		stored.Image = *patch.Image
	}
	if patch.Tags != nil {
		stored.Tags = *patch.Tags
	}
	if patch.Category != nil {
		stored.Category = types.Category(*patch.Category)
	}

	return s.repo.Update(ctx, stored)
}

// SetImage points the recipe at a stored image object. Used by the image
// upload path after the object write succeeds.
func (s *RecipeService) SetImage(ctx context.Context, userID, id int, objectKey, imageURL string) (types.Recipe, error) {
	stored, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return types.Recipe{}, err
	}
	stored.ImageKey = objectKey
	stored.Image = imageURL
	return s.repo.Update(ctx, stored)
}

func (s *RecipeService) Delete(ctx context.Context, userID, id int) error {
	return s.repo.Delete(ctx, userID, id)
}
