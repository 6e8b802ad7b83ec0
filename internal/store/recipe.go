package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mealgrid/apiserver/types"
)

// RecipeRepository handles persistence for recipes. Every read and write is
// scoped to the owning user; a wrong owner is indistinguishable from a
// missing row.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeColumns = `id, user_id, name, description, ingredients, instructions,
		calories, protein, carbs, fats, image, image_key, tags, category, created_at, updated_at`

func scanRecipe(scan func(dest ...any) error) (types.Recipe, error) {
	var recipe types.Recipe
	var ingredientsJSON, tagsJSON []byte
	err := scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Name,
		&recipe.Description,
		&ingredientsJSON,
		&recipe.Instructions,
		&recipe.Calories,
		&recipe.Protein,
		&recipe.Carbs,
		&recipe.Fats,
		&recipe.Image,
		&recipe.ImageKey,
		&tagsJSON,
		&recipe.Category,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return types.Recipe{}, err
	}
	_ = json.Unmarshal(ingredientsJSON, &recipe.Ingredients)
	_ = json.Unmarshal(tagsJSON, &recipe.Tags)
	return recipe, nil
}

func (r *RecipeRepository) ListByUser(ctx context.Context, userID int) ([]types.Recipe, error) {
	const query = `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := make([]types.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows.Scan)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *RecipeRepository) GetForUser(ctx context.Context, userID, id int) (types.Recipe, error) {
	const query = `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE id = $1 AND user_id = $2`
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, ErrNotFound
		}
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	ingredientsJSON, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return types.Recipe{}, err
	}
	tagsJSON, err := json.Marshal(recipe.Tags)
	if err != nil {
		return types.Recipe{}, err
	}

	const query = `
		INSERT INTO recipes (user_id, name, description, ingredients, instructions,
			calories, protein, carbs, fats, image, image_key, tags, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		recipe.UserID,
		recipe.Name,
		recipe.Description,
		ingredientsJSON,
		recipe.Instructions,
		recipe.Calories,
		recipe.Protein,
		recipe.Carbs,
		recipe.Fats,
		recipe.Image,
		recipe.ImageKey,
		tagsJSON,
		recipe.Category,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Scan(&recipe.ID); err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.UpdatedAt = time.Now()

	ingredientsJSON, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return types.Recipe{}, err
	}
	tagsJSON, err := json.Marshal(recipe.Tags)
	if err != nil {
		return types.Recipe{}, err
	}

	const query = `
		UPDATE recipes
		SET name = $1,
			description = $2,
			ingredients = $3,
			instructions = $4,
			calories = $5,
			protein = $6,
			carbs = $7,
			fats = $8,
			image = $9,
			image_key = $10,
			tags = $11,
			category = $12,
			updated_at = $13
		WHERE id = $14 AND user_id = $15`
	result, err := r.db.ExecContext(
		ctx,
		query,
		recipe.Name,
		recipe.Description,
		ingredientsJSON,
		recipe.Instructions,
		recipe.Calories,
		recipe.Protein,
		recipe.Carbs,
		recipe.Fats,
		recipe.Image,
		recipe.ImageKey,
		tagsJSON,
		recipe.Category,
		recipe.UpdatedAt,
		recipe.ID,
		recipe.UserID,
	)
	if err != nil {
		return types.Recipe{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Recipe{}, err
	}
	if affected == 0 {
		return types.Recipe{}, ErrNotFound
	}
	return recipe, nil
}

func (r *RecipeRepository) Delete(ctx context.Context, userID, id int) error {
	const query = `DELETE FROM recipes WHERE id = $1 AND user_id = $2`
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
