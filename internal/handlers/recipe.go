package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mealgrid/apiserver/internal/events"
	"github.com/mealgrid/apiserver/internal/services"
	"github.com/mealgrid/apiserver/internal/storage"
	"github.com/mealgrid/apiserver/internal/store"
	"github.com/mealgrid/apiserver/types"
)

const (
	maxImageBytes  = 10 << 20
	formFieldImage = "image"
)

// RecipeHandler provides HTTP handlers for recipes.
type RecipeHandler struct {
	recipeService *services.RecipeService
	images        *storage.Images
	events        *events.Publisher
}

// NewRecipeHandler constructs a handler with the provided dependencies.
// images may be nil when no object storage is configured.
func NewRecipeHandler(recipeService *services.RecipeService, images *storage.Images, publisher *events.Publisher) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		images:        images,
		events:        publisher,
	}
}

// RecipeRouter registers recipe routes on the given router. The caller is
// expected to have applied the auth middleware already; every route here
// assumes an authenticated subject in context.
func RecipeRouter(r chi.Router, recipeService *services.RecipeService, images *storage.Images, publisher *events.Publisher) {
	handler := NewRecipeHandler(recipeService, images, publisher)

	r.Get("/", handler.ListRecipes)
	r.Post("/", handler.CreateRecipe)
	r.Route("/{recipeID}", func(r chi.Router) {
		r.Get("/", handler.GetRecipe)
		r.Put("/", handler.UpdateRecipe)
		r.Patch("/", handler.OverwriteRecipe)
		r.Delete("/", handler.DeleteRecipe)
		if images != nil {
			r.Post("/image", handler.UploadImage)
			r.Get("/image", handler.GetImage)
		}
	})
}

func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	recipes, err := h.recipeService.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.recipeService.Create(r.Context(), userID, req.toRecipe())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create recipe")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelRecipes, "recipe.created", userID, created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.recipeService.Update(r.Context(), userID, id, req.toRecipe())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelRecipes, "recipe.updated", userID, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

// OverwriteRecipe applies the provided fields verbatim, empty values
// included, and never recomputes the category.
func (h *RecipeHandler) OverwriteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req RecipePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.recipeService.Overwrite(r.Context(), userID, id, services.RecipePatch{
		Name:         req.Name,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Calories:     req.Calories,
		Protein:      req.Protein,
		Carbs:        req.Carbs,
		Fats:         req.Fats,
		Image:        req.Image,
		Tags:         req.Tags,
		Category:     req.Category,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelRecipes, "recipe.updated", userID, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := h.recipeService.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete recipe")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelRecipes, "recipe.deleted", userID, id)
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores an uploaded image object and points the recipe at it.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	// Ownership check before touching storage.
	if _, err := h.recipeService.Get(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch recipe")
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()
	if header.Size > maxImageBytes {
		writeError(w, http.StatusBadRequest, "uploaded file too large")
		return
	}

	key, err := h.images.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			writeError(w, http.StatusBadRequest, "unsupported image type")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	updated, err := h.recipeService.SetImage(r.Context(), userID, id, key, fmt.Sprintf("/api/recipes/%d/image", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelRecipes, "recipe.updated", userID, id)
	writeJSON(w, http.StatusOK, updated)
}

// GetImage streams the recipe's stored image object.
func (h *RecipeHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch recipe")
		return
	}
	if recipe.ImageKey == "" {
		writeError(w, http.StatusNotFound, "recipe image not found")
		return
	}

	object, err := h.images.Open(r.Context(), recipe.ImageKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read image")
		return
	}
	defer object.Close()

	if contentType := mime.TypeByExtension(path.Ext(recipe.ImageKey)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, object)
}

// RecipeRequest is the JSON payload for creating or updating a recipe.
// Category is absent on purpose: it is always derived server-side on this
// path.
type RecipeRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Ingredients  []types.Ingredient `json:"ingredients"`
	Instructions string             `json:"instructions"`
	Calories     float64            `json:"calories"`
	Protein      float64            `json:"protein"`
	Carbs        float64            `json:"carbs"`
	Fats         float64            `json:"fats"`
	Image        string             `json:"image"`
	Tags         []string           `json:"tags"`
}

func (req RecipeRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if len(req.Ingredients) == 0 {
		return errors.New("ingredients are required")
	}
	for _, ingredient := range req.Ingredients {
		if strings.TrimSpace(ingredient.Name) == "" ||
			strings.TrimSpace(ingredient.Quantity) == "" ||
			strings.TrimSpace(ingredient.Unit) == "" {
			return errors.New("every ingredient needs name, quantity and unit")
		}
	}
	if strings.TrimSpace(req.Instructions) == "" {
		return errors.New("instructions are required")
	}
	return nil
}

func (req RecipeRequest) toRecipe() types.Recipe {
	return types.Recipe{
		Name:         req.Name,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Calories:     req.Calories,
		Protein:      req.Protein,
		Carbs:        req.Carbs,
		Fats:         req.Fats,
		Image:        req.Image,
		Tags:         req.Tags,
	}
}

// RecipePatchRequest is the explicit-presence payload for PATCH: absent
// fields stay untouched, present fields overwrite verbatim.
type RecipePatchRequest struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Ingredients  *[]types.Ingredient `json:"ingredients"`
	Instructions *string             `json:"instructions"`
	Calories     *float64            `json:"calories"`
	Protein      *float64            `json:"protein"`
	Carbs        *float64            `json:"carbs"`
	Fats         *float64            `json:"fats"`
	Image        *string             `json:"image"`
	Tags         *[]string           `json:"tags"`
	Category     *string             `json:"category"`
}
