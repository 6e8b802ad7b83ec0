package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mealgrid/apiserver/internal/events"
	"github.com/mealgrid/apiserver/internal/services"
	"github.com/mealgrid/apiserver/internal/store"
	"github.com/mealgrid/apiserver/types"
)

// MealPlanHandler provides HTTP handlers for meal plans.
type MealPlanHandler struct {
	planService *services.MealPlanService
	events      *events.Publisher
}

// NewMealPlanHandler constructs a handler with the provided dependencies.
func NewMealPlanHandler(planService *services.MealPlanService, publisher *events.Publisher) *MealPlanHandler {
	return &MealPlanHandler{planService: planService, events: publisher}
}

// MealPlanRouter registers meal-plan routes on the given router. The caller
// is expected to have applied the auth middleware already.
func MealPlanRouter(r chi.Router, planService *services.MealPlanService, publisher *events.Publisher) {
	handler := NewMealPlanHandler(planService, publisher)

	r.Get("/", handler.ListMealPlans)
	r.Post("/", handler.CreateMealPlan)
	r.Route("/{planID}", func(r chi.Router) {
		r.Get("/", handler.GetMealPlan)
		r.Put("/", handler.UpdateMealPlan)
		r.Delete("/", handler.DeleteMealPlan)
		r.Get("/nutrition", handler.GetNutrition)
	})
}

func (h *MealPlanHandler) ListMealPlans(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	plans, err := h.planService.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list meal plans")
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *MealPlanHandler) GetMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "planID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal plan id")
		return
	}

	plan, err := h.planService.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meal plan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch meal plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// CreateMealPlan saves the week's plan, replacing any existing plan for the
// same (user, week-start) key.
func (h *MealPlanHandler) CreateMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req MealPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.WeekStart.IsZero() {
		writeError(w, http.StatusBadRequest, "weekStart is required")
		return
	}

	saved, err := h.planService.Save(r.Context(), userID, req.WeekStart, req.Plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save meal plan")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelMealPlans, "mealplan.saved", userID, saved.ID)
	writeJSON(w, http.StatusCreated, saved)
}

func (h *MealPlanHandler) UpdateMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "planID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal plan id")
		return
	}

	var req MealPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.planService.Update(r.Context(), userID, id, req.WeekStart, req.Plan)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meal plan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update meal plan")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelMealPlans, "mealplan.updated", userID, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (h *MealPlanHandler) DeleteMealPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "planID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal plan id")
		return
	}

	if err := h.planService.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meal plan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete meal plan")
		return
	}

	_ = h.events.Publish(r.Context(), events.ChannelMealPlans, "mealplan.deleted", userID, id)
	w.WriteHeader(http.StatusNoContent)
}

// GetNutrition returns the per-day macro totals for the plan's week.
func (h *MealPlanHandler) GetNutrition(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "planID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal plan id")
		return
	}

	week, err := h.planService.Nutrition(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meal plan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute nutrition")
		return
	}
	writeJSON(w, http.StatusOK, week)
}

// MealPlanRequest is the JSON payload for creating or updating a meal plan.
// Day entries decode from either supported plan encoding.
type MealPlanRequest struct {
	WeekStart types.Date      `json:"weekStart"`
	Plan      []types.DayPlan `json:"plan"`
}
