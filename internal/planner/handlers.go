package planner

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/profile"
)

// Handler handles the planner HTTP API.
type Handler struct {
	planner *Planner
	logger  *slog.Logger
}

// NewHandler creates a new planner handler.
func NewHandler(p *Planner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{planner: p, logger: logger.With("component", "planner_http")}
}

// Register wires every planner route into mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/state", h.HandleState)
	mux.HandleFunc("GET /v1/library", h.HandleLibrary)
	mux.HandleFunc("GET /v1/totals", h.HandleTotals)

	mux.HandleFunc("POST /v1/foods", h.HandleAddFood)
	mux.HandleFunc("PATCH /v1/foods/{id}", h.HandleUpdateFood)
	mux.HandleFunc("DELETE /v1/foods/{id}", h.HandleRemoveFood)

	mux.HandleFunc("POST /v1/categories", h.HandleAddCategory)
	mux.HandleFunc("PATCH /v1/categories/{id}", h.HandleUpdateCategory)

	mux.HandleFunc("PATCH /v1/targets/{id}", h.HandleUpdateTarget)

	mux.HandleFunc("POST /v1/meals", h.HandleAddMeal)
	mux.HandleFunc("PATCH /v1/meals/{id}", h.HandleUpdateMeal)

	mux.HandleFunc("PATCH /v1/profile", h.HandleUpdateProfile)
	mux.HandleFunc("POST /v1/profile/reset", h.HandleResetProfile)
	mux.HandleFunc("POST /v1/reset", h.HandleResetAll)

	mux.HandleFunc("POST /v1/plan/entries", h.HandleAddEntry)
	mux.HandleFunc("PATCH /v1/plan/entries/{meal}/{entry}", h.HandleUpdateEntry)
	mux.HandleFunc("DELETE /v1/plan/entries/{meal}/{entry}", h.HandleRemoveEntry)
	mux.HandleFunc("POST /v1/plan/move", h.HandleMoveEntry)
	mux.HandleFunc("POST /v1/plan/drop", h.HandleDrop)
	mux.HandleFunc("POST /v1/plan/clear", h.HandleClear)
	mux.HandleFunc("PUT /v1/plan/day-type", h.HandleSetDayType)
}

// HandleState handles GET /v1/state
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.planner.Snapshot())
}

// HandleLibrary handles GET /v1/library
func (h *Handler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	view := h.planner.Snapshot()
	writeJSON(w, http.StatusOK, LibraryResponse{
		Categories: profile.VisibleCategories(view.Profile),
		Groups:     profile.FoodsByCategory(view.Profile),
	})
}

// HandleTotals handles GET /v1/totals
func (h *Handler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	v := h.planner.Snapshot()
	writeJSON(w, http.StatusOK, TotalsResponse{
		Totals:         v.Totals,
		MealTotals:     v.MealTotals,
		Target:         v.Target,
		StillNeed:      v.StillNeed,
		ProteinPerKg:   v.ProteinPerKg,
		ProteinInRange: v.ProteinInRange,
	})
}

// HandleAddFood handles POST /v1/foods
func (h *Handler) HandleAddFood(w http.ResponseWriter, r *http.Request) {
	var req AddFoodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	food := h.planner.AddFood(r.Context(), req.Draft())
	h.writeMutation(w, http.StatusCreated, true, food)
}

// HandleUpdateFood handles PATCH /v1/foods/{id}
func (h *Handler) HandleUpdateFood(w http.ResponseWriter, r *http.Request) {
	var patch models.FoodPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	food, ok := h.planner.UpdateFood(r.Context(), models.FoodID(r.PathValue("id")), patch)
	h.writeMutation(w, http.StatusOK, ok, resultIf(ok, food))
}

// HandleRemoveFood handles DELETE /v1/foods/{id}
func (h *Handler) HandleRemoveFood(w http.ResponseWriter, r *http.Request) {
	ok := h.planner.RemoveFood(r.Context(), models.FoodID(r.PathValue("id")))
	h.writeMutation(w, http.StatusOK, ok, nil)
}

// HandleAddCategory handles POST /v1/categories
func (h *Handler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	var draft models.CategoryDraft
	if !decodeBody(w, r, &draft) {
		return
	}
	if strings.TrimSpace(draft.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	c := h.planner.AddCategory(r.Context(), draft)
	h.writeMutation(w, http.StatusCreated, true, c)
}

// HandleUpdateCategory handles PATCH /v1/categories/{id}
func (h *Handler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch models.CategoryPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	c, ok := h.planner.UpdateCategory(r.Context(), models.CategoryID(r.PathValue("id")), patch)
	h.writeMutation(w, http.StatusOK, ok, resultIf(ok, c))
}

// HandleUpdateTarget handles PATCH /v1/targets/{id}
func (h *Handler) HandleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	var patch models.TargetPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.MinKcal != nil && patch.MaxKcal != nil && *patch.MaxKcal < *patch.MinKcal {
		writeError(w, http.StatusBadRequest, "invalid_request", "max_kcal must be >= min_kcal")
		return
	}

	t, ok := h.planner.UpdateTarget(r.Context(), models.TargetID(r.PathValue("id")), patch)
	h.writeMutation(w, http.StatusOK, ok, resultIf(ok, t))
}

// HandleAddMeal handles POST /v1/meals
func (h *Handler) HandleAddMeal(w http.ResponseWriter, r *http.Request) {
	var draft models.MealDraft
	if !decodeBody(w, r, &draft) {
		return
	}
	if draft.ID != "" && !models.ValidSlotID(draft.ID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "meal id must be non-empty and must not contain ':'")
		return
	}

	m, ok := h.planner.AddMealDefinition(r.Context(), draft)
	if !ok {
		writeError(w, http.StatusConflict, "meal_exists", "meal slot already exists")
		return
	}
	h.writeMutation(w, http.StatusCreated, true, m)
}

// HandleUpdateMeal handles PATCH /v1/meals/{id}
func (h *Handler) HandleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	var patch models.MealPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	m, ok := h.planner.UpdateMealDefinition(r.Context(), models.MealID(r.PathValue("id")), patch)
	h.writeMutation(w, http.StatusOK, ok, resultIf(ok, m))
}

// HandleUpdateProfile handles PATCH /v1/profile
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.IdentityPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.WeightKg != nil && *patch.WeightKg < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "weight_kg must be >= 0")
		return
	}

	h.planner.UpdateIdentity(r.Context(), patch)
	h.writeMutation(w, http.StatusOK, true, nil)
}

// HandleResetProfile handles POST /v1/profile/reset
func (h *Handler) HandleResetProfile(w http.ResponseWriter, r *http.Request) {
	h.planner.ResetProfile(r.Context())
	h.logger.Info("profile reset to defaults")
	h.writeMutation(w, http.StatusOK, true, nil)
}

// HandleResetAll handles POST /v1/reset
func (h *Handler) HandleResetAll(w http.ResponseWriter, r *http.Request) {
	h.planner.ResetAll(r.Context())
	h.writeMutation(w, http.StatusOK, true, nil)
}

// HandleAddEntry handles POST /v1/plan/entries
func (h *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MealID == "" || req.FoodID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "meal_id and food_id are required")
		return
	}
	if req.Portion != nil {
		portion := models.ClampPortion(*req.Portion)
		req.Portion = &portion
	}

	entry, ok := h.planner.AddEntryToMeal(r.Context(), req.MealID, req.FoodID, req.Portion)
	status := http.StatusOK
	if ok {
		status = http.StatusCreated
	}
	h.writeMutation(w, status, ok, resultIf(ok, entry))
}

// HandleUpdateEntry handles PATCH /v1/plan/entries/{meal}/{entry}
func (h *Handler) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Portion == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "portion is required")
		return
	}

	mealID := models.MealID(r.PathValue("meal"))
	entryID := models.EntryID(r.PathValue("entry"))
	ok := h.planner.SetEntryPortion(r.Context(), mealID, entryID, models.ClampPortion(*req.Portion))

	var result any
	if ok {
		if entry, found := h.planner.Entry(mealID, entryID); found {
			result = entry
		}
	}
	h.writeMutation(w, http.StatusOK, ok, result)
}

// HandleRemoveEntry handles DELETE /v1/plan/entries/{meal}/{entry}
func (h *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	ok := h.planner.RemoveEntryFromMeal(r.Context(),
		models.MealID(r.PathValue("meal")),
		models.EntryID(r.PathValue("entry")),
	)
	h.writeMutation(w, http.StatusOK, ok, nil)
}

// HandleMoveEntry handles POST /v1/plan/move
func (h *Handler) HandleMoveEntry(w http.ResponseWriter, r *http.Request) {
	var req MoveEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ok := h.planner.MoveEntry(r.Context(), req.From, req.To, req.EntryID)
	h.writeMutation(w, http.StatusOK, ok, nil)
}

// HandleDrop handles POST /v1/plan/drop
func (h *Handler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if !decodeBody(w, r, &req) {
		return
	}

	action, ok := h.planner.Drop(r.Context(), req.Active, req.Over)
	var result any
	if action.Kind != "" {
		result = action
	}
	h.writeMutation(w, http.StatusOK, ok, result)
}

// HandleClear handles POST /v1/plan/clear
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.planner.ClearAllMeals(r.Context())
	h.writeMutation(w, http.StatusOK, true, nil)
}

// HandleSetDayType handles PUT /v1/plan/day-type
func (h *Handler) HandleSetDayType(w http.ResponseWriter, r *http.Request) {
	var req DayTypeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ok := h.planner.SetDayType(r.Context(), req.TargetID)
	h.writeMutation(w, http.StatusOK, ok, nil)
}

func (h *Handler) writeMutation(w http.ResponseWriter, status int, applied bool, result any) {
	writeJSON(w, status, MutationResponse{
		Applied: applied,
		Result:  result,
		State:   h.planner.Snapshot(),
	})
}

func resultIf(ok bool, v any) any {
	if !ok {
		return nil
	}
	return v
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
