package api

import (
	"fmt"
	"net/http"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves plans and their ordered items.
type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

type PlanRequest struct {
	Title                  string `json:"title" binding:"required"`
	GoalText               string `json:"goalText"`
	FrequencyPerWeek       int    `json:"frequencyPerWeek" binding:"min=0"`
	SessionDurationMinutes int    `json:"sessionDurationMinutes" binding:"min=0"`
}

func (r PlanRequest) toInput() service.PlanInput {
	return service.PlanInput{
		Title:                  r.Title,
		GoalText:               r.GoalText,
		FrequencyPerWeek:       r.FrequencyPerWeek,
		SessionDurationMinutes: r.SessionDurationMinutes,
	}
}

// PlanItemFieldsRequest is the item payload. Position is optional: on create
// a missing position appends, on update it leaves the item where it is.
type PlanItemFieldsRequest struct {
	Sets            *int   `json:"sets"`
	Reps            *int   `json:"reps"`
	DurationSeconds *int   `json:"durationSeconds"`
	DistanceMeters  *int   `json:"distanceMeters"`
	Position        *int   `json:"position"`
	Notes           string `json:"notes"`
}

func (r PlanItemFieldsRequest) fields() domain.PlanItemFields {
	return domain.PlanItemFields{
		Sets:            r.Sets,
		Reps:            r.Reps,
		DurationSeconds: r.DurationSeconds,
		DistanceMeters:  r.DistanceMeters,
		Notes:           r.Notes,
	}
}

type CreatePlanItemRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	PlanItemFieldsRequest
}

type PlanItemResponse struct {
	ID              string    `json:"id"`
	PlanID          string    `json:"planId"`
	ExerciseID      *string   `json:"exerciseId"`
	Position        int       `json:"position"`
	Sets            *int      `json:"sets,omitempty"`
	Reps            *int      `json:"reps,omitempty"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
	DistanceMeters  *int      `json:"distanceMeters,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type PlanResponse struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"userId"`
	Title                  string             `json:"title"`
	GoalText               string             `json:"goalText,omitempty"`
	FrequencyPerWeek       int                `json:"frequencyPerWeek"`
	SessionDurationMinutes int                `json:"sessionDurationMinutes"`
	Items                  []PlanItemResponse `json:"items,omitempty"`
	CreatedAt              time.Time          `json:"createdAt"`
	UpdatedAt              time.Time          `json:"updatedAt"`
}

func MapPlanItemToResponse(it *domain.PlanItem) PlanItemResponse {
	resp := PlanItemResponse{
		ID:              it.ID.Hex(),
		PlanID:          it.PlanID.Hex(),
		Position:        it.Position,
		Sets:            it.Sets,
		Reps:            it.Reps,
		DurationSeconds: it.DurationSeconds,
		DistanceMeters:  it.DistanceMeters,
		Notes:           it.Notes,
		UpdatedAt:       it.UpdatedAt,
	}
	if it.ExerciseID != nil {
		hex := it.ExerciseID.Hex()
		resp.ExerciseID = &hex
	}
	return resp
}

func MapPlanItemsToResponse(items []domain.PlanItem) []PlanItemResponse {
	out := make([]PlanItemResponse, len(items))
	for i := range items {
		out[i] = MapPlanItemToResponse(&items[i])
	}
	return out
}

func MapPlanToResponse(p *domain.WorkoutPlan, items []domain.PlanItem) PlanResponse {
	return PlanResponse{
		ID:                     p.ID.Hex(),
		UserID:                 p.UserID.Hex(),
		Title:                  p.Title,
		GoalText:               p.GoalText,
		FrequencyPerWeek:       p.FrequencyPerWeek,
		SessionDurationMinutes: p.SessionDurationMinutes,
		Items:                  MapPlanItemsToResponse(items),
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

// --- Plans ---

// CreatePlan godoc
// @Summary Create a workout plan
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body PlanRequest true "Plan details"
// @Success 201 {object} PlanResponse
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	plan, err := h.planService.CreatePlan(c.Request.Context(), userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan, nil))
}

// ListPlans godoc
// @Summary List my workout plans
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PlanResponse
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	plans, err := h.planService.ListPlans(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]PlanResponse, len(plans))
	for i := range plans {
		resp[i] = MapPlanToResponse(&plans[i], nil)
	}
	c.JSON(http.StatusOK, resp)
}

// GetPlan godoc
// @Summary Get a workout plan with its items in order
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} PlanResponse
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), userID, planID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(&plan.WorkoutPlan, plan.Items))
}

// UpdatePlan godoc
// @Summary Update a workout plan
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param plan body PlanRequest true "Plan details"
// @Success 200 {object} PlanResponse
// @Router /plans/{planId} [patch]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	plan, err := h.planService.UpdatePlan(c.Request.Context(), userID, planID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan, nil))
}

// DeletePlan godoc
// @Summary Delete a workout plan and its items
// @Tags Plans
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 204
// @Router /plans/{planId} [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), userID, planID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Items ---

// ListItems godoc
// @Summary List a plan's items ordered by position
// @Tags Plan Items
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {array} PlanItemResponse
// @Router /plans/{planId}/items [get]
func (h *PlanHandler) ListItems(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	items, err := h.planService.ListItems(c.Request.Context(), userID, planID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanItemsToResponse(items))
}

// AddItem godoc
// @Summary Add an exercise to a plan
// @Description Inserts at position (1..N+1) shifting later items, or appends when position is omitted.
// @Tags Plan Items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param item body CreatePlanItemRequest true "Item"
// @Success 201 {object} PlanItemResponse
// @Failure 404 {object} gin.H "Plan or exercise not found"
// @Failure 409 {object} gin.H "Concurrent modification"
// @Failure 422 {object} gin.H "Position out of range"
// @Router /plans/{planId}/items [post]
func (h *PlanHandler) AddItem(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	var req CreatePlanItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: malformed exerciseId")
		return
	}

	item, err := h.planService.AddItem(c.Request.Context(), userID, planID, exerciseID, req.fields(), req.Position)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanItemToResponse(item))
}

// UpdateItem godoc
// @Summary Update a plan item and optionally move it
// @Description Replaces the item payload; a position (1..N) moves it, shifting the items in between.
// @Tags Plan Items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param itemId path string true "Item ID"
// @Param item body PlanItemFieldsRequest true "Item"
// @Success 200 {object} PlanItemResponse
// @Failure 422 {object} gin.H "Position out of range"
// @Router /plans/{planId}/items/{itemId} [patch]
func (h *PlanHandler) UpdateItem(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId", service.ErrPlanItemNotFound)
	if !ok {
		return
	}
	var req PlanItemFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	item, err := h.planService.UpdateItem(c.Request.Context(), userID, planID, itemID, req.fields(), req.Position)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanItemToResponse(item))
}

// RemoveItem godoc
// @Summary Remove a plan item
// @Description Later items move up one position.
// @Tags Plan Items
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param itemId path string true "Item ID"
// @Success 204
// @Router /plans/{planId}/items/{itemId} [delete]
func (h *PlanHandler) RemoveItem(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId", service.ErrPlanItemNotFound)
	if !ok {
		return
	}
	if err := h.planService.RemoveItem(c.Request.Context(), userID, planID, itemID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
