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

const dateLayout = "2006-01-02"

// TrackingHandler serves workout logs, weight logs and goals.
type TrackingHandler struct {
	trackingService service.TrackingService
}

func NewTrackingHandler(trackingService service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// --- DTOs ---

type WorkoutLogRequest struct {
	PlanID  string `json:"planId"`
	LogDate string `json:"logDate" binding:"required"` // YYYY-MM-DD
	Notes   string `json:"notes"`
}

type WeightLogRequest struct {
	LogDate string  `json:"logDate" binding:"required"`
	Weight  float64 `json:"weight" binding:"required,gt=0"`
}

type GoalRequest struct {
	Type        string  `json:"type" binding:"required,oneof=weight exercise"`
	TargetValue float64 `json:"targetValue" binding:"required,gt=0"`
	Deadline    string  `json:"deadline"`
	ExerciseID  string  `json:"exerciseId"`
}

type WorkoutLogResponse struct {
	ID      string  `json:"id"`
	PlanID  *string `json:"planId"`
	LogDate string  `json:"logDate"`
	Notes   string  `json:"notes,omitempty"`
}

type WeightLogResponse struct {
	ID      string  `json:"id"`
	LogDate string  `json:"logDate"`
	Weight  float64 `json:"weight"`
}

type GoalResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	TargetValue float64 `json:"targetValue"`
	Deadline    *string `json:"deadline,omitempty"`
	ExerciseID  *string `json:"exerciseId,omitempty"`
}

func hexPtr(id *primitive.ObjectID) *string {
	if id == nil {
		return nil
	}
	s := id.Hex()
	return &s
}

func parseOptionalID(s string) (*primitive.ObjectID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func MapWorkoutLogToResponse(l *domain.WorkoutLog) WorkoutLogResponse {
	return WorkoutLogResponse{
		ID:      l.ID.Hex(),
		PlanID:  hexPtr(l.PlanID),
		LogDate: l.LogDate.Format(dateLayout),
		Notes:   l.Notes,
	}
}

func MapGoalToResponse(g *domain.Goal) GoalResponse {
	resp := GoalResponse{
		ID:          g.ID.Hex(),
		Type:        string(g.Type),
		TargetValue: g.TargetValue,
		ExerciseID:  hexPtr(g.ExerciseID),
	}
	if g.Deadline != nil {
		d := g.Deadline.Format(dateLayout)
		resp.Deadline = &d
	}
	return resp
}

// --- Workout logs ---

// CreateWorkoutLog godoc
// @Summary Log a completed workout
// @Tags Tracking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param log body WorkoutLogRequest true "Workout log"
// @Success 201 {object} WorkoutLogResponse
// @Router /tracking/workouts [post]
func (h *TrackingHandler) CreateWorkoutLog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req WorkoutLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	logDate, err := time.Parse(dateLayout, req.LogDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: logDate must be YYYY-MM-DD")
		return
	}
	planID, err := parseOptionalID(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: malformed planId")
		return
	}

	entry, err := h.trackingService.CreateWorkoutLog(c.Request.Context(), userID, service.WorkoutLogInput{
		PlanID:  planID,
		LogDate: logDate,
		Notes:   req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutLogToResponse(entry))
}

// ListWorkoutLogs godoc
// @Summary List my workout logs
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutLogResponse
// @Router /tracking/workouts [get]
func (h *TrackingHandler) ListWorkoutLogs(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	logs, err := h.trackingService.ListWorkoutLogs(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]WorkoutLogResponse, len(logs))
	for i := range logs {
		resp[i] = MapWorkoutLogToResponse(&logs[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetWorkoutLog godoc
// @Summary Get a workout log by ID
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout log ID"
// @Success 200 {object} WorkoutLogResponse
// @Router /tracking/workouts/{id} [get]
func (h *TrackingHandler) GetWorkoutLog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrWorkoutLogNotFound)
	if !ok {
		return
	}
	entry, err := h.trackingService.GetWorkoutLog(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutLogToResponse(entry))
}

// DeleteWorkoutLog godoc
// @Summary Delete a workout log
// @Tags Tracking
// @Security BearerAuth
// @Param id path string true "Workout log ID"
// @Success 204
// @Router /tracking/workouts/{id} [delete]
func (h *TrackingHandler) DeleteWorkoutLog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrWorkoutLogNotFound)
	if !ok {
		return
	}
	if err := h.trackingService.DeleteWorkoutLog(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Weight logs ---

// CreateWeightLog godoc
// @Summary Add a weight entry
// @Tags Tracking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param log body WeightLogRequest true "Weight entry"
// @Success 201 {object} WeightLogResponse
// @Router /tracking/weights [post]
func (h *TrackingHandler) CreateWeightLog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req WeightLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	logDate, err := time.Parse(dateLayout, req.LogDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: logDate must be YYYY-MM-DD")
		return
	}
	entry, err := h.trackingService.CreateWeightLog(c.Request.Context(), userID, logDate, req.Weight)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, WeightLogResponse{
		ID:      entry.ID.Hex(),
		LogDate: entry.LogDate.Format(dateLayout),
		Weight:  entry.Weight,
	})
}

// ListWeightLogs godoc
// @Summary List my weight history
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WeightLogResponse
// @Router /tracking/weights [get]
func (h *TrackingHandler) ListWeightLogs(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	logs, err := h.trackingService.ListWeightLogs(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]WeightLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = WeightLogResponse{ID: l.ID.Hex(), LogDate: l.LogDate.Format(dateLayout), Weight: l.Weight}
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteWeightLog godoc
// @Summary Delete a weight entry
// @Tags Tracking
// @Security BearerAuth
// @Param id path string true "Weight log ID"
// @Success 204
// @Router /tracking/weights/{id} [delete]
func (h *TrackingHandler) DeleteWeightLog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrWeightLogNotFound)
	if !ok {
		return
	}
	if err := h.trackingService.DeleteWeightLog(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Goals ---

func (r GoalRequest) toInput() (service.GoalInput, error) {
	deadline, err := parseOptionalDate(r.Deadline)
	if err != nil {
		return service.GoalInput{}, fmt.Errorf("deadline must be YYYY-MM-DD")
	}
	exerciseID, err := parseOptionalID(r.ExerciseID)
	if err != nil {
		return service.GoalInput{}, fmt.Errorf("malformed exerciseId")
	}
	return service.GoalInput{
		Type:        domain.GoalType(r.Type),
		TargetValue: r.TargetValue,
		Deadline:    deadline,
		ExerciseID:  exerciseID,
	}, nil
}

// CreateGoal godoc
// @Summary Create a goal
// @Tags Tracking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goal body GoalRequest true "Goal"
// @Success 201 {object} GoalResponse
// @Router /tracking/goals [post]
func (h *TrackingHandler) CreateGoal(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	in, ok := bindGoal(c)
	if !ok {
		return
	}
	goal, err := h.trackingService.CreateGoal(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapGoalToResponse(goal))
}

// ListGoals godoc
// @Summary List my goals
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Success 200 {array} GoalResponse
// @Router /tracking/goals [get]
func (h *TrackingHandler) ListGoals(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	goals, err := h.trackingService.ListGoals(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]GoalResponse, len(goals))
	for i := range goals {
		resp[i] = MapGoalToResponse(&goals[i])
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateGoal godoc
// @Summary Update a goal
// @Tags Tracking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param goal body GoalRequest true "Goal"
// @Success 200 {object} GoalResponse
// @Router /tracking/goals/{id} [patch]
func (h *TrackingHandler) UpdateGoal(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrGoalNotFound)
	if !ok {
		return
	}
	in, ok := bindGoal(c)
	if !ok {
		return
	}
	goal, err := h.trackingService.UpdateGoal(c.Request.Context(), userID, id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapGoalToResponse(goal))
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Tags Tracking
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 204
// @Router /tracking/goals/{id} [delete]
func (h *TrackingHandler) DeleteGoal(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrGoalNotFound)
	if !ok {
		return
	}
	if err := h.trackingService.DeleteGoal(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindGoal(c *gin.Context) (service.GoalInput, bool) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return service.GoalInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return service.GoalInput{}, false
	}
	return in, true
}
