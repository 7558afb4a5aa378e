package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"athlos/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// WorkoutModeHandler serves guided workout sessions.
type WorkoutModeHandler struct {
	workoutService service.WorkoutModeService
}

func NewWorkoutModeHandler(workoutService service.WorkoutModeService) *WorkoutModeHandler {
	return &WorkoutModeHandler{workoutService: workoutService}
}

// SessionNotesRequest is the optional body of complete and finish.
type SessionNotesRequest struct {
	Notes string `json:"notes"`
}

// bindNotes accepts an empty body.
func bindNotes(c *gin.Context) (string, bool) {
	var req SessionNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return "", false
	}
	return req.Notes, true
}

// Start godoc
// @Summary Start a workout session for a plan
// @Tags Workout Mode
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} service.SessionView
// @Failure 400 {object} gin.H "Session already active"
// @Router /workout-mode/start/{planId} [post]
func (h *WorkoutModeHandler) Start(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId", service.ErrPlanNotFound)
	if !ok {
		return
	}
	view, err := h.workoutService.Start(c.Request.Context(), userID, planID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Complete godoc
// @Summary Complete the current exercise and move to the next one
// @Tags Workout Mode
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body SessionNotesRequest false "Notes"
// @Success 200 {object} service.SessionView
// @Router /workout-mode/{sessionId}/complete [patch]
func (h *WorkoutModeHandler) Complete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId", service.ErrSessionNotFound)
	if !ok {
		return
	}
	notes, ok := bindNotes(c)
	if !ok {
		return
	}
	view, err := h.workoutService.Complete(c.Request.Context(), userID, sessionID, notes)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Finish godoc
// @Summary Finish a workout session
// @Tags Workout Mode
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param body body SessionNotesRequest false "Notes"
// @Success 200 {object} service.FinishResult
// @Router /workout-mode/{sessionId}/finish [post]
func (h *WorkoutModeHandler) Finish(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId", service.ErrSessionNotFound)
	if !ok {
		return
	}
	notes, ok := bindNotes(c)
	if !ok {
		return
	}
	res, err := h.workoutService.Finish(c.Request.Context(), userID, sessionID, notes)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
