package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"athlos/fitness-tracker/internal/cache"
	"athlos/fitness-tracker/internal/config"
	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/metrics"
	"athlos/fitness-tracker/internal/repository"
	"athlos/fitness-tracker/internal/repository/memory"
	"athlos/fitness-tracker/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type testServer struct {
	router  *gin.Engine
	repos   *repository.Repositories
	metrics *metrics.Manager
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	return newTestServerWithRepos(t, opts, memory.NewRepositories(memory.NewStore()))
}

func newTestServerWithRepos(t *testing.T, opts RouterOptions, repos *repository.Repositories) *testServer {
	t.Helper()
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewTestManager()
	}
	m := opts.Metrics
	exercises := service.NewExerciseService(repos, cache.Nop{}, config.DeletePolicyDetach, m)
	svc := Services{
		Auth:        service.NewAuthService(repos.Users, "api-test-secret", time.Hour),
		Exercises:   exercises,
		Plans:       service.NewPlanService(repos.Plans, repos.PlanItems, exercises, m),
		Tracking:    service.NewTrackingService(repos, exercises),
		WorkoutMode: service.NewWorkoutModeService(repos, exercises),
		Export:      service.NewExportService(repos, nil, 0),
	}
	return &testServer{router: NewRouter(svc, opts), repos: repos, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// login registers a fresh user and returns its token.
func (s *testServer) login(t *testing.T) string {
	t.Helper()
	email := gofakeit.Email()
	rr := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Name: "Tester", Email: email, Password: "password123"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[LoginResponse](t, rr).Token
}

func (s *testServer) exercise(t *testing.T, name string) string {
	t.Helper()
	id, err := s.repos.Exercises.Create(context.Background(), &domain.Exercise{Name: name})
	require.NoError(t, err)
	return id.Hex()
}

func (s *testServer) itemNotes(t *testing.T, token, planID string) []string {
	t.Helper()
	rr := s.do(t, http.MethodGet, "/api/v1/plans/"+planID+"/items", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	items := decode[[]PlanItemResponse](t, rr)
	notes := make([]string, len(items))
	for i, it := range items {
		require.Equal(t, i+1, it.Position)
		notes[i] = it.Notes
	}
	return notes
}

func TestPingAndAuth(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rr := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	rr = s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/v1/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token := s.login(t)
	rr = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Tester", decode[UserResponse](t, rr).Name)

	rr = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Email: "bad", Password: "password123"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	req := RegisterRequest{Email: gofakeit.Email(), Password: "password123"}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/auth/register", "", req).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/v1/auth/register", "", req).Code)
}

func TestExercises(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	id := s.exercise(t, "Squat")

	rr := s.do(t, http.MethodGet, "/api/v1/exercises", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]ExerciseResponse](t, rr), 1)

	rr = s.do(t, http.MethodGet, "/api/v1/exercises/"+id, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Squat", decode[ExerciseResponse](t, rr).Name)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/exercises/nope", "", nil).Code)
}

func TestPlanItemsFlow(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	token := s.login(t)
	ex := s.exercise(t, "Push-Up")

	rr := s.do(t, http.MethodPost, "/api/v1/plans", token, PlanRequest{Title: "Upper body", FrequencyPerWeek: 3})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	planID := decode[PlanResponse](t, rr).ID

	ids := map[string]string{}
	for _, n := range []string{"A", "B", "C"} {
		rr = s.do(t, http.MethodPost, "/api/v1/plans/"+planID+"/items", token, CreatePlanItemRequest{
			ExerciseID:            ex,
			PlanItemFieldsRequest: PlanItemFieldsRequest{Notes: n},
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		ids[n] = decode[PlanItemResponse](t, rr).ID
	}

	one := 1
	rr = s.do(t, http.MethodPatch, "/api/v1/plans/"+planID+"/items/"+ids["C"], token, PlanItemFieldsRequest{Notes: "C", Position: &one})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"C", "A", "B"}, s.itemNotes(t, token, planID))

	five := 5
	rr = s.do(t, http.MethodPost, "/api/v1/plans/"+planID+"/items", token, CreatePlanItemRequest{
		ExerciseID:            ex,
		PlanItemFieldsRequest: PlanItemFieldsRequest{Notes: "X", Position: &five},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/plans/"+planID+"/items", token, CreatePlanItemRequest{
		ExerciseID: "0123456789abcdef01234567",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodDelete, "/api/v1/plans/"+planID+"/items/"+ids["A"], token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"C", "B"}, s.itemNotes(t, token, planID))

	rr = s.do(t, http.MethodGet, "/api/v1/plans/"+planID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	plan := decode[PlanResponse](t, rr)
	require.Len(t, plan.Items, 2)
	assert.Equal(t, "C", plan.Items[0].Notes)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterPlanItemOps.WithLabelValues("reposition", metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterRequests.WithLabelValues(http.MethodDelete, "/api/v1/plans/:planId/items/:itemId", "204")))
}

func TestPlansAreScopedToTheirOwner(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	owner, stranger := s.login(t), s.login(t)
	ex := s.exercise(t, "Lunge")

	rr := s.do(t, http.MethodPost, "/api/v1/plans", owner, PlanRequest{Title: "Legs"})
	require.Equal(t, http.StatusCreated, rr.Code)
	planID := decode[PlanResponse](t, rr).ID

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/plans/"+planID, stranger, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/plans/"+planID+"/items", stranger, nil).Code)
	rr = s.do(t, http.MethodPost, "/api/v1/plans/"+planID+"/items", stranger, CreatePlanItemRequest{ExerciseID: ex})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/plans/"+planID, stranger, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/plans/not-an-id", owner, nil).Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/plans/"+planID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/plans/"+planID, owner, nil).Code)
}

func TestWorkoutModeFlow(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	token := s.login(t)
	ex := s.exercise(t, "Plank")

	rr := s.do(t, http.MethodPost, "/api/v1/plans", token, PlanRequest{Title: "Core"})
	require.Equal(t, http.StatusCreated, rr.Code)
	planID := decode[PlanResponse](t, rr).ID
	rr = s.do(t, http.MethodPost, "/api/v1/plans/"+planID+"/items", token, CreatePlanItemRequest{ExerciseID: ex})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/workout-mode/start/"+planID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[service.SessionView](t, rr)
	require.NotNil(t, view.CurrentExercise)
	assert.Equal(t, "Plank", view.CurrentExercise.ExerciseName)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/workout-mode/start/"+planID, token, nil).Code)

	sessionPath := "/api/v1/workout-mode/" + view.ID.Hex()
	rr = s.do(t, http.MethodPatch, sessionPath+"/complete", token, SessionNotesRequest{Notes: "solid"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Nil(t, decode[service.SessionView](t, rr).CurrentExercise)

	rr = s.do(t, http.MethodPost, sessionPath+"/finish", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "finished", decode[service.FinishResult](t, rr).Status)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, sessionPath+"/finish", token, nil).Code)

	rr = s.do(t, http.MethodGet, "/api/v1/tracking/workouts", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]WorkoutLogResponse](t, rr), 2)
}

func TestTracking(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	token := s.login(t)

	rr := s.do(t, http.MethodPost, "/api/v1/tracking/weights", token, WeightLogRequest{LogDate: "03-10-2025", Weight: 70})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = s.do(t, http.MethodPost, "/api/v1/tracking/weights", token, WeightLogRequest{LogDate: "2025-10-03", Weight: 70})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "2025-10-03", decode[WeightLogResponse](t, rr).LogDate)

	rr = s.do(t, http.MethodPost, "/api/v1/tracking/goals", token, GoalRequest{Type: "exercise", TargetValue: 20})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = s.do(t, http.MethodPost, "/api/v1/tracking/goals", token, GoalRequest{Type: "weight", TargetValue: 65, Deadline: "2026-01-01"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	goal := decode[GoalResponse](t, rr)
	require.NotNil(t, goal.Deadline)
	assert.Equal(t, "2026-01-01", *goal.Deadline)

	rr = s.do(t, http.MethodPatch, "/api/v1/tracking/goals/"+goal.ID, token, GoalRequest{Type: "weight", TargetValue: 66})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 66.0, decode[GoalResponse](t, rr).TargetValue)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/tracking/goals/"+goal.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/tracking/goals/"+goal.ID, token, nil).Code)
}

func TestExportDisabled(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	token := s.login(t)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodPost, "/api/v1/export", token, nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()
	s := newTestServer(t, RouterOptions{
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	s.do(t, http.MethodGet, "/ping", "", nil)

	rr := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "athlos_test_server_request")
}

type testRequestRateLimiter struct {
	allowed map[string]int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.allowed[key]++
	if l.allowed[key] > limit.Rate {
		return &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 30 * time.Second}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: limit.Rate - l.allowed[key]}, nil
}

func TestLoginRateLimit(t *testing.T) {
	m := metrics.NewTestManager()
	s := newTestServer(t, RouterOptions{
		Metrics:            m,
		RateLimiter:        &testRequestRateLimiter{allowed: map[string]int{}},
		LoginRatePerMinute: 2,
	})

	for i := 0; i < 2; i++ {
		rr := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "a@example.com", Password: "x"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code, fmt.Sprintf("attempt %d", i))
	}
	rr := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "a@example.com", Password: "x"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRateLimited))

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/ping", "", nil).Code)
}

// conflictingPlanItems loses every item transaction to a concurrent writer.
type conflictingPlanItems struct {
	repository.PlanItemRepository
}

func (conflictingPlanItems) WithPlanTx(context.Context, primitive.ObjectID, primitive.ObjectID, func(context.Context, repository.PlanItemTx) error) error {
	return fmt.Errorf("%w: write conflict on plan", repository.ErrConflict)
}

func TestPlanItemConflict(t *testing.T) {
	repos := memory.NewRepositories(memory.NewStore())
	repos.PlanItems = conflictingPlanItems{repos.PlanItems}
	s := newTestServerWithRepos(t, RouterOptions{}, repos)
	token := s.login(t)
	ex := s.exercise(t, "Row")

	rr := s.do(t, http.MethodPost, "/api/v1/plans", token, PlanRequest{Title: "Back"})
	require.Equal(t, http.StatusCreated, rr.Code)
	planID := decode[PlanResponse](t, rr).ID

	rr = s.do(t, http.MethodPost, "/api/v1/plans/"+planID+"/items", token, CreatePlanItemRequest{ExerciseID: ex})
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterPlanItemOps.WithLabelValues("insert", metrics.ResultConflict)))
}
