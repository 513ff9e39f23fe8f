// Package api serves the authenticated JSON endpoints for profiles,
// preferences, sleep records, activities, and goals.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/saveole/timecal/internal/activity"
	"github.com/saveole/timecal/internal/goal"
	"github.com/saveole/timecal/internal/httpx"
	apperrors "github.com/saveole/timecal/internal/platform/errors"
	"github.com/saveole/timecal/internal/preferences"
	"github.com/saveole/timecal/internal/profile"
	"github.com/saveole/timecal/internal/sleep"
)

// Store is the persistence surface the API needs.
type Store interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	UpdateProfile(ctx context.Context, userID string, in profile.UpdateInput) (profile.Profile, error)
	ProfileStats(ctx context.Context, userID string) (profile.Stats, error)

	GetPreferences(ctx context.Context, userID string) (preferences.Preferences, error)
	Ensure(ctx context.Context, userID string) (preferences.Preferences, error)
	UpdatePreferences(ctx context.Context, userID string, in preferences.UpdateInput) (preferences.Preferences, error)

	CreateSleep(ctx context.Context, userID string, in sleep.Input) (sleep.Record, error)
	GetSleep(ctx context.Context, userID, recordID string) (sleep.Record, error)
	ListSleep(ctx context.Context, userID, startDate, endDate string, limit int) ([]sleep.Record, error)
	UpdateSleep(ctx context.Context, userID, recordID string, in sleep.Input) (sleep.Record, error)
	DeleteSleep(ctx context.Context, userID, recordID string) error

	CreateActivity(ctx context.Context, userID string, in activity.Input) (activity.Activity, error)
	GetActivity(ctx context.Context, userID, activityID string) (activity.Activity, error)
	ListActivities(ctx context.Context, userID string, runningOnly bool, limit int) ([]activity.Activity, error)
	UpdateActivity(ctx context.Context, userID, activityID string, in activity.Input) (activity.Activity, error)
	StopActivity(ctx context.Context, userID, activityID string, end time.Time) (activity.Activity, error)
	DeleteActivity(ctx context.Context, userID, activityID string) error

	CreateGoal(ctx context.Context, userID string, in goal.Input) (goal.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (goal.Goal, error)
	ListGoals(ctx context.Context, userID string, activeOnly bool) ([]goal.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, in goal.Input) (goal.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
}

// Server holds the API dependencies.
type Server struct {
	store  Store
	logger *log.Logger
}

// NewServer assembles the API server.
func NewServer(store Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: store, logger: logger}
}

// RegisterRoutes mounts the API endpoints on mux, wrapping each in the
// authentication guard.
func (s *Server) RegisterRoutes(mux *http.ServeMux, guard httpx.Middleware) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, guard(h))
	}

	handle("GET /api/profile", s.handleGetProfile)
	handle("PUT /api/profile", s.handleUpdateProfile)

	handle("GET /api/preferences", s.handleGetPreferences)
	handle("POST /api/preferences", s.handleUpdatePreferences)
	handle("PUT /api/preferences", s.handleUpdatePreferences)

	handle("GET /api/sleep", s.handleListSleep)
	handle("POST /api/sleep", s.handleCreateSleep)
	handle("GET /api/sleep/{id}", s.handleGetSleep)
	handle("PUT /api/sleep/{id}", s.handleUpdateSleep)
	handle("DELETE /api/sleep/{id}", s.handleDeleteSleep)

	handle("GET /api/activities", s.handleListActivities)
	handle("POST /api/activities", s.handleCreateActivity)
	handle("GET /api/activities/{id}", s.handleGetActivity)
	handle("PUT /api/activities/{id}", s.handleUpdateActivity)
	handle("POST /api/activities/{id}/stop", s.handleStopActivity)
	handle("DELETE /api/activities/{id}", s.handleDeleteActivity)

	handle("GET /api/goals", s.handleListGoals)
	handle("GET /api/goals/analytics", s.handleGoalAnalytics)
	handle("POST /api/goals", s.handleCreateGoal)
	handle("GET /api/goals/{id}", s.handleGetGoal)
	handle("PUT /api/goals/{id}", s.handleUpdateGoal)
	handle("DELETE /api/goals/{id}", s.handleDeleteGoal)
}

// writeError logs unexpected failures and maps typed errors to HTTP
// statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	httpx.WriteError(w, err)
}
