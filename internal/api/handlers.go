package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/saveole/timecal/internal/activity"
	"github.com/saveole/timecal/internal/auth/oauth"
	"github.com/saveole/timecal/internal/goal"
	"github.com/saveole/timecal/internal/httpx"
	apperrors "github.com/saveole/timecal/internal/platform/errors"
	"github.com/saveole/timecal/internal/preferences"
	"github.com/saveole/timecal/internal/profile"
	"github.com/saveole/timecal/internal/sleep"
)

func userID(r *http.Request) (string, bool) {
	identity, ok := oauth.IdentityFrom(r.Context())
	if !ok || identity.UserID == "" {
		return "", false
	}
	return identity.UserID, true
}

// requireUser resolves the authenticated user id or answers 401. The
// guard already verified the token; this catches tokens issued before
// the profile existed.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := userID(r)
	if !ok {
		httpx.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return id, true
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := decoder.Decode(out); err != nil {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid JSON body")
	}
	return nil
}

// --- profile ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	p, err := s.store.Get(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	payload := map[string]any{"profile": p}
	if r.URL.Query().Get("includeStats") == "true" {
		stats, err := s.store.ProfileStats(r.Context(), uid)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		payload["stats"] = stats
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	// Reject attempts to rewrite provider identity fields before
	// decoding into the typed input.
	var raw map[string]json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, field := range []string{"github_username", "github_id", "auth_provider", "id"} {
		if _, present := raw[field]; present {
			httpx.WriteJSONError(w, http.StatusBadRequest, "Field "+field+" cannot be modified")
			return
		}
	}

	var in profile.UpdateInput
	if err := remarshal(raw, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.UpdateProfile(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func remarshal(raw map[string]json.RawMessage, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid JSON body")
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid JSON body")
	}
	return nil
}

// --- preferences ---

// handleGetPreferences answers stored preferences. With
// createDefault=true a missing row is materialized with defaults;
// without it, a missing row is 404.
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var (
		prefs preferences.Preferences
		err   error
	)
	if r.URL.Query().Get("createDefault") == "true" {
		prefs, err = s.store.Ensure(r.Context(), uid)
	} else {
		prefs, err = s.store.GetPreferences(r.Context(), uid)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in preferences.UpdateInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	prefs, err := s.store.UpdatePreferences(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

// --- sleep ---

func (s *Server) handleListSleep(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			httpx.WriteJSONError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}
	records, err := s.store.ListSleep(r.Context(), uid, q.Get("start_date"), q.Get("end_date"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleCreateSleep(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in sleep.Input
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.store.CreateSleep(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"record": rec})
}

func (s *Server) handleGetSleep(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	rec, err := s.store.GetSleep(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (s *Server) handleUpdateSleep(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in sleep.Input
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.store.UpdateSleep(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (s *Server) handleDeleteSleep(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteSleep(r.Context(), uid, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- activities ---

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			httpx.WriteJSONError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}
	activities, err := s.store.ListActivities(r.Context(), uid, q.Get("running") == "true", limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activities": activities})
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in activity.Input
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.CreateActivity(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"activity": created})
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	found, err := s.store.GetActivity(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activity": found})
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in activity.Input
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateActivity(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activity": updated})
}

func (s *Server) handleStopActivity(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		EndTime *time.Time `json:"end_time"`
	}
	// An empty body stops the activity now.
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	end := time.Time{}
	if body.EndTime != nil {
		end = *body.EndTime
	}
	stopped, err := s.store.StopActivity(r.Context(), uid, r.PathValue("id"), end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activity": stopped})
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteActivity(r.Context(), uid, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- goals ---

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	goals, err := s.store.ListGoals(r.Context(), uid, r.URL.Query().Get("active") == "true")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in goal.Input
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.CreateGoal(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"goal": created})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	found, err := s.store.GetGoal(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"goal": found})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in goal.Input
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateGoal(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"goal": updated})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteGoal(r.Context(), uid, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGoalAnalytics(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	weeks := 8
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 52 {
			s.writeError(w, r, apperrors.New(apperrors.CodeValidationFailed, "Weeks parameter must be between 1 and 52"))
			return
		}
		weeks = parsed
	}

	goals, err := s.store.ListGoals(r.Context(), uid, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	activities, err := s.store.ListActivities(r.Context(), uid, false, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Only finished spans count toward goal hours.
	efforts := make([]goal.Effort, 0, len(activities))
	for _, a := range activities {
		if a.Running() {
			continue
		}
		efforts = append(efforts, goal.Effort{
			Category: a.Category,
			When:     a.StartTime,
			Hours:    float64(a.DurationMins) / 60,
		})
	}

	analytics := goal.ComputeAnalytics(goals, efforts, weeks, time.Now().UTC())
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"analytics": analytics})
}
