package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/dealboard/internal/filter"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/store"
	"github.com/sells-group/dealboard/internal/validate"
)

type preferencesResponse struct {
	UserID      string                `json:"userId"`
	Preferences model.UserPreferences `json:"preferences"`
	Saved       bool                  `json:"saved"`
	Summary     string                `json:"summary"`
}

func (s *Server) respondPreferences(w http.ResponseWriter, status int, userID string, prefs model.UserPreferences, saved bool) {
	n := len(s.deps.Board.Snapshot().Deals)
	matched := 0
	for _, d := range s.deps.Board.Snapshot().Deals {
		if filter.Matches(&d, &prefs) {
			matched++
		}
	}
	writeJSON(w, status, preferencesResponse{
		UserID:      userID,
		Preferences: prefs,
		Saved:       saved,
		Summary:     filter.Summary(prefs, n, matched),
	})
}

// loadPreferences returns the saved preferences or the defaults.
func (s *Server) loadPreferences(r *http.Request, userID string) (model.UserPreferences, bool, error) {
	saved, err := s.deps.Store.GetPreferences(r.Context(), userID)
	if store.IsNotFound(err) {
		return model.DefaultPreferences(), false, nil
	}
	if err != nil {
		return model.UserPreferences{}, false, err
	}
	return *saved, true, nil
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	userID := chi.URLParam(r, "userID")
	prefs, saved, err := s.loadPreferences(r, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.respondPreferences(w, http.StatusOK, userID, prefs, saved)
}

// putPreferences replaces the preferences. Omitted fields take defaults.
func (s *Server) putPreferences(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := validate.Check(validate.Preferences, body); err != nil {
		writeErr(w, r, err)
		return
	}
	prefs, err := mergePreferences(body)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	if err := s.deps.Store.PutPreferences(r.Context(), userID, prefs); err != nil {
		writeErr(w, r, err)
		return
	}
	s.respondPreferences(w, http.StatusOK, userID, prefs, true)
}

// patchPreferences merges a partial update into the saved (or default)
// preferences. An invalid merge leaves the stored value untouched.
func (s *Server) patchPreferences(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var patch model.PreferencesPatch
	if err := validate.Decode(validate.Preferences, body, &patch); err != nil {
		writeErr(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	prefs, _, err := s.loadPreferences(r, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := prefs.Apply(patch); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.deps.Store.PutPreferences(r.Context(), userID, prefs); err != nil {
		writeErr(w, r, err)
		return
	}
	s.respondPreferences(w, http.StatusOK, userID, prefs, true)
}

func (s *Server) deletePreferences(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.deps.Store.DeletePreferences(r.Context(), chi.URLParam(r, "userID")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "preferences storage is not configured")
		return false
	}
	return true
}
