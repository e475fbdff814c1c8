package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/dealboard/internal/filter"
	"github.com/sells-group/dealboard/internal/mapview"
	"github.com/sells-group/dealboard/internal/market"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/scoring"
	"github.com/sells-group/dealboard/internal/store"
	"github.com/sells-group/dealboard/internal/validate"
)

const defaultTopLimit = 10

type dealList struct {
	Deals   []model.ScoredProperty `json:"deals"`
	Total   int                    `json:"total"`
	Filters map[string]any         `json:"filters,omitempty"`
}

type preferenceView struct {
	Deals       []model.ScoredProperty `json:"deals"`
	Total       int                    `json:"total"`
	Available   int                    `json:"available"`
	Summary     string                 `json:"summary"`
	Preferences model.UserPreferences  `json:"preferences"`
}

// listDeals is the public board: deal-board score, query-string filters.
func (s *Server) listDeals(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseDealQuery(r.URL.Query())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	scored := scoring.ScoreBoard(s.deps.Board.Snapshot().Copy(), s.now())
	deals := q.Apply(scored)
	writeJSON(w, http.StatusOK, dealList{Deals: deals, Total: len(deals), Filters: q.Echo()})
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deps.Board.Snapshot().Deal(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "deal not found")
		return
	}
	writeJSON(w, http.StatusOK, scoring.ScoreBoard([]model.Property{d}, s.now())[0])
}

// topDeals applies a user's saved preferences (defaults when none are saved).
func (s *Server) topDeals(w http.ResponseWriter, r *http.Request) {
	prefs := model.DefaultPreferences()
	if userID := r.URL.Query().Get("userId"); userID != "" && s.deps.Store != nil {
		saved, err := s.deps.Store.GetPreferences(r.Context(), userID)
		switch {
		case err == nil:
			prefs = *saved
		case !store.IsNotFound(err):
			writeErr(w, r, err)
			return
		}
	}

	key, err := filter.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}
	s.writePreferenceView(w, r, prefs, key, limit)
}

type filterBody struct {
	Preferences json.RawMessage `json:"preferences"`
	Sort        string          `json:"sort"`
	Limit       int             `json:"limit"`
}

// filterDeals applies ad-hoc preferences from the request body.
func (s *Server) filterDeals(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req filterBody
	if err := validate.Decode(validate.Filter, body, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	prefs, err := mergePreferences(req.Preferences)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	key, err := filter.ParseSortKey(req.Sort)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.writePreferenceView(w, r, prefs, key, req.Limit)
}

func (s *Server) writePreferenceView(w http.ResponseWriter, r *http.Request, prefs model.UserPreferences, key filter.SortKey, limit int) {
	deals := s.deps.Board.Snapshot().Copy()
	scored := scoring.ScoreProfitability(deals, &prefs, s.deps.Scoring)
	matched, err := filter.ApplyScored(scored, prefs)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	top := filter.SortScored(matched, key)
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	writeJSON(w, http.StatusOK, preferenceView{
		Deals:       top,
		Total:       len(top),
		Available:   len(matched),
		Summary:     filter.Summary(prefs, len(deals), len(matched)),
		Preferences: prefs,
	})
}

// mergePreferences overlays raw JSON onto the defaults and validates.
func mergePreferences(raw json.RawMessage) (model.UserPreferences, error) {
	prefs := model.DefaultPreferences()
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &prefs); err != nil {
			return prefs, &model.ValidationError{Field: "preferences", Message: err.Error()}
		}
	}
	if err := prefs.Validate(); err != nil {
		return prefs, err
	}
	return prefs, nil
}

func (s *Server) markets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"markets":  filter.AvailableMarkets(s.deps.Board.Snapshot().Deals),
		"registry": market.All(),
	})
}

// mapData clusters the board's deals; it accepts the listing query params
// plus precision.
func (s *Server) mapData(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseDealQuery(r.URL.Query())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	precision := 0
	if raw := r.URL.Query().Get("precision"); raw != "" {
		if precision, err = strconv.Atoi(raw); err != nil || precision < 0 {
			writeError(w, http.StatusBadRequest, "precision must be a non-negative integer")
			return
		}
	}
	scored := q.Apply(scoring.ScoreBoard(s.deps.Board.Snapshot().Copy(), s.now()))
	writeJSON(w, http.StatusOK, mapview.Build(scored, precision))
}

func (s *Server) categoryInsights(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": market.Categories(),
		"stats":      market.Stats(s.deps.Board.Snapshot().Deals),
	})
}
