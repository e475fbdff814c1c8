package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/analyst"
	"github.com/sells-group/dealboard/internal/estimate"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/ranking"
	"github.com/sells-group/dealboard/internal/validate"
)

func (s *Server) estimate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req struct {
		Property model.Property `json:"property"`
	}
	if err := validate.Decode(validate.Estimate, body, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	est, err := estimate.Value(req.Property, s.deps.Scoring)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type rankResponse struct {
	*ranking.RankResult
	RunID string `json:"runId,omitempty"`
}

// rank ranks the posted listings and records the run when a store is
// configured. A failed save is logged and the result still returned.
func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req, err := ranking.ParseRequest(body)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	result, err := s.deps.Ranker.Rank(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	resp := rankResponse{RankResult: result}
	if s.deps.Store != nil {
		raw, err := json.Marshal(result)
		if err == nil {
			var run *model.RankRun
			run, err = s.deps.Store.SaveRankRun(r.Context(), len(result.RankedDeals), raw)
			if err == nil {
				resp.RunID = run.ID
			}
		}
		if err != nil {
			zap.L().Warn("rank: save run failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRankRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusNotFound, "rank history is not enabled")
		return
	}
	run, err := s.deps.Store.GetRankRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listRankRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []model.RankRun{}})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}
	runs, err := s.deps.Store.ListRankRuns(r.Context(), limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.RankRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

type aiBody struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// ai runs one text-generation action. Provider failures answer 500 with
// {success:false, error}.
func (s *Server) ai(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req aiBody
	if err := validate.Decode(validate.AI, body, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	action, err := analyst.ParseAction(req.Action)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	resp, err := s.deps.AI.Do(r.Context(), action, req.Data)
	if err != nil {
		if model.IsValidation(err) {
			writeErr(w, r, err)
			return
		}
		zap.L().Warn("ai: action failed", zap.String("action", string(action)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, analyst.NewFailure(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
