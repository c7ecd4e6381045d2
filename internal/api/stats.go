package api

import (
	"net/http"
)

// statsResponse is the JSON response for GET /v1/stats.
type statsResponse struct {
	TotalMatches      int            `json:"total_matches"`
	ByStatus          map[string]int `json:"by_status"`
	TotalGames        int            `json:"total_games"`
	ByResult          map[string]int `json:"by_result"`
	AvgGameDurationMS float64        `json:"avg_game_duration_ms"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.logger.Error("get stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		TotalMatches:      stats.TotalMatches,
		ByStatus:          stats.CountByStatus,
		TotalGames:        stats.TotalGames,
		ByResult:          stats.CountByResult,
		AvgGameDurationMS: stats.AvgGameDurationMS,
	})
}
