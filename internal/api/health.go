package api

import "net/http"

type healthResponse struct {
	Status         string `json:"status"`
	Engines        int    `json:"engines"`
	RunningMatches int    `json:"running_matches"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		Engines:        len(s.registry.List()),
		RunningMatches: s.manager.Running(),
	})
}
