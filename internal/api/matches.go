package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/match"
	"github.com/seantiz/quinttest/internal/model"
	"github.com/seantiz/quinttest/internal/player"
	"github.com/seantiz/quinttest/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
)

// listMatchesResponse wraps the paginated list response.
type listMatchesResponse struct {
	Matches []*model.Match `json:"matches"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// listGamesResponse wraps the paginated games of one match.
type listGamesResponse struct {
	MatchID string        `json:"match_id"`
	Games   []*model.Game `json:"games"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req match.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.PlayerA == "" || req.PlayerB == "" {
		s.writeError(w, http.StatusBadRequest, "player_a and player_b are required")
		return
	}

	m, err := s.manager.Submit(r.Context(), req)
	if err != nil {
		if isRequestError(err) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("submit match", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create match")
		return
	}

	s.writeJSON(w, http.StatusAccepted, m)
}

// isRequestError reports whether err was caused by the submitted settings.
func isRequestError(err error) bool {
	return errors.Is(err, clock.ErrInvalidTimeControl) ||
		errors.Is(err, match.ErrInvalidConfig) ||
		errors.Is(err, match.ErrUnsatisfiableSplit) ||
		errors.Is(err, player.ErrNotFound) ||
		errors.Is(err, player.ErrInvalidName)
}

// matchID returns the {id} URL parameter. Malformed IDs cannot name a stored
// match, so they get a 404 without a store lookup.
func (s *Server) matchID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !model.ValidID(id) {
		s.writeError(w, http.StatusNotFound, "match not found")
		return "", false
	}
	return id, true
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.matchID(w, r)
	if !ok {
		return
	}

	m, err := s.store.GetMatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if err != nil {
		s.logger.Error("get match", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}

	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageQuery(r)

	matches, total, err := s.store.ListMatches(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list matches", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	if matches == nil {
		matches = []*model.Match{}
	}

	s.writeJSON(w, http.StatusOK, listMatchesResponse{
		Matches: matches,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	id, ok := s.matchID(w, r)
	if !ok {
		return
	}
	limit, offset := pageQuery(r)

	if _, err := s.store.GetMatch(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "match not found")
			return
		}
		s.logger.Error("get match for games", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}

	games, total, err := s.store.ListGames(r.Context(), id, limit, offset)
	if err != nil {
		s.logger.Error("list games", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list games")
		return
	}

	if games == nil {
		games = []*model.Game{}
	}

	s.writeJSON(w, http.StatusOK, listGamesResponse{
		MatchID: id,
		Games:   games,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (s *Server) handleCancelMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.matchID(w, r)
	if !ok {
		return
	}

	if err := s.manager.Cancel(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.writeError(w, http.StatusNotFound, "match not found")
		case errors.Is(err, match.ErrNotRunning):
			s.writeError(w, http.StatusConflict, "match is not running")
		default:
			s.logger.Error("cancel match", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to cancel match")
		}
		return
	}

	m, err := s.store.GetMatch(r.Context(), id)
	if err != nil {
		s.logger.Error("get cancelled match", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve match")
		return
	}

	s.writeJSON(w, http.StatusAccepted, m)
}

// pageQuery reads limit and offset, clamping them to the allowed range.
func pageQuery(r *http.Request) (limit, offset int) {
	limit = parseIntQuery(r, "limit", defaultListLimit)
	offset = parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
