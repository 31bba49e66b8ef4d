package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mafia/internal/domain"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveGames  int `json:"activeGames"`
	TotalPlayers int `json:"totalPlayers"`
}

// HistoryResponse lists the finished games of a room
type HistoryResponse struct {
	Room  string              `json:"room"`
	Games []domain.GameRecord `json:"games"`
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveGames:  s.registry.SessionCount(),
		TotalPlayers: s.registry.TotalPlayerCount(),
	})
}

// handleGetRoom handles GET /api/rooms/{room}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	session, ok := s.registry.Get(room)
	if !ok {
		s.sendError(w, http.StatusNotFound, domain.Code(domain.ErrNoSession), "No session in this room")
		return
	}

	s.sendSuccess(w, session.Snapshot())
}

// handleRoomHistory handles GET /api/rooms/{room}/history?limit=N
func (s *Server) handleRoomHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.sendError(w, http.StatusNotFound, "HISTORY_DISABLED", "Game history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			s.sendError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	room := mux.Vars(r)["room"]
	games, err := s.history.RecentGames(r.Context(), room, limit)
	if err != nil {
		s.logger.Error("failed to read game history", "room", room, "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(w, &HistoryResponse{
		Room:  room,
		Games: games,
	})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
