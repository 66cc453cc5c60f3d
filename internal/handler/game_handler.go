package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/starlane-games/expanse/internal/auth"
	"github.com/starlane-games/expanse/internal/service"
	"github.com/starlane-games/expanse/pkg/galaxy"
)

// GameDefaults carries the server-level fallbacks applied when a create
// request leaves the corresponding field unset.
type GameDefaults struct {
	MaxTurns     int
	TruceSeconds int
}

// GameHandler handles game lifecycle and command endpoints.
type GameHandler struct {
	svc      *service.GameService
	jwtMgr   *auth.JWTManager
	defaults GameDefaults
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(svc *service.GameService, jwtMgr *auth.JWTManager, defaults GameDefaults) *GameHandler {
	return &GameHandler{svc: svc, jwtMgr: jwtMgr, defaults: defaults}
}

// writeServiceError maps service sentinels onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrFactionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, galaxy.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrGameNotActive):
		status = http.StatusBadRequest
	case errors.Is(err, galaxy.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, galaxy.ErrInsufficientResources),
		errors.Is(err, galaxy.ErrGarrisonFull),
		errors.Is(err, galaxy.ErrNotAdjacent),
		errors.Is(err, galaxy.ErrNoSuchEdge),
		errors.Is(err, galaxy.ErrPatrolCapReached),
		errors.Is(err, galaxy.ErrNotEligible),
		errors.Is(err, galaxy.ErrNotEnoughShips),
		errors.Is(err, galaxy.ErrPlanetUnowned):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

// session returns the authenticated claims if they grant access to gameID.
func session(w http.ResponseWriter, r *http.Request, gameID string) *auth.Claims {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return nil
	}
	if claims.GameID != gameID {
		writeError(w, http.StatusForbidden, "token is for a different game")
		return nil
	}
	return claims
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string                    `json:"name"`
		Planets     map[string]*galaxy.Planet `json:"planets"`
		Connections [][2]string               `json:"connections"`
		Factions    []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			IsAI       bool   `json:"is_ai"`
			HomePlanet string `json:"home_planet"`
		} `json:"factions"`
		MaxTurns      int  `json:"max_turns"`
		TruceSeconds  *int `json:"truce_seconds,omitempty"`
		AllowPostgame bool `json:"allow_postgame"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	params := service.CreateGameParams{
		Name:          req.Name,
		Planets:       req.Planets,
		MaxTurns:      req.MaxTurns,
		TruceSeconds:  h.defaults.TruceSeconds,
		AllowPostgame: req.AllowPostgame,
	}
	if params.MaxTurns == 0 {
		params.MaxTurns = h.defaults.MaxTurns
	}
	if req.TruceSeconds != nil {
		params.TruceSeconds = *req.TruceSeconds
	}
	for _, c := range req.Connections {
		params.Connections = append(params.Connections, galaxy.NewEdge(c[0], c[1]))
	}
	for _, f := range req.Factions {
		params.Factions = append(params.Factions, galaxy.FactionSeed{
			ID:         f.ID,
			Name:       f.Name,
			IsAI:       f.IsAI,
			HomePlanet: f.HomePlanet,
		})
	}

	game, state, err := h.svc.CreateGame(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"game":  game,
		"state": state,
	})
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.svc.ListGames(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id} — the full world snapshot.
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.GetSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListEvents handles GET /api/v1/games/{id}/events
func (h *GameHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	events, err := h.svc.ListEvents(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// JoinGame handles POST /api/v1/games/{id}/join — issues a faction-scoped
// session token. One faction, one seat; AI factions cannot be claimed.
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		Faction string `json:"faction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Faction == "" {
		writeError(w, http.StatusBadRequest, "faction is required")
		return
	}

	game, err := h.svc.GetGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var found bool
	for _, f := range game.Factions {
		if f.FactionID == req.Faction {
			if f.IsAI {
				writeError(w, http.StatusBadRequest, "faction is AI controlled")
				return
			}
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "faction not in this game")
		return
	}

	token, err := h.jwtMgr.GenerateToken(gameID, req.Faction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token":   token,
		"game_id": gameID,
		"faction": req.Faction,
	})
}

// SubmitCommands handles POST /api/v1/games/{id}/commands
func (h *GameHandler) SubmitCommands(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}

	var commands []galaxy.Command
	if err := decodeJSON(r, &commands); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.SubmitCommands(r.Context(), gameID, claims.FactionID, commands); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "queued",
		"count":  len(commands),
	})
}

// AdvanceTurn handles POST /api/v1/games/{id}/advance — manual resolution,
// mainly for untimed games.
func (h *GameHandler) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if session(w, r, gameID) == nil {
		return
	}
	if err := h.svc.AdvanceTurn(r.Context(), gameID); err != nil {
		writeServiceError(w, err)
		return
	}
	snap, err := h.svc.GetSnapshot(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PowerBreakdown handles GET /api/v1/games/{id}/power
func (h *GameHandler) PowerBreakdown(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}
	faction := claims.FactionID
	if v := r.URL.Query().Get("faction"); v != "" {
		faction = v
	}
	b, err := h.svc.PowerBreakdown(r.Context(), gameID, faction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// StopGame handles POST /api/v1/games/{id}/stop
func (h *GameHandler) StopGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if session(w, r, gameID) == nil {
		return
	}
	if err := h.svc.StopGame(r.Context(), gameID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if session(w, r, gameID) == nil {
		return
	}
	if err := h.svc.DeleteGame(r.Context(), gameID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
