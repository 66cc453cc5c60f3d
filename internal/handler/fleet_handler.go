package handler

import (
	"net/http"

	"github.com/starlane-games/expanse/internal/service"
	"github.com/starlane-games/expanse/pkg/galaxy"
)

// FleetHandler handles fleet management and assault endpoints. All routes are
// faction-scoped: the acting faction always comes from the session token.
type FleetHandler struct {
	svc *service.GameService
}

// NewFleetHandler creates a FleetHandler.
func NewFleetHandler(svc *service.GameService) *FleetHandler {
	return &FleetHandler{svc: svc}
}

// CreateFleet handles POST /api/v1/games/{id}/fleets
func (h *FleetHandler) CreateFleet(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}

	var req struct {
		Planet string                  `json:"planet"`
		Ships  map[galaxy.ShipType]int `json:"ships"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Planet == "" || len(req.Ships) == 0 {
		writeError(w, http.StatusBadRequest, "planet and ships are required")
		return
	}

	fleet, err := h.svc.CreateFleet(r.Context(), gameID, claims.FactionID, req.Planet, req.Ships)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fleet)
}

// ReinforceFleet handles POST /api/v1/games/{id}/fleets/{fleetId}/reinforce
// Positive ship counts buy, negative counts scrap for a partial refund.
func (h *FleetHandler) ReinforceFleet(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}

	var req struct {
		Ships map[galaxy.ShipType]int `json:"ships"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Ships) == 0 {
		writeError(w, http.StatusBadRequest, "ships are required")
		return
	}

	refundMinerals, refundEnergy, err := h.svc.ReinforceFleet(r.Context(), gameID, claims.FactionID, r.PathValue("fleetId"), req.Ships)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "reinforced",
		"refund_minerals": refundMinerals,
		"refund_energy":   refundEnergy,
	})
}

// SetPatrol handles POST /api/v1/games/{id}/fleets/{fleetId}/patrol
func (h *FleetHandler) SetPatrol(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}

	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	if err := h.svc.SetPatrol(r.Context(), gameID, claims.FactionID, r.PathValue("fleetId"), req.From, req.To); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "patrolling"})
}

// MoveFleet handles POST /api/v1/games/{id}/fleets/{fleetId}/move
func (h *FleetHandler) MoveFleet(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}

	var req struct {
		Destination string `json:"destination"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Destination == "" {
		writeError(w, http.StatusBadRequest, "destination is required")
		return
	}

	if err := h.svc.MoveFleet(r.Context(), gameID, claims.FactionID, r.PathValue("fleetId"), req.Destination); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "moving"})
}

// Assault handles POST /api/v1/games/{id}/planets/{planetId}/assault
func (h *FleetHandler) Assault(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}

	report, err := h.svc.Assault(r.Context(), gameID, claims.FactionID, r.PathValue("planetId"))
	if err != nil {
		// An ineligible or short-handed assault still carries a report.
		if report != nil {
			writeJSON(w, http.StatusConflict, report)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// AssaultPreview handles GET /api/v1/games/{id}/planets/{planetId}/assault
func (h *FleetHandler) AssaultPreview(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	claims := session(w, r, gameID)
	if claims == nil {
		return
	}

	report, err := h.svc.AssaultPreview(r.Context(), gameID, claims.FactionID, r.PathValue("planetId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
