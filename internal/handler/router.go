package handler

import (
	"net/http"

	"github.com/starlane-games/expanse/internal/auth"
)

// NewRouter wires every endpoint onto a ServeMux. Game creation, discovery,
// and join are public; everything acting as a faction requires a session
// token scoped to the game.
func NewRouter(games *GameHandler, fleets *FleetHandler, ws *WSHandler, jwtMgr *auth.JWTManager) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public
	mux.HandleFunc("POST /api/v1/games", games.CreateGame)
	mux.HandleFunc("GET /api/v1/games", games.ListGames)
	mux.HandleFunc("GET /api/v1/games/{id}", games.GetGame)
	mux.HandleFunc("GET /api/v1/games/{id}/events", games.ListEvents)
	mux.HandleFunc("POST /api/v1/games/{id}/join", games.JoinGame)

	// Faction-scoped
	api := http.NewServeMux()
	api.HandleFunc("POST /games/{id}/commands", games.SubmitCommands)
	api.HandleFunc("POST /games/{id}/advance", games.AdvanceTurn)
	api.HandleFunc("GET /games/{id}/power", games.PowerBreakdown)
	api.HandleFunc("POST /games/{id}/stop", games.StopGame)
	api.HandleFunc("DELETE /games/{id}", games.DeleteGame)
	api.HandleFunc("POST /games/{id}/fleets", fleets.CreateFleet)
	api.HandleFunc("POST /games/{id}/fleets/{fleetId}/reinforce", fleets.ReinforceFleet)
	api.HandleFunc("POST /games/{id}/fleets/{fleetId}/patrol", fleets.SetPatrol)
	api.HandleFunc("POST /games/{id}/fleets/{fleetId}/move", fleets.MoveFleet)
	api.HandleFunc("POST /games/{id}/planets/{planetId}/assault", fleets.Assault)
	api.HandleFunc("GET /games/{id}/planets/{planetId}/assault", fleets.AssaultPreview)

	authMw := auth.Middleware(jwtMgr)
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	if ws != nil {
		mux.HandleFunc("GET /api/v1/ws", ws.ServeWS)
	}

	return mux
}
