package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerBrowseRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/locations", handler.ListLocations)
	mux.HandleFunc("GET /api/tournaments", handler.ListTournaments)
	mux.HandleFunc("GET /api/teams", handler.ListTeams)
	mux.HandleFunc("GET /api/matches", handler.ListMatches)
	mux.HandleFunc("GET /api/players/ranking", handler.PlayerRanking)
	mux.HandleFunc("GET /api/scans", handler.ListScans)
}

func registerScraperRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/scraper/status", handler.ScraperStatus)
	mux.HandleFunc("POST /api/scraper/run", handler.TriggerScraperRun)
}
