package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", s.HandleSession)
	mux.HandleFunc("POST /api/search", s.HandleSearch)
	mux.HandleFunc("POST /api/more", s.HandleMore)
	mux.HandleFunc("POST /api/dismiss/{id}", s.HandleDismiss)
	mux.HandleFunc("GET /health", s.HandleHealth)
}

// RegisterSocketRoute adds the snapshot stream. It must not sit behind
// response-wrapping middleware such as gzip, which hides http.Hijacker.
func (s *Server) RegisterSocketRoute(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ws", s.HandleSocket)
}
