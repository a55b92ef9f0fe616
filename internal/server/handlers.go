package server

import (
	"net/http"

	"github.com/kabumemo/kabumemo/internal/httputil"
)

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.log)
}
