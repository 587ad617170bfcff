package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/productimport/internal/core"
)

const healthTimeout = 5 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

type targetsResponse struct {
	Formats []string          `json:"formats"`
	Targets []core.TargetInfo `json:"targets"`
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	infos := make([]core.TargetInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	writeJSON(w, targetsResponse{
		Formats: s.importer.Formats(),
		Targets: infos,
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.limiter.Status())
}
