package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	applog "donghaeng/internal/log"
)

// Mapping routes edit shared reference data; any authenticated user may call them.

func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	mappings := s.svc.Mappings.ListMappings()
	out := make([]mappingResponse, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, toMappingResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"mappings": out})
}

func (s *Server) handlePutMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	m, err := s.svc.Mappings.SetMapping(r.Context(), labelParam(r), req.Category)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toMappingResponse(m))
}

func (s *Server) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Mappings.DeleteMapping(r.Context(), labelParam(r)); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMappingGaps(w http.ResponseWriter, r *http.Request) {
	gaps, err := s.svc.Mappings.ListMappingGaps(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]mappingGapResponse, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, toMappingGapResponse(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"gaps": out})
}

// labelParam returns the decoded {label} segment. chi yields the escaped form
// when the path carried an encoded slash.
func labelParam(r *http.Request) string {
	raw := chi.URLParam(r, "label")
	if label, err := url.PathUnescape(raw); err == nil {
		return label
	}
	return raw
}
