package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/occapi/cache"
	"github.com/briangreenhill/occapi/internal/catalogue"
	"github.com/briangreenhill/occapi/internal/entity"
	appmw "github.com/briangreenhill/occapi/internal/http/middleware"
	"github.com/briangreenhill/occapi/internal/meta"
	"github.com/briangreenhill/occapi/internal/providers"
)

type Server struct {
	Router    *chi.Mux
	Catalogue *catalogue.Service
	Registry  *providers.Registry
	Entities  entity.Lookup
	Resolver  *meta.Resolver
}

type ServerOptions struct {
	Catalogue *catalogue.Service
	Registry  *providers.Registry
	Entities  entity.Lookup
	Resolver  *meta.Resolver
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:    r,
		Catalogue: opts.Catalogue,
		Registry:  opts.Registry,
		Entities:  opts.Entities,
		Resolver:  opts.Resolver,
	}
	if s.Resolver == nil {
		s.Resolver = meta.NewResolver(s.Entities)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	r.Get("/providers", s.handleProviders)

	r.Route("/providers/{provider}", func(pr chi.Router) {
		pr.Use(appmw.RequireProvider(s.Registry.Enabled))
		pr.Get("/index", s.handleIndex)
		pr.Get("/institution", s.handleInstitution)
		pr.Get("/collections/{key}", s.handleCollection)
		pr.Get("/resources/{key}", s.handleResource)
	})

	r.Get("/programmes/{id}/courses", s.handleProgrammeCourses)
	r.Get("/courses/{id}/programmes", s.handleCourseProgrammes)
	r.Get("/courses/{id}/metadata-programmes", s.handleMetadataProgrammes)

	return s
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"header": providers.ListingHeader(),
		"rows":   s.Registry.Listing(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p, _ := appmw.ProviderFrom(r.Context())
	refresh := r.URL.Query().Get("refresh") == "1"

	body, err := s.Catalogue.Index(r.Context(), p.ID, refresh)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePayload(w, r, body)
}

func (s *Server) handleInstitution(w http.ResponseWriter, r *http.Request) {
	p, _ := appmw.ProviderFrom(r.Context())

	body, err := s.Catalogue.Institution(r.Context(), p.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePayload(w, r, body)
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	key, ok := s.providerKey(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	body, err := s.Catalogue.Collection(r.Context(), key, cache.ResourceType(q.Get("type")), cache.ResourceType(q.Get("filter")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePayload(w, r, body)
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	key, ok := s.providerKey(w, r)
	if !ok {
		return
	}

	body, err := s.Catalogue.Resource(r.Context(), key, cache.ResourceType(r.URL.Query().Get("type")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePayload(w, r, body)
}

func (s *Server) handleProgrammeCourses(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := entity.ProgrammeByID(r.Context(), s.Entities, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	table, err := s.Resolver.ProgrammeTable(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, table)
}

func (s *Server) handleCourseProgrammes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := entity.CourseByID(r.Context(), s.Entities, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	table, err := s.Resolver.CourseTable(r.Context(), c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, table)
}

// handleMetadataProgrammes lists the stored programmes a course's metadata
// names, whether or not the course references them yet.
func (s *Server) handleMetadataProgrammes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := entity.CourseByID(r.Context(), s.Entities, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	found, err := s.Resolver.ProgrammesByRemoteIDs(r.Context(), c.Meta)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	list := make([]entity.Programme, 0, len(found))
	for _, p := range found {
		list = append(list, p)
	}
	writeJSON(w, r, http.StatusOK, list)
}

// providerKey reads the {key} parameter and checks it belongs to the
// provider in the path
func (s *Server) providerKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid key"})
		return "", false
	}

	p, _ := appmw.ProviderFrom(r.Context())
	if cache.Decode(key).Provider != p.ID {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "key does not belong to provider " + p.ID})
		return "", false
	}
	return key, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal server error"
	}
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cache.ErrInvalidKeyShape),
		errors.Is(err, cache.ErrUnsupportedResourceType),
		errors.Is(err, cache.ErrUnsupportedFilterType),
		errors.Is(err, cache.ErrTypeMismatch),
		errors.Is(err, catalogue.ErrFilterNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, providers.ErrUnknownProvider),
		errors.Is(err, providers.ErrProviderDisabled),
		errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writePayload sends a cached payload as stored. An empty payload means the
// provider had nothing usable when last asked.
func writePayload(w http.ResponseWriter, r *http.Request, body json.RawMessage) {
	if len(body) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.api+json")
	if _, err := w.Write(body); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write payload")
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
	}
}
