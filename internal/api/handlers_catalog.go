// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/viewgate/viewgate/internal/catalog"
	"github.com/viewgate/viewgate/internal/log"
)

const (
	defaultNewLimit     = 10
	defaultRelatedLimit = 10
	maxListLimit        = 200
)

// handleListChannels serves GET /api/channels.
// Optional query parameters: category, limit.
func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    parseLimit(r.URL.Query().Get("limit"), 0),
	}

	channels, err := s.catalog.List(r.Context(), filter, s.resolveViewer(r).viewer)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// handleFeaturedChannels serves GET /api/channels/featured.
func (s *Server) handleFeaturedChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.catalog.Featured(r.Context(), s.resolveViewer(r).viewer)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// handleNewChannels serves GET /api/channels/new.
func (s *Server) handleNewChannels(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), defaultNewLimit)
	channels, err := s.catalog.Newest(r.Context(), limit, s.resolveViewer(r).viewer)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// handleGetChannel serves GET /api/channels/{channelID}.
func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := s.catalog.Get(r.Context(), chi.URLParam(r, "channelID"), s.resolveViewer(r).viewer)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// handleRelatedChannels serves GET /api/channels/{channelID}/related.
func (s *Server) handleRelatedChannels(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), defaultRelatedLimit)
	channels, err := s.catalog.Related(r.Context(), chi.URLParam(r, "channelID"), limit, s.resolveViewer(r).viewer)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// catalogError maps catalog failures onto HTTP responses. Invisible and
// missing channels are both 404.
func (s *Server) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotVisible) || errors.Is(err, catalog.ErrChannelNotFound) {
		writeNotFound(w, r)
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().Err(err).Str("event", "catalog.read_failed").Msg("catalog read failed")
	writeInternalError(w, r)
}

// parseLimit parses a limit query value, clamped to maxListLimit.
// Invalid or missing values yield fallback.
func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
