// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viewgate/viewgate/internal/log"
	"github.com/viewgate/viewgate/internal/presence"
	"github.com/viewgate/viewgate/internal/views"
)

type heartbeatRequest struct {
	DeviceID string `json:"device_id"`
}

type heartbeatResponse struct {
	ChannelID   string `json:"channel_id"`
	LiveViewers int    `json:"live_viewers"`
}

type viewResponse struct {
	ChannelID string `json:"channel_id"`
	Counted   bool   `json:"counted"`
}

// handleHeartbeat serves POST /api/channels/{channelID}/heartbeat.
// The channel must be visible to the caller; heartbeats against hidden
// channels look like heartbeats against missing ones.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if s.hbLimiter != nil && !s.hbLimiter.Allow(s.clientIP(r)) {
		writeTooManyRequests(w, r)
		return
	}

	channelID := chi.URLParam(r, "channelID")
	viewer := s.resolveViewer(r)

	if _, err := s.catalog.Get(r.Context(), channelID, viewer.viewer); err != nil {
		s.catalogError(w, r, err)
		return
	}

	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "malformed JSON body")
		return
	}

	live, err := s.presence.Heartbeat(channelID, req.DeviceID, s.nowFn())
	if err != nil {
		var verr *presence.ValidationError
		if errors.As(err, &verr) {
			writeBadRequest(w, r, verr.Error())
			return
		}
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldChannelID, channelID).
			Str("event", "heartbeat.failed").Msg("heartbeat failed")
		writeInternalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, heartbeatResponse{ChannelID: channelID, LiveViewers: live})
}

// handleRecordView serves POST /api/channels/{channelID}/view.
// The response reports whether the view was counted or deduplicated;
// both outcomes are 200.
func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	viewer := s.resolveViewer(r)

	if _, err := s.catalog.Get(r.Context(), channelID, viewer.viewer); err != nil {
		s.catalogError(w, r, err)
		return
	}

	counted, err := s.views.RecordView(r.Context(), channelID, s.viewFingerprint(r, viewer), s.nowFn())
	if err != nil {
		var verr *views.ValidationError
		if errors.As(err, &verr) {
			writeBadRequest(w, r, verr.Error())
			return
		}
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldChannelID, channelID).
			Str("event", "view.failed").Msg("view ingest failed")
		writeInternalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, viewResponse{ChannelID: channelID, Counted: counted})
}
