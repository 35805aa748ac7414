// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viewgate/viewgate/internal/catalog"
	"github.com/viewgate/viewgate/internal/entitle"
	"github.com/viewgate/viewgate/internal/log"
)

// settingsDTO is the admin wire form of the global settings.
type settingsDTO struct {
	OpenAccess        bool     `json:"open_access"`
	DisabledPlatforms []string `json:"disabled_platforms"`
	BlockAll          bool     `json:"block_all"`
}

// channelDTO is the admin wire form of a channel record. Lifetime views
// are owned by the view counter and cannot be set here.
type channelDTO struct {
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	LogoURL          string    `json:"logo_url,omitempty"`
	Status           string    `json:"status"`
	AllowedPlatforms []string  `json:"allowed_platforms"`
	Premium          bool      `json:"premium"`
	PublicPreview    bool      `json:"public_preview"`
	Featured         bool      `json:"featured"`
	StreamURL        string    `json:"stream_url"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// handleGetSettings serves GET /api/admin/settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsToDTO(s.settings.Snapshot()))
}

// handleUpdateSettings serves PUT /api/admin/settings. The update is
// persisted before it takes effect; a persist failure changes nothing.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var dto settingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, r, "malformed JSON body")
		return
	}

	next := entitle.Settings{
		OpenAccess: dto.OpenAccess,
		BlockAll:   dto.BlockAll,
	}
	for _, raw := range dto.DisabledPlatforms {
		p := entitle.ParsePlatform(raw)
		if p == "" {
			writeBadRequest(w, r, "unknown platform: "+raw)
			return
		}
		next.DisabledPlatforms = append(next.DisabledPlatforms, p)
	}

	if err := s.settings.Update(next); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "admin")
		logger.Error().Err(err).Str("event", "settings.persist_failed").Msg("settings update failed")
		writeInternalError(w, r)
		return
	}

	s.logger.Info().
		Str("event", "settings.updated").
		Bool("open_access", next.OpenAccess).
		Bool("block_all", next.BlockAll).
		Msg("global settings updated")
	writeJSON(w, http.StatusOK, settingsToDTO(s.settings.Snapshot()))
}

// handleUpsertChannel serves PUT /api/admin/channels/{channelID}.
func (s *Server) handleUpsertChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var dto channelDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, r, "malformed JSON body")
		return
	}

	ch, err := channelFromDTO(channelID, dto, s.nowFn)
	if err != "" {
		writeBadRequest(w, r, err)
		return
	}

	if uerr := s.store.UpsertChannel(r.Context(), ch); uerr != nil {
		logger := log.WithComponentFromContext(r.Context(), "admin")
		logger.Error().Err(uerr).Str(log.FieldChannelID, channelID).
			Str("event", "channel.upsert_failed").Msg("channel upsert failed")
		writeInternalError(w, r)
		return
	}

	s.logger.Info().
		Str("event", "channel.upserted").
		Str(log.FieldChannelID, channelID).
		Str("status", string(ch.Status)).
		Msg("channel upserted")
	writeJSON(w, http.StatusOK, map[string]string{"id": channelID})
}

// handleDeleteChannel serves DELETE /api/admin/channels/{channelID}.
// Deleting a missing channel succeeds.
func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	if err := s.store.DeleteChannel(r.Context(), channelID); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "admin")
		logger.Error().Err(err).Str(log.FieldChannelID, channelID).
			Str("event", "channel.delete_failed").Msg("channel delete failed")
		writeInternalError(w, r)
		return
	}

	s.logger.Info().
		Str("event", "channel.deleted").
		Str(log.FieldChannelID, channelID).
		Msg("channel deleted")
	w.WriteHeader(http.StatusNoContent)
}

func settingsToDTO(s entitle.Settings) settingsDTO {
	dto := settingsDTO{
		OpenAccess:        s.OpenAccess,
		BlockAll:          s.BlockAll,
		DisabledPlatforms: make([]string, 0, len(s.DisabledPlatforms)),
	}
	for _, p := range s.DisabledPlatforms {
		dto.DisabledPlatforms = append(dto.DisabledPlatforms, string(p))
	}
	return dto
}

// channelFromDTO validates and converts the admin payload. It returns a
// non-empty detail string on validation failure.
func channelFromDTO(id string, dto channelDTO, now func() time.Time) (catalog.Channel, string) {
	if id == "" {
		return catalog.Channel{}, "channel id must not be empty"
	}
	if dto.Name == "" {
		return catalog.Channel{}, "name must not be empty"
	}
	if dto.StreamURL == "" {
		return catalog.Channel{}, "stream_url must not be empty"
	}

	switch entitle.ChannelStatus(dto.Status) {
	case entitle.StatusActive, entitle.StatusInactive, entitle.StatusRetired:
	default:
		return catalog.Channel{}, "status must be one of: active, inactive, retired"
	}

	platforms := make([]entitle.Platform, 0, len(dto.AllowedPlatforms))
	for _, raw := range dto.AllowedPlatforms {
		p := entitle.ParsePlatform(raw)
		if p == "" {
			return catalog.Channel{}, "unknown platform: " + raw
		}
		platforms = append(platforms, p)
	}

	createdAt := dto.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}

	return catalog.Channel{
		ID:               id,
		Name:             dto.Name,
		Description:      dto.Description,
		Category:         dto.Category,
		LogoURL:          dto.LogoURL,
		Status:           entitle.ChannelStatus(dto.Status),
		AllowedPlatforms: platforms,
		Premium:          dto.Premium,
		PublicPreview:    dto.PublicPreview,
		Featured:         dto.Featured,
		StreamURL:        dto.StreamURL,
		CreatedAt:        createdAt,
	}, ""
}
