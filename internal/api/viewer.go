// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/viewgate/viewgate/internal/auth"
	"github.com/viewgate/viewgate/internal/entitle"
	"github.com/viewgate/viewgate/internal/log"
)

// HeaderPlatform identifies the requesting client platform.
const HeaderPlatform = "X-Viewgate-Platform"

// viewerIdentity is the resolved per-request viewer: the entitlement
// context plus the stable identity, when one exists.
type viewerIdentity struct {
	viewer entitle.Viewer
	id     auth.Identity
	authed bool
}

// resolveViewer builds the viewer context from the platform header and an
// optional bearer token. Invalid or expired tokens degrade to anonymous
// rather than failing the request.
func (s *Server) resolveViewer(r *http.Request) viewerIdentity {
	platform := entitle.ParsePlatform(r.Header.Get(HeaderPlatform))

	token := auth.ExtractToken(r)
	if token == "" {
		return viewerIdentity{viewer: entitle.Viewer{Platform: platform}}
	}

	id, err := s.tokens.Verify(token, s.nowFn())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "viewer-auth")
		logger.Debug().
			Str("event", "viewer.token_rejected").
			Msg("bearer token rejected, treating viewer as anonymous")
		return viewerIdentity{viewer: entitle.Viewer{Platform: platform}}
	}

	return viewerIdentity{
		viewer: id.Viewer(platform),
		id:     id,
		authed: true,
	}
}

// viewFingerprint derives the dedup fingerprint for a view event.
// Authenticated viewers are keyed by their stable viewer ID; anonymous
// viewers by a hash of client address and user agent.
func (s *Server) viewFingerprint(r *http.Request, v viewerIdentity) string {
	if v.authed && v.id.ViewerID != "" {
		return "v:" + v.id.ViewerID
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(s.clientIP(r)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(r.UserAgent()))
	return fmt.Sprintf("a:%016x", h.Sum64())
}
