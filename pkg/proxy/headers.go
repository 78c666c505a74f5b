/*
 * hls-bridge is a reverse proxy that relays and rewrites HLS streams from IPTV providers.
 * Copyright (C) 2025  Lucas Duport
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package proxy

import (
	"net/http"

	"github.com/lucasduport/hls-bridge/pkg/session"
	"github.com/lucasduport/hls-bridge/pkg/utils"
)

// OutboundHeaders is the header set sent upstream for one request.
// Built fresh per request and discarded afterwards.
type OutboundHeaders struct {
	Origin    string
	Referer   string
	UserAgent string
	Range     string // optional
	Cookie    string // optional
}

// Apply sets the composed headers on an outbound request, together with the
// fixed fingerprint headers a real player would send.
func (h OutboundHeaders) Apply(req *http.Request) {
	req.Header.Set("Origin", h.Origin)
	req.Header.Set("Referer", h.Referer)
	req.Header.Set("User-Agent", h.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", utils.GetLanguageHeader())
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Connection", "keep-alive")
	if h.Range != "" {
		req.Header.Set("Range", h.Range)
	}
	if h.Cookie != "" {
		req.Header.Set("Cookie", h.Cookie)
	}
}

// Composer builds outbound headers from the target URL and session memory.
// Deterministic and side-effect free; never mutates session state.
type Composer struct {
	Profiles  *ProfileTable
	UserAgent string
}

// Compose produces the outbound header set for target. incomingRange is the
// client-supplied Range header, empty when absent; snap is the session state
// at composition time.
func (c *Composer) Compose(t *TargetURL, incomingRange string, snap session.Snapshot) OutboundHeaders {
	h := OutboundHeaders{
		Origin:    t.Origin,
		Referer:   t.Origin + "/",
		UserAgent: c.UserAgent,
	}
	if h.UserAgent == "" {
		h.UserAgent = utils.GetIPTVUserAgent()
	}

	switch t.Class {
	case ClassPlaylist:
		// The baseline referer is fine for the initial playlist fetch, but
		// when the path carries a recognizable session token the origin
		// usually expects the canonical index playlist instead.
		if p, token, ok := c.Profiles.Lookup(t); ok {
			h.Referer = p.CanonicalPlaylist(t, token)
		}

	case ClassSegment:
		h.Range = incomingRange
		if h.Range == "" {
			h.Range = "bytes=0-"
		}
		if snap.LastPlaylistURL != "" {
			h.Referer = snap.LastPlaylistURL
		}
		if snap.LastCookie != "" {
			h.Cookie = snap.LastCookie
		}
	}

	return h
}
