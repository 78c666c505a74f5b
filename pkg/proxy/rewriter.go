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
	"net/url"
	"strings"
)

// PlaylistContentType is the media type declared on every rewritten playlist.
const PlaylistContentType = "application/vnd.apple.mpegurl"

// Rewrite rewrites every URI line of an HLS playlist so it routes back
// through the proxy. Directive and blank lines pass through byte for byte;
// every other line is resolved against the upstream target's directory and
// replaced by {proxyOrigin}/proxy?url={escaped absolute URL}.
//
// Resolution always happens against the true upstream target, never a
// client-visible proxy URL, so rewriting is a fixed point: the URLs a client
// ends up fetching are identical no matter how often the playlist passes
// through here.
func Rewrite(body []byte, target *TargetURL, proxyOrigin string) string {
	// Lossy decode: invalid byte sequences become replacement runes instead
	// of failing the request.
	text := strings.ToValidUTF8(string(body), "�")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		ref, err := url.Parse(trimmed)
		if err != nil {
			// Leave unparseable lines alone rather than corrupting the playlist.
			continue
		}

		abs := target.URL.ResolveReference(ref)
		lines[i] = proxyOrigin + "/proxy?url=" + url.QueryEscape(abs.String())
	}

	return strings.Join(lines, "\n")
}
