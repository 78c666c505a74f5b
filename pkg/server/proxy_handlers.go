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

package server

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lucasduport/hls-bridge/pkg/proxy"
	"github.com/lucasduport/hls-bridge/pkg/utils"
)

// relayChunkSize is the read granularity when streaming segment bodies.
const relayChunkSize = 8 * 1024

// proxyHandler is the externally reachable entry point: GET /proxy?url=<absolute-URL>.
// It resolves the target, fetches it upstream with forged headers, and either
// rewrites the playlist or relays the binary stream.
func (c *Config) proxyHandler(ctx *gin.Context) {
	raw := ctx.Query("url")
	if raw == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}

	target, err := proxy.Resolve(raw)
	if err != nil {
		utils.DebugLog("Rejected proxy request for %q: %v", raw, err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}

	utils.DebugLog("Proxy request: %s (%s)", utils.MaskURL(target.Raw), target.Class)

	resp, err := c.engine.Fetch(ctx.Request.Context(), target, ctx.GetHeader("Range"))
	if err != nil {
		utils.ErrorLog("Upstream fetch failed for %s: %v", utils.MaskURL(target.Raw), err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Error statuses survive the single retry untouched: relay them verbatim.
	if resp.StatusCode >= http.StatusBadRequest {
		c.relayErrorStatus(ctx, resp)
		return
	}

	if proxy.IsPlaylistResponse(target, resp.ContentType) {
		c.respondRewrittenPlaylist(ctx, target, resp)
		return
	}

	c.relay(ctx, target, resp)
}

// respondRewrittenPlaylist materializes the playlist body, rewrites every
// segment reference through the proxy and answers with no-cache headers so
// players re-fetch on every refresh.
func (c *Config) respondRewrittenPlaylist(ctx *gin.Context, target *proxy.TargetURL, resp *proxy.UpstreamResponse) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.ErrorLog("Reading playlist body failed for %s: %v", utils.MaskURL(target.Raw), err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rewritten := proxy.Rewrite(body, target, c.publicOrigin(ctx))
	utils.DebugLog("Rewrote playlist %s (%d bytes in, %d bytes out)",
		utils.MaskURL(target.Raw), len(body), len(rewritten))
	utils.DumpPlaylist(ctx, []byte(rewritten))

	ctx.Header("Access-Control-Allow-Origin", "*")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Data(http.StatusOK, proxy.PlaylistContentType, []byte(rewritten))
}

// relayErrorStatus surfaces an upstream error response to the client without
// rewriting: same status code, same body, streamed like any other payload.
func (c *Config) relayErrorStatus(ctx *gin.Context, resp *proxy.UpstreamResponse) {
	defer resp.Body.Close()

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}
	ctx.Header("Content-Type", contentType)
	ctx.Status(resp.StatusCode)

	if _, err := io.Copy(ctx.Writer, resp.Body); err != nil {
		utils.DebugLog("Client write error while relaying upstream error: %v", err)
	}
}

// relay streams the upstream body to the client in fixed-size chunks without
// buffering it, preserving the upstream status and content type. The body is
// released on every exit path, client disconnect included.
func (c *Config) relay(ctx *gin.Context, target *proxy.TargetURL, resp *proxy.UpstreamResponse) {
	defer resp.Body.Close()

	contentType := resp.ContentType
	if contentType == "" {
		contentType = contentTypeForPath(target.URL.Path)
	}

	ctx.Header("Content-Type", contentType)
	ctx.Header("Access-Control-Allow-Origin", "*")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Accept-Ranges", "bytes")
	ctx.Header("Connection", "keep-alive")
	ctx.Status(resp.StatusCode)

	w := ctx.Writer
	buf := make([]byte, relayChunkSize)
	firstChunk := true

	for {
		// Respect client cancellation
		select {
		case <-ctx.Request.Context().Done():
			utils.DebugLog("Client cancelled stream for %s", utils.MaskURL(target.Raw))
			return
		default:
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if firstChunk && utils.Config.DebugLoggingEnabled {
				utils.DebugLog("First chunk of %s:\n%s",
					utils.MaskURL(target.Raw), utils.HexDump(buf[:n], 32))
				firstChunk = false
			}
			if _, werr := w.Write(buf[:n]); werr != nil {
				utils.DebugLog("Client write error: %v", werr)
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				utils.DebugLog("Upstream read error: %v", rerr)
			}
			return
		}
	}
}

// contentTypeForPath maps a file extension to an appropriate Content-Type
// when upstream did not declare one.
func contentTypeForPath(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".ts":
		return "video/mp2t"
	case ".m3u8":
		return proxy.PlaylistContentType
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
