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
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/jamesnetherton/m3u"

	"github.com/lucasduport/hls-bridge/pkg/types"
	"github.com/lucasduport/hls-bridge/pkg/utils"
	"github.com/lucasduport/hls-bridge/pkg/xtream"
)

// home reports that the proxy is up. Kept as a plain message for players and
// humans poking at the root URL.
func (c *Config) home(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, types.APIResponse{
		Success: true,
		Message: "hls-bridge proxy is running",
		Data: map[string]interface{}{
			"instance": instanceID,
		},
	})
}

// health is the liveness endpoint.
func (c *Config) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"instance": instanceID,
		"sessions": c.sessions.Len(),
	})
}

// connectXtreamRequest is the expected JSON body for /auth/connect-xtream.
type connectXtreamRequest struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// connectXtream validates Xtream credentials against the provider's
// player_api and returns account plus catalog information. Falls back to the
// server-configured credentials when the request omits them.
func (c *Config) connectXtream(ctx *gin.Context) {
	var req connectXtreamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && c.XtreamBaseURL == "" {
		ctx.JSON(http.StatusBadRequest, types.APIResponse{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	if req.BaseURL == "" {
		req.BaseURL = c.XtreamBaseURL
		req.Username = c.XtreamUser.String()
		req.Password = c.XtreamPassword.String()
	}

	if req.BaseURL == "" || req.Username == "" || req.Password == "" {
		ctx.JSON(http.StatusBadRequest, types.APIResponse{
			Success: false,
			Error:   "missing parameters: base_url, username or password",
		})
		return
	}

	utils.InfoLog("Checking Xtream connection to %s for user %s",
		req.BaseURL, utils.MaskString(req.Username))

	result, err := xtream.Connect(req.BaseURL, req.Username, req.Password)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, xtream.ErrAuthFailed) {
			status = http.StatusUnauthorized
		}
		ctx.JSON(status, types.APIResponse{Success: false, Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, types.APIResponse{Success: true, Data: result})
}

// playlistChannels fetches an M3U playlist and returns its entries as
// structured channels, with every stream URL rerouted through the proxy.
func (c *Config) playlistChannels(ctx *gin.Context) {
	rawURL := ctx.Query("url")
	if rawURL == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}

	playlist, err := m3u.Parse(rawURL)
	if err != nil {
		utils.ErrorLog("Parsing M3U playlist %s failed: %v", utils.MaskURL(rawURL), err)
		ctx.JSON(http.StatusBadGateway, types.APIResponse{Success: false, Error: err.Error()})
		return
	}

	origin := c.publicOrigin(ctx)
	channels := make([]types.Channel, 0, len(playlist.Tracks))
	for _, track := range playlist.Tracks {
		ch := types.Channel{
			Name:      track.Name,
			StreamURL: origin + "/proxy?url=" + url.QueryEscape(track.URI),
		}
		for _, tag := range track.Tags {
			switch tag.Name {
			case "tvg-logo":
				ch.Logo = tag.Value
			case "group-title":
				ch.Category = tag.Value
			}
		}
		channels = append(channels, ch)
	}

	utils.DebugLog("Parsed %d channels from %s", len(channels), utils.MaskURL(rawURL))
	ctx.JSON(http.StatusOK, types.APIResponse{Success: true, Data: channels})
}
