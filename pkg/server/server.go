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
	"fmt"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"

	"github.com/lucasduport/hls-bridge/pkg/config"
	"github.com/lucasduport/hls-bridge/pkg/proxy"
	"github.com/lucasduport/hls-bridge/pkg/session"
	"github.com/lucasduport/hls-bridge/pkg/utils"
)

// instanceID distinguishes this process in status payloads.
var instanceID = strings.Split(uuid.NewV4().String(), "-")[0]

// Config represent the server configuration
type Config struct {
	*config.ProxyConfig

	engine   *proxy.Engine
	sessions *session.Store
	profiles *proxy.ProfileTable
}

// NewServer initializes a new server configuration with all necessary components
func NewServer(conf *config.ProxyConfig) (*Config, error) {
	utils.Config.DebugLoggingEnabled = utils.Config.DebugLoggingEnabled ||
		utils.GetEnvOrDefault("DEBUG_LOGGING", "") == "true"

	sessions, err := session.NewStore(conf.SessionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	profiles := proxy.NewProfileTable()
	engine := proxy.NewEngine(sessions, profiles, conf.UserAgent, conf.UpstreamTimeout)

	utils.InfoLog("Bootstrap: session store ready (capacity=%d), upstream timeout %v",
		conf.SessionCacheSize, conf.UpstreamTimeout)

	return &Config{
		ProxyConfig: conf,
		engine:      engine,
		sessions:    sessions,
		profiles:    profiles,
	}, nil
}

// Serve the hls-bridge api
func (c *Config) Serve() error {
	utils.InfoLog("[hls-bridge] Server is starting...")

	router := gin.Default()
	router.Use(cors.Default())

	c.routes(router)

	utils.InfoLog("[hls-bridge] Server is ready and listening on :%d", c.HostConfig.Port)
	return router.Run(fmt.Sprintf(":%d", c.HostConfig.Port))
}

func (c *Config) routes(r *gin.Engine) {
	r.GET("/", c.home)
	r.GET("/health", c.health)

	// The streaming proxy itself
	r.GET("/proxy", c.proxyHandler)

	// Control-plane endpoints for clients
	r.POST("/auth/connect-xtream", c.connectXtream)
	r.GET("/playlist/channels", c.playlistChannels)
}

// publicOrigin returns the base URL embedded into rewritten playlists.
// Precedence: configured public URL, then configured hostname, then the
// host the client used to reach us.
func (c *Config) publicOrigin(ctx *gin.Context) string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	if c.HostConfig != nil && c.HostConfig.Hostname != "" {
		return fmt.Sprintf("http://%s:%d", c.HostConfig.Hostname, c.HostConfig.Port)
	}
	return "http://" + ctx.Request.Host
}
