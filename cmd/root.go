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

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasduport/hls-bridge/pkg/config"
	"github.com/lucasduport/hls-bridge/pkg/server"
	"github.com/lucasduport/hls-bridge/pkg/utils"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hls-bridge",
	Short: "Reverse proxy for HLS streams from IPTV providers",
	Long: `hls-bridge fetches HLS playlists and media segments from an upstream
IPTV origin on behalf of a client, rewrites playlists so every segment
reference routes back through the proxy, and forges the outbound headers
(Referer, Origin, Cookie, Range, User-Agent) that strict origins expect.

It supports:
- Playlist (.m3u8) rewriting with segment proxying
- Per-token session state with automatic 403 recovery
- Xtream Codes credential validation and catalog summary
- M3U playlist parsing into structured channel lists`,

	Run: func(cmd *cobra.Command, args []string) {
		log.Printf("[hls-bridge] Server is starting...")

		utils.Config.DebugLoggingEnabled = viper.GetBool("debug-logging")

		conf := &config.ProxyConfig{
			HostConfig: &config.HostConfiguration{
				Hostname: viper.GetString("hostname"),
				Port:     viper.GetInt("port"),
			},
			PublicURL:        strings.TrimRight(viper.GetString("public-url"), "/"),
			UpstreamTimeout:  time.Duration(viper.GetInt("upstream-timeout")) * time.Second,
			SessionCacheSize: viper.GetInt("session-cache-size"),
			UserAgent:        viper.GetString("user-agent"),
			XtreamBaseURL:    viper.GetString("xtream-base-url"),
			XtreamUser:       config.CredentialString(viper.GetString("xtream-user")),
			XtreamPassword:   config.CredentialString(viper.GetString("xtream-password")),
		}

		srv, err := server.NewServer(conf)
		if err != nil {
			log.Fatal(err)
		}

		if err := srv.Serve(); err != nil {
			log.Fatal(err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.hls-bridge.yaml)")

	// Server configuration flags
	rootCmd.Flags().Int("port", 8085, "Listening port")
	rootCmd.Flags().String("hostname", "", "Hostname to use in generated URLs")
	rootCmd.Flags().String("public-url", "", "Externally visible base URL for rewritten playlists (defaults to the request host)")

	// Upstream behaviour flags
	rootCmd.Flags().Int("upstream-timeout", 60, "Upstream request timeout in seconds")
	rootCmd.Flags().Int("session-cache-size", 256, "Maximum number of upstream sessions tracked for referer/cookie state")
	rootCmd.Flags().String("user-agent", "", "User-Agent sent upstream (defaults to an ExoPlayer fingerprint)")

	// Xtream-specific flags
	rootCmd.Flags().String("xtream-base-url", "", "Xtream API base URL")
	rootCmd.Flags().String("xtream-user", "", "Xtream API username")
	rootCmd.Flags().String("xtream-password", "", "Xtream API password")

	// Logging flags
	rootCmd.Flags().Bool("debug-logging", false, "Enable debug logging")

	// Bind all flags to viper
	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		log.Fatal("Error binding PFlags to viper")
	}
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory and current directory
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".hls-bridge")
	}

	// Replace hyphens with underscores in environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Read environment variables
	viper.AutomaticEnv()

	// Read in config file if found
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
