package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DumpPlaylist saves a rewritten playlist body to the cache folder for
// debugging. A no-op unless CACHE_FOLDER is set.
func DumpPlaylist(ctx *gin.Context, data []byte) {
	cacheFolder := os.Getenv("CACHE_FOLDER")
	if cacheFolder == "" {
		return
	}

	if err := os.MkdirAll(cacheFolder, 0755); err != nil {
		ErrorLog("Failed to create cache folder: %v", err)
		return
	}

	// Derive a filename from the request path and query
	path := ctx.Request.URL.Path
	query := ctx.Request.URL.RawQuery

	cleanPath := strings.ReplaceAll(path, "/", "_")
	if query != "" {
		// Add abbreviated query to filename
		if len(query) > 50 {
			query = query[:50]
		}
		cleanPath += "_" + strings.ReplaceAll(query, "&", "_")
	}

	// Ensure filename is not too long
	if len(cleanPath) > 100 {
		cleanPath = cleanPath[:100]
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(cacheFolder, fmt.Sprintf("%s_%s.m3u8", timestamp, cleanPath))

	if err := os.WriteFile(filename, data, 0644); err != nil {
		ErrorLog("Failed to write playlist dump: %v", err)
		return
	}
	DebugLog("Playlist dump saved to: %s", filename)
}
