package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".ico":  "image/x-icon",
}

func contentType(path string) string {
	if ct, ok := contentTypes[filepath.Ext(path)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// handleStatic serves files under the static root. It also answers every
// method other than GET with 405.
func (s *Server) handleStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	path, ok := s.resolve(c.Request.URL.Path)
	if !ok {
		c.Status(http.StatusForbidden)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, contentType(path), data)
}

// resolve maps a request path to a file, rejecting paths outside the root
func (s *Server) resolve(urlPath string) (string, bool) {
	if urlPath == "/" || urlPath == "" {
		urlPath = "/index.html"
	}

	path := filepath.Join(s.staticRoot, filepath.FromSlash(urlPath))
	if path != s.staticRoot && !strings.HasPrefix(path, s.staticRoot+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}
