package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/fsclient"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
)

// PathRequest names a single path of a mutating operation
type PathRequest struct {
	Path    string `json:"path"`
	Confirm *bool  `json:"confirm,omitempty"`
}

// WriteRequest is the body of POST /fs/write
type WriteRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
	Confirm *bool  `json:"confirm,omitempty"`
}

// TransferRequest is the body of POST /fs/copy and POST /fs/move
type TransferRequest struct {
	Source      string `json:"src" binding:"required"`
	Destination string `json:"dst" binding:"required"`
	Confirm     *bool  `json:"confirm,omitempty"`
}

// ListResponse is returned by the list and find endpoints
type ListResponse struct {
	Path    string              `json:"path"`
	Entries []fsclient.FileInfo `json:"entries"`
	Count   int                 `json:"count"`
}

// confirmOrDefault treats an omitted confirm flag as a request for
// confirmation
func confirmOrDefault(flag *bool) bool {
	return flag == nil || *flag
}

// Read handles GET /fs/read?path=
func (h *Handlers) Read(c *gin.Context) {
	path := c.Query("path")
	content, err := h.client.Read(c.Request.Context(), path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":    path,
		"content": content,
		"size":    len(content),
	})
}

// Write handles POST /fs/write
func (h *Handlers) Write(c *gin.Context) {
	var req WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid write request: %v", err)
		return
	}
	if err := h.client.Write(c.Request.Context(), req.Path, req.Content, confirmOrDefault(req.Confirm)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": req.Path, "size": len(req.Content)})
}

// Delete handles POST /fs/delete
func (h *Handlers) Delete(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid delete request: %v", err)
		return
	}
	if err := h.client.Delete(c.Request.Context(), req.Path, confirmOrDefault(req.Confirm)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": req.Path})
}

// Copy handles POST /fs/copy
func (h *Handlers) Copy(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid copy request: %v", err)
		return
	}
	if err := h.client.Copy(c.Request.Context(), req.Source, req.Destination, confirmOrDefault(req.Confirm)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "src": req.Source, "dst": req.Destination})
}

// Move handles POST /fs/move
func (h *Handlers) Move(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid move request: %v", err)
		return
	}
	if err := h.client.Move(c.Request.Context(), req.Source, req.Destination, confirmOrDefault(req.Confirm)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "src": req.Source, "dst": req.Destination})
}

// CreateDirectory handles POST /fs/mkdir
func (h *Handlers) CreateDirectory(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid mkdir request: %v", err)
		return
	}
	if err := h.client.CreateDirectory(c.Request.Context(), req.Path, confirmOrDefault(req.Confirm)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": req.Path})
}

// List handles GET /fs/list?path=
func (h *Handlers) List(c *gin.Context) {
	path := c.DefaultQuery("path", ".")
	entries, err := h.client.ListDirectory(c.Request.Context(), path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Path: path, Entries: entries, Count: len(entries)})
}

// Exists handles GET /fs/exists?path=&type=file|directory
func (h *Handlers) Exists(c *gin.Context) {
	path := c.Query("path")
	kind := c.Query("type")

	var (
		exists bool
		err    error
	)
	ctx := c.Request.Context()
	switch kind {
	case "":
		exists, err = h.client.Exists(ctx, path)
	case "file":
		exists, err = h.client.IsFile(ctx, path)
	case "directory", "dir":
		exists, err = h.client.IsDirectory(ctx, path)
	default:
		h.badRequest(c, "unknown type %q (want file or directory)", kind)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "exists": exists})
}

// Info handles GET /fs/info?path=
func (h *Handlers) Info(c *gin.Context) {
	path := c.Query("path")
	info, err := h.client.GetInfo(c.Request.Context(), path)
	if err != nil {
		h.fail(c, err)
		return
	}
	if info == nil {
		h.fail(c, fserr.New(fserr.KindNotFound, "info", path, nil))
		return
	}
	c.JSON(http.StatusOK, info)
}

// Find handles GET /fs/find?dir=&pattern=
func (h *Handlers) Find(c *gin.Context) {
	dir := c.DefaultQuery("dir", ".")
	pattern := c.Query("pattern")
	if pattern == "" {
		h.badRequest(c, "pattern is required")
		return
	}
	entries, err := h.client.Find(c.Request.Context(), dir, pattern)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Path: dir, Entries: entries, Count: len(entries)})
}
