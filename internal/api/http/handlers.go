package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/fsclient"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/monitoring"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	client  *fsclient.Client
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandlers creates a new handler set. metrics may be nil, in which case
// the stats endpoint reports history figures only.
func NewHandlers(client *fsclient.Client, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{client: client, metrics: metrics, logger: logger}
}

// Register mounts every handler on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/fs/read", h.Read)
	r.POST("/fs/write", h.Write)
	r.POST("/fs/delete", h.Delete)
	r.POST("/fs/copy", h.Copy)
	r.POST("/fs/move", h.Move)
	r.POST("/fs/mkdir", h.CreateDirectory)
	r.GET("/fs/list", h.List)
	r.GET("/fs/exists", h.Exists)
	r.GET("/fs/info", h.Info)
	r.GET("/fs/find", h.Find)

	r.GET("/history", h.History)
	r.GET("/stats", h.Stats)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "tinyfs",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"workspace":    h.client.Root(),
		"auto_confirm": h.client.AutoConfirm(),
	})
}
