package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/audit"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/monitoring"
)

// StatsResponse is returned by GET /stats
type StatsResponse struct {
	Workspace       string               `json:"workspace"`
	HistoryEntries  int                  `json:"history_entries"`
	HistoryCapacity int                  `json:"history_capacity"`
	// HistoryRecorded counts every record ever appended, evicted ones included
	HistoryRecorded uint64               `json:"history_recorded"`
	Metrics         *monitoring.Snapshot `json:"metrics,omitempty"`
	Timestamp       int64                `json:"timestamp"`
}

// History handles GET /history. Query parameters: operation and outcome
// (repeatable), since (RFC 3339 or duration), path (substring), last (N
// newest) and format (json or yaml).
func (h *Handlers) History(c *gin.Context) {
	criteria := audit.Criteria{
		Operations:   c.QueryArray("operation"),
		Outcomes:     c.QueryArray("outcome"),
		Since:        c.Query("since"),
		PathContains: c.Query("path"),
	}
	if last := c.Query("last"); last != "" {
		n, err := strconv.Atoi(last)
		if err != nil {
			h.badRequest(c, "last must be an integer: %v", err)
			return
		}
		criteria.Last = n
	}

	format, err := audit.ParseFormat(c.DefaultQuery("format", string(audit.FormatJSON)))
	if err != nil {
		h.badRequest(c, "%v", err)
		return
	}

	filters, err := criteria.Filters(time.Now())
	if err != nil {
		h.fail(c, err)
		return
	}
	records := criteria.Trim(h.client.History(filters...))

	var buf bytes.Buffer
	if err := audit.Export(&buf, records, format); err != nil {
		h.fail(c, err)
		return
	}
	contentType := "application/json; charset=utf-8"
	if format == audit.FormatYAML {
		contentType = "application/yaml; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// Stats handles GET /stats
func (h *Handlers) Stats(c *gin.Context) {
	resp := StatsResponse{
		Workspace:       h.client.Root(),
		HistoryEntries:  len(h.client.History()),
		HistoryCapacity: h.client.HistoryCap(),
		HistoryRecorded: h.client.HistoryTotal(),
		Timestamp:       time.Now().Unix(),
	}
	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		resp.Metrics = &snap
	}
	c.JSON(http.StatusOK, resp)
}
