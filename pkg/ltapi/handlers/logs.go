package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/txn2/linkterm/pkg/ltapi/types"
	"github.com/txn2/linkterm/pkg/ltlog"
)

const (
	defaultLogCount = 100
	maxLogCount     = 10000
)

// LogsHandler serves node log channels
type LogsHandler struct {
	logs types.LogReader
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logs types.LogReader) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// Recent returns the most recent lines of one node
func (h *LogsHandler) Recent(c *gin.Context) {
	if h.logs == nil {
		fail(c, http.StatusServiceUnavailable, "NOT_READY", "Log channels not available")
		return
	}

	node, err := ltlog.ParseNode(c.Param("node"))
	if err != nil {
		fail(c, http.StatusNotFound, "UNKNOWN_NODE", err.Error())
		return
	}

	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(defaultLogCount)))
	if err != nil || count < 1 {
		count = defaultLogCount
	}
	if count > maxLogCount {
		count = maxLogCount
	}

	ch := h.logs.Channel(node)
	lines := ch.Last(count)
	if lines == nil {
		lines = []ltlog.Line{}
	}

	c.JSON(http.StatusOK, types.Response{
		Success: true,
		Data: types.LogsResponse{
			Node:     node.String(),
			Capacity: ch.Cap(),
			Lines:    lines,
		},
		Meta: &types.MetaInfo{
			Count:     len(lines),
			Timestamp: time.Now(),
		},
	})
}
