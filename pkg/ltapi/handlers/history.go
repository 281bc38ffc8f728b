package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/txn2/linkterm/pkg/ltapi/types"
	"github.com/txn2/linkterm/pkg/ltsession"
)

// HistoryHandler serves the delivery history
type HistoryHandler struct {
	history types.HistoryReader
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history types.HistoryReader) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns delivered messages, most recent first. An optional status
// query filters by pending, sent or failed.
func (h *HistoryHandler) List(c *gin.Context) {
	if h.history == nil {
		fail(c, http.StatusServiceUnavailable, "NOT_READY", "History not available")
		return
	}

	count, err := strconv.Atoi(c.DefaultQuery("count", "0"))
	if err != nil || count < 0 {
		count = 0
	}
	status := ltsession.Status(c.Query("status"))

	entries := make([]ltsession.Entry, 0)
	for _, e := range h.history.List(0) {
		if status != "" && e.Status != status {
			continue
		}
		entries = append(entries, e)
		if count > 0 && len(entries) == count {
			break
		}
	}

	c.JSON(http.StatusOK, types.Response{
		Success: true,
		Data:    types.HistoryResponse{Entries: entries},
		Meta: &types.MetaInfo{
			Count:     len(entries),
			Timestamp: time.Now(),
		},
	})
}
