package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/shared/server/respond"
)

// Handler serves recent run metadata.
type Handler struct {
	Repo Repo
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/runs", h.listRuns)
}

func (h *Handler) listRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	runs, err := h.Repo.Recent(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list runs", nil)
		return
	}
	if runs == nil {
		runs = []Run{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"runs": runs})
}
