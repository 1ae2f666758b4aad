package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docugraph/docugraph"
	"github.com/docugraph/docugraph/pkg/driver"
	"github.com/docugraph/docugraph/pkg/server/dto"
)

// GraphHandler handles graph retrieval requests.
type GraphHandler struct {
	pipeline *docugraph.Pipeline
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(pipeline *docugraph.Pipeline) *GraphHandler {
	return &GraphHandler{pipeline: pipeline}
}

// GetGraph handles GET /graph?name=<namespace>. Without a name parameter the
// default namespace is read.
func (h *GraphHandler) GetGraph(c *gin.Context) {
	name := c.Query("name")

	view, err := h.pipeline.GetGraph(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, driver.ErrNamespaceNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: "no graph named " + name,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "retrieval_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListGraphs handles GET /graphs.
func (h *GraphHandler) ListGraphs(c *gin.Context) {
	names, err := h.pipeline.ListGraphs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "retrieval_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.GraphsResponse{Graphs: names, Total: len(names)})
}
