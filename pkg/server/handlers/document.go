package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docugraph/docugraph"
	"github.com/docugraph/docugraph/pkg/docstore"
	"github.com/docugraph/docugraph/pkg/server/dto"
	"github.com/docugraph/docugraph/pkg/textract"
)

// previewLen bounds the text preview returned after an upload, in runes.
const previewLen = 500

// DocumentHandler handles document upload and processing requests.
type DocumentHandler struct {
	pipeline  *docugraph.Pipeline
	store     *docstore.Store
	extractor textract.TextExtractor
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(pipeline *docugraph.Pipeline, store *docstore.Store, extractor textract.TextExtractor, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		pipeline:  pipeline,
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// Upload handles POST /upload. The uploaded file is stored, converted to
// text, run through the extraction pipeline and ingested into its own graph
// namespace.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "file form field is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	defer file.Close()

	path, err := h.store.SaveFile(fileHeader.Filename, file)
	if err != nil {
		h.logger.Error("upload: failed to store file", "filename", fileHeader.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "storage_failed",
			Message: err.Error(),
		})
		return
	}

	text, err := h.extractor.ExtractText(c.Request.Context(), path)
	if err != nil {
		h.logger.Error("upload: text extraction failed", "path", path, "error", err)
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   "extraction_failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.store.SaveOutput(fileHeader.Filename, text); err != nil {
		h.logger.Warn("upload: failed to persist extracted text", "filename", fileHeader.Filename, "error", err)
	}

	result, err := h.pipeline.ProcessDocument(c.Request.Context(), text)
	if err != nil {
		h.logger.Error("upload: pipeline run failed", "filename", fileHeader.Filename, "error", err)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "processing_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		RunID:         result.RunID,
		Filename:      fileHeader.Filename,
		Title:         result.Title,
		Namespace:     result.Namespace,
		EntityCount:   result.EntityCount,
		RelationCount: result.RelationCount,
		ChunksTotal:   result.ChunksTotal,
		ChunksFailed:  result.ChunksFailed,
		TextPreview:   preview(text),
	})
}

// Reset handles POST /reset and clears the default namespace.
func (h *DocumentHandler) Reset(c *gin.Context) {
	if err := h.pipeline.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "reset_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen])
}
