package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ravicodry/dastaavej/middleware"
	"github.com/ravicodry/dastaavej/model"
	"github.com/ravicodry/dastaavej/service"
)

// maxUploadBytes caps deed uploads at 20 MB.
const maxUploadBytes = 20 << 20

type AnalysisHandler struct {
	flow *service.FlowService
}

func NewAnalysisHandler(flow *service.FlowService) *AnalysisHandler {
	return &AnalysisHandler{flow: flow}
}

// StartSession issues a fresh session ID for the visitor
func (h *AnalysisHandler) StartSession(c *gin.Context) {
	session := h.flow.StartSession()

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"state":      session.State,
	})
}

// Agree records acceptance of the legal disclaimer
func (h *AnalysisHandler) Agree(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	if err := h.flow.Agree(sessionID); err != nil {
		respondFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"agreed": true})
}

type stageRequest struct {
	Stage model.Stage `json:"stage" binding:"required"`
}

// SelectStage records the visitor's purchase stage
func (h *AnalysisHandler) SelectStage(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.flow.SelectStage(sessionID, req.Stage); err != nil {
		respondFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stage": req.Stage})
}

// Analyze accepts the deed PDF upload and runs the gap analysis
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	// PDF only
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are allowed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.Contains(contentType, "pdf") {
		// Fall back to sniffing the file header
		buffer := make([]byte, 512)
		if _, err := file.Read(buffer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}

		detectedType := http.DetectContentType(buffer)
		if !strings.Contains(detectedType, "pdf") && detectedType != "application/octet-stream" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
	}

	fileBytes, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	apiKey := c.PostForm("api_key")

	view, err := h.flow.Analyze(c.Request.Context(), sessionID, header.Filename, fileBytes, apiKey)
	if err != nil {
		respondFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Report returns the state-appropriate view of the analysis result
func (h *AnalysisHandler) Report(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	view, err := h.flow.Report(sessionID)
	if err != nil {
		respondFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Unlock processes the simulated payment and reveals the full report
func (h *AnalysisHandler) Unlock(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	view, err := h.flow.Unlock(c.Request.Context(), sessionID)
	if err != nil {
		respondFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// respondFlowError maps flow and analysis errors onto HTTP responses.
func respondFlowError(c *gin.Context, err error) {
	if err == service.ErrSessionNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if service.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if ae, ok := err.(*service.AnalysisError); ok {
		switch ae.Kind {
		case service.ErrRateLimited:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "The analysis service is busy. Please try again shortly."})
		case service.ErrTimeoutExceeded:
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "The document is taking too long to process. Please try again."})
		case service.ErrMalformedResponse:
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "The analysis service returned an unreadable result.",
				"raw":   ae.Raw,
			})
		case service.ErrUploadFailed:
			c.JSON(http.StatusBadGateway, gin.H{"error": "File upload to the analysis service failed: " + ae.Message})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis failed: " + ae.Message})
		}
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
