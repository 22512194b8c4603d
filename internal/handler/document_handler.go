package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ragvault/ragvault/internal/pkg/errcode"
	"github.com/ragvault/ragvault/internal/pkg/response"
	"github.com/ragvault/ragvault/internal/service"
)

const maxUploadBytes = 16 << 20

type DocumentHandler struct {
	ingest *service.IngestService
}

func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = file.Filename
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	content, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}

	doc, err := h.ingest.UploadDocument(c.Request.Context(), service.UploadInput{
		TenantID:    getTenantID(c),
		Title:       title,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	docs, err := h.ingest.ListDocuments(c.Request.Context(), getTenantID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.ingest.GetDocument(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func pagination(c *gin.Context) (uint, uint) {
	limit := uint(0)
	offset := uint(0)
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = uint(parsed)
		}
	}
	if value := c.Query("offset"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			offset = uint(parsed)
		}
	}
	return limit, offset
}
