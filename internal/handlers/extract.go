package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"errors"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"ID-ENRICH/internal/models"
	"ID-ENRICH/internal/services"
	"ID-ENRICH/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
)

const (
	MsgNoFileUploaded      = "No file uploaded."
	MsgNoDocumentType      = "No document type selected."
	msgFailedToStoreUpload = "Failed to store uploaded file"
	defaultUploadExtension = ".jpg"
	maxUploadBytes         = 20 << 20
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// DocumentProcessor runs the extraction pipeline on one uploaded document
type DocumentProcessor interface {
	Process(ctx context.Context, doc models.Document) models.PipelineResult
}

type ExtractHandler struct {
	processor DocumentProcessor
	storage   storage.StorageClient
}

func NewExtractHandler(processor DocumentProcessor, storageClient storage.StorageClient) *ExtractHandler {
	return &ExtractHandler{
		processor: processor,
		storage:   storageClient,
	}
}

type documentTypeOption struct {
	Value string
	Label string
}

// Index serves the upload form
// GET /
func (h *ExtractHandler) Index(c *gin.Context) {
	options := make([]documentTypeOption, 0, len(models.DocumentTypes))
	for _, t := range models.DocumentTypes {
		options = append(options, documentTypeOption{Value: string(t), Label: t.Label()})
	}
	c.Render(http.StatusOK, render.HTML{
		Template: indexTemplate,
		Name:     "index",
		Data:     gin.H{"DocumentTypes": options},
	})
}

// Upload processes a multipart upload with fields "file" and "document_type".
// Input and pipeline errors are reported in the body with status 200.
// POST /
func (h *ExtractHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Filename == "" {
		h.respondError(c, MsgNoFileUploaded)
		return
	}

	docType := c.PostForm("document_type")
	if docType == "" {
		h.respondError(c, MsgNoDocumentType)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}

	h.process(c, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, docType)
}

// ExtractRequest is the JSON body accepted by the API endpoint
type ExtractRequest struct {
	Image        string `json:"image"` // Base64 encoded image, data URL prefix allowed
	DocumentType string `json:"document_type"`
	Filename     string `json:"filename"`
}

// Extract is the API form of Upload. It accepts the same multipart form or a
// JSON body carrying a base64 image.
// POST /api/v1/extract
func (h *ExtractHandler) Extract(c *gin.Context) {
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		h.Upload(c)
		return
	}

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Image == "" {
		h.respondError(c, MsgNoFileUploaded)
		return
	}
	if req.DocumentType == "" {
		h.respondError(c, MsgNoDocumentType)
		return
	}

	contentType := ""
	if strings.HasPrefix(req.Image, "data:") {
		parts := strings.SplitN(req.Image, ",", 2)
		if len(parts) == 2 {
			contentType = strings.TrimSuffix(strings.TrimPrefix(parts[0], "data:"), ";base64")
			req.Image = parts[1]
		}
	}

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be base64 encoded"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	filename := req.Filename
	if filename == "" {
		filename = uuid.New().String() + extensionFor(contentType)
	}

	h.process(c, filename, contentType, data, req.DocumentType)
}

func (h *ExtractHandler) process(c *gin.Context, filename, contentType string, data []byte, docType string) {
	c.Set(services.CtxDocumentType, docType)

	name, err := storage.ObjectName(filename)
	if err != nil {
		h.respondError(c, MsgNoFileUploaded)
		return
	}
	c.Set(services.CtxFilename, name)

	if _, err := h.storage.UploadFile(c.Request.Context(), bytes.NewReader(data), name, contentType); err != nil {
		log.Printf("[Upload] failed to store %s: %v", name, err)
		c.Set(services.CtxErrorMessage, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedToStoreUpload})
		return
	}

	result := h.processor.Process(c.Request.Context(), models.Document{
		Filename:    name,
		ContentType: contentType,
		Data:        data,
		Type:        models.DocumentType(docType),
	})
	if result.Failed() {
		c.Set(services.CtxErrorMessage, result.Error)
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExtractHandler) respondError(c *gin.Context, message string) {
	c.Set(services.CtxErrorMessage, message)
	c.JSON(http.StatusOK, models.PipelineResult{Error: message})
}

// ServeUpload streams a previously uploaded file
// GET /uploads/:filename
func (h *ExtractHandler) ServeUpload(c *gin.Context) {
	name, err := storage.ObjectName(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}

	rc, err := h.storage.ReadFile(c.Request.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return defaultUploadExtension
	}
}
