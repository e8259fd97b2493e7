package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	"github.com/bakery/ledger/internal/infrastructure/storage"
	"github.com/bakery/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReceiptReader serves receipts held in process
type ReceiptReader interface {
	Get(key string) (storage.StoredObject, bool)
}

// ReceiptSigner issues short-lived links to receipts in a bucket
type ReceiptSigner interface {
	SignedURL(ctx context.Context, key string) (string, time.Time, error)
}

// ReceiptHandler uploads receipt images and serves them back
type ReceiptHandler struct {
	BaseHandler
	uploader *financeapp.ReceiptUploader
	reader   ReceiptReader
	signer   ReceiptSigner
}

// ReceiptHandlerOption configures how stored receipts are served
type ReceiptHandlerOption func(*ReceiptHandler)

// WithReceiptReader serves receipt bytes directly from an in-process store
func WithReceiptReader(reader ReceiptReader) ReceiptHandlerOption {
	return func(h *ReceiptHandler) {
		h.reader = reader
	}
}

// WithReceiptSigner redirects receipt requests to presigned bucket URLs
func WithReceiptSigner(signer ReceiptSigner) ReceiptHandlerOption {
	return func(h *ReceiptHandler) {
		h.signer = signer
	}
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(uploader *financeapp.ReceiptUploader, opts ...ReceiptHandlerOption) *ReceiptHandler {
	h := &ReceiptHandler{uploader: uploader}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Upload godoc
// @ID           uploadReceipt
// @Summary      Upload a receipt
// @Description  Stores a JPEG, PNG, WebP, GIF or PDF receipt and returns its URL for use as payment proof
// @Tags         receipts
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Receipt image or PDF"
// @Success      201 {object} APIResponse[financeapp.StoredReceipt]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receipts [post]
func (h *ReceiptHandler) Upload(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		header, err = c.FormFile("receipt")
	}
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Receipt file is required")
		return
	}

	file, closeFile, err := openReceipt(header)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Receipt file could not be read")
		return
	}
	defer closeFile()

	stored, err := h.uploader.Upload(c.Request.Context(), caller, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, stored)
}

// Serve godoc
// @ID           getReceipt
// @Summary      Fetch a stored receipt
// @Description  Streams the receipt from the local store or redirects to a presigned bucket URL
// @Tags         receipts
// @Produce      octet-stream
// @Param        key path string true "Receipt path below /receipts"
// @Success      200
// @Success      302
// @Failure      404 {object} ErrorResponse
// @Router       /receipts/{key} [get]
func (h *ReceiptHandler) Serve(c *gin.Context) {
	rel := strings.TrimPrefix(path.Clean("/"+c.Param("key")), "/")
	if rel == "" {
		h.NotFound(c, "Receipt not found")
		return
	}
	key := path.Join("receipts", rel)

	if h.reader != nil {
		obj, ok := h.reader.Get(key)
		if !ok {
			h.NotFound(c, "Receipt not found")
			return
		}
		c.Header("Cache-Control", "private, max-age=3600")
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
		return
	}
	if h.signer != nil {
		url, _, err := h.signer.SignedURL(c.Request.Context(), key)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}
	h.NotFound(c, "Receipt not found")
}

// openReceipt turns a multipart file into the uploader's input
func openReceipt(header *multipart.FileHeader) (financeapp.ReceiptFile, func(), error) {
	f, err := header.Open()
	if err != nil {
		return financeapp.ReceiptFile{}, nil, err
	}
	return financeapp.ReceiptFile{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  f,
	}, func() { _ = f.Close() }, nil
}
