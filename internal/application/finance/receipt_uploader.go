package finance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxReceiptSize caps receipt uploads at 5 MiB
const DefaultMaxReceiptSize int64 = 5 << 20

// receiptTypes lists the content types accepted as proof of payment
var receiptTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"application/pdf",
}

// ReceiptFile is an uploaded receipt as received from the caller
type ReceiptFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// StoredReceipt is a receipt that has been written to the receipt store
type StoredReceipt struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ReceiptUploader validates receipt files and writes them to the receipt store
type ReceiptUploader struct {
	store   ReceiptStore
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
}

// NewReceiptUploader creates an uploader. A non-positive maxSize selects DefaultMaxReceiptSize.
func NewReceiptUploader(store ReceiptStore, maxSize int64, logger *zap.Logger) *ReceiptUploader {
	if maxSize <= 0 {
		maxSize = DefaultMaxReceiptSize
	}
	return &ReceiptUploader{
		store:   store,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
	}
}

// Upload stores a receipt for a standalone upload request
func (u *ReceiptUploader) Upload(ctx context.Context, caller shared.CallerContext, file ReceiptFile) (*StoredReceipt, error) {
	if err := caller.RequireWrite(); err != nil {
		return nil, err
	}
	return u.save(ctx, file)
}

// save reads and checks the file, then writes it under receipts/YYYY/MM/DD/<uuid><ext>
func (u *ReceiptUploader) save(ctx context.Context, file ReceiptFile) (*StoredReceipt, error) {
	if file.Content == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Receipt file is required")
	}
	if file.Size > u.maxSize {
		return nil, receiptTooLarge(u.maxSize)
	}

	data, err := io.ReadAll(io.LimitReader(file.Content, u.maxSize+1))
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Receipt file could not be read")
	}
	if len(data) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Receipt file is empty")
	}
	if int64(len(data)) > u.maxSize {
		return nil, receiptTooLarge(u.maxSize)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), receiptTypes...) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Receipt must be a JPEG, PNG, WebP, GIF or PDF file, got %s", mtype.String()))
	}

	key := path.Join("receipts", u.now().UTC().Format("2006/01/02"), uuid.NewString()+mtype.Extension())
	url, err := u.store.Put(ctx, ReceiptObject{
		Key:         key,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		u.logger.Error("receipt upload failed",
			zap.String("key", key),
			zap.String("filename", file.Filename),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}

	u.logger.Info("receipt stored", zap.String("key", key), zap.Int("size", len(data)))
	return &StoredReceipt{
		Key:         key,
		URL:         url,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}, nil
}

// Remove deletes a stored receipt. Used to compensate when the payment it backed was not recorded.
func (u *ReceiptUploader) Remove(ctx context.Context, key string) error {
	return u.store.Delete(ctx, key)
}

func receiptTooLarge(limit int64) error {
	return shared.NewDomainError(shared.CodeInvalidInput,
		fmt.Sprintf("Receipt file exceeds the %d byte limit", limit))
}
