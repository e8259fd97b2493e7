package finance

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestUploader(t *testing.T, store ReceiptStore, maxSize int64) *ReceiptUploader {
	u := NewReceiptUploader(store, maxSize, zaptest.NewLogger(t))
	u.now = func() time.Time { return time.Date(2026, 7, 4, 23, 0, 0, 0, time.UTC) }
	return u
}

func TestReceiptUploader_Upload(t *testing.T) {
	t.Run("stores a PDF under a dated key", func(t *testing.T) {
		store := &MockReceiptStore{}
		var body []byte
		store.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			obj := args.Get(1).(ReceiptObject)
			body, _ = io.ReadAll(obj.Body)
		}).Return("https://files.example.com/r.pdf", nil).Once()

		stored, err := newTestUploader(t, store, 0).Upload(context.Background(), cashier(), ReceiptFile{
			Filename: "slip.pdf",
			Content:  bytes.NewReader(pdfHeader),
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stored.Key, "receipts/2026/07/04/"))
		assert.True(t, strings.HasSuffix(stored.Key, ".pdf"))
		assert.Equal(t, "application/pdf", stored.ContentType)
		assert.Equal(t, "https://files.example.com/r.pdf", stored.URL)
		assert.Equal(t, int64(len(pdfHeader)), stored.Size)
		assert.Equal(t, pdfHeader, body)
	})

	t.Run("viewer cannot upload", func(t *testing.T) {
		store := &MockReceiptStore{}
		_, err := newTestUploader(t, store, 0).Upload(context.Background(), viewer(), ReceiptFile{Content: bytes.NewReader(pngHeader)})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	})

	t.Run("rejects files that are not images or PDFs", func(t *testing.T) {
		store := &MockReceiptStore{}
		_, err := newTestUploader(t, store, 0).Upload(context.Background(), cashier(), ReceiptFile{
			Filename: "notes.png",
			Content:  strings.NewReader("just some text pretending to be an image"),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Contains(t, err.Error(), "text/plain")
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty and missing files", func(t *testing.T) {
		u := newTestUploader(t, &MockReceiptStore{}, 0)
		_, err := u.Upload(context.Background(), cashier(), ReceiptFile{Content: bytes.NewReader(nil)})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = u.Upload(context.Background(), cashier(), ReceiptFile{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("enforces the size limit on declared and actual size", func(t *testing.T) {
		u := newTestUploader(t, &MockReceiptStore{}, 16)
		_, err := u.Upload(context.Background(), cashier(), ReceiptFile{Size: 17, Content: bytes.NewReader(pngHeader[:8])})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = u.Upload(context.Background(), cashier(), ReceiptFile{Content: bytes.NewReader(pngHeader)})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Contains(t, err.Error(), "16 byte limit")
	})

	t.Run("store failure is upload_failed", func(t *testing.T) {
		store := &MockReceiptStore{}
		store.On("Put", mock.Anything, mock.Anything).Return("", errors.New("503 slow down")).Once()

		_, err := newTestUploader(t, store, 0).Upload(context.Background(), cashier(), ReceiptFile{Content: bytes.NewReader(pngHeader)})
		assert.ErrorIs(t, err, shared.ErrUploadFailed)
		assert.Equal(t, shared.CodeUploadFailed, shared.ErrorCode(err))
	})
}

func TestReceiptUploader_Remove(t *testing.T) {
	store := &MockReceiptStore{}
	store.On("Delete", mock.Anything, "receipts/2026/07/04/a.png").Return(nil).Once()

	require.NoError(t, newTestUploader(t, store, 0).Remove(context.Background(), "receipts/2026/07/04/a.png"))
	store.AssertExpectations(t)
}

func TestProofValidator_Validate(t *testing.T) {
	v := NewProofValidator(nil)

	tests := []struct {
		name   string
		method finance.PaymentMethod
		sub    ProofSubmission
		want   error
	}{
		{"cash without proof", finance.PaymentMethodCash, ProofSubmission{}, nil},
		{"cash with reference", finance.PaymentMethodCash, ProofSubmission{Value: "slip"}, nil},
		{"bank transfer without proof", finance.PaymentMethodBankTransfer, ProofSubmission{}, shared.ErrProofRequired},
		{"pos with reference", finance.PaymentMethodPOS, ProofSubmission{Value: "POS-1"}, nil},
		{"cheque with file", finance.PaymentMethodCheque, ProofSubmission{Receipt: &ReceiptFile{}}, nil},
		{"internal transfer with both", finance.PaymentMethodInternalTransfer, ProofSubmission{Value: "x", Receipt: &ReceiptFile{}}, shared.ErrProofConflict},
		{"unknown method", finance.PaymentMethod("Barter"), ProofSubmission{Value: "x"}, shared.ErrInvalidInput},
		{"unknown kind", finance.PaymentMethodPOS, ProofSubmission{Value: "x", Kind: "photo"}, shared.ErrInvalidInput},
		{"receipt kind with URL", finance.PaymentMethodPOS, ProofSubmission{Value: "http://files/r.png", Kind: finance.ProofKindReceipt}, nil},
		{"receipt kind without host", finance.PaymentMethodPOS, ProofSubmission{Value: "https://", Kind: finance.ProofKindReceipt}, shared.ErrInvalidInput},
		{"receipt kind with ftp", finance.PaymentMethodPOS, ProofSubmission{Value: "ftp://files/r.png", Kind: finance.ProofKindReceipt}, shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.method, tt.sub)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProofValidator_Resolve(t *testing.T) {
	t.Run("no uploader configured", func(t *testing.T) {
		_, _, err := NewProofValidator(nil).Resolve(context.Background(), ProofSubmission{Receipt: pngReceipt()})
		assert.ErrorIs(t, err, shared.ErrUploadFailed)
	})

	t.Run("values map to proof kinds", func(t *testing.T) {
		v := NewProofValidator(nil)

		proof, stored, err := v.Resolve(context.Background(), ProofSubmission{Value: "  "})
		require.NoError(t, err)
		assert.Nil(t, stored)
		assert.True(t, proof.IsEmpty())

		proof, _, err = v.Resolve(context.Background(), ProofSubmission{Value: "REF-9"})
		require.NoError(t, err)
		assert.Equal(t, finance.ReferenceProof("REF-9"), proof)

		proof, _, err = v.Resolve(context.Background(), ProofSubmission{Value: "https://x.test/r.png", Kind: finance.ProofKindReceipt})
		require.NoError(t, err)
		assert.Equal(t, finance.ReceiptProof("https://x.test/r.png"), proof)
	})

	t.Run("discard without a stored receipt is a no-op", func(t *testing.T) {
		store := &MockReceiptStore{}
		v := NewProofValidator(newTestUploader(t, store, 0))
		require.NoError(t, v.Discard(context.Background(), nil))
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
