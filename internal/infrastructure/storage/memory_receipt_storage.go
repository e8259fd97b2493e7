package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	financeapp "github.com/bakery/ledger/internal/application/finance"
)

var _ financeapp.ReceiptStore = (*MemoryReceiptStorage)(nil)

// StoredObject is a receipt held by MemoryReceiptStorage
type StoredObject struct {
	ContentType string
	Data        []byte
}

// MemoryReceiptStorage keeps receipts in process memory.
// Used in development when no bucket is configured; receipts are lost on restart.
type MemoryReceiptStorage struct {
	// BaseURL prefixes the URLs returned by Put
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// NewMemoryReceiptStorage creates a new MemoryReceiptStorage
func NewMemoryReceiptStorage(baseURL string) *MemoryReceiptStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &MemoryReceiptStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]StoredObject),
	}
}

// Put stores the receipt body under obj.Key
func (s *MemoryReceiptStorage) Put(ctx context.Context, obj financeapp.ReceiptObject) (string, error) {
	if obj.Key == "" {
		return "", errors.New("storage key is required")
	}
	if obj.Body == nil {
		return "", errors.New("receipt body is required")
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[obj.Key] = StoredObject{ContentType: obj.ContentType, Data: data}
	s.mu.Unlock()
	return s.ObjectURL(obj.Key), nil
}

// Delete removes a receipt. Deleting a missing key succeeds.
func (s *MemoryReceiptStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Get returns a stored receipt
func (s *MemoryReceiptStorage) Get(key string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored receipts
func (s *MemoryReceiptStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// SignedURL returns the plain object URL; memory receipts need no signature
func (s *MemoryReceiptStorage) SignedURL(_ context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	return s.ObjectURL(key), time.Now().Add(time.Hour), nil
}

// ObjectURL is the URL Put returns for key
func (s *MemoryReceiptStorage) ObjectURL(key string) string {
	return s.BaseURL + "/" + escapeKey(key)
}
