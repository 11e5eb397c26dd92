// Package storage keeps uploaded document files and enforces the upload
// policy (content type and size).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/config"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// FileStore persists file contents and hands back an opaque reference.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

type Policy struct {
	MaxBytes     int64
	AllowedTypes []string
}

func NewPolicy(cfg config.StorageConfig) Policy {
	return Policy{MaxBytes: cfg.MaxUploadBytes(), AllowedTypes: cfg.AllowedTypes}
}

func DefaultPolicy() Policy {
	return Policy{MaxBytes: 10 << 20, AllowedTypes: []string{MimePDF, MimeDOCX}}
}

type Upload struct {
	Name     string
	Content  []byte
	MimeType string
}

// ReadUpload reads at most policy.MaxBytes+1 bytes from r and validates the
// result.
func ReadUpload(policy Policy, name string, r io.Reader) (*Upload, error) {
	if r == nil {
		return nil, apperr.Validation("arquivo", "Arquivo é obrigatório.")
	}
	data, err := io.ReadAll(io.LimitReader(r, policy.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	upload := &Upload{Name: name, Content: data}
	if err := ValidateUpload(policy, upload); err != nil {
		return nil, err
	}
	return upload, nil
}

// ValidateUpload checks presence, size and sniffed content type, and records
// the detected type on the upload.
func ValidateUpload(policy Policy, upload *Upload) error {
	if upload == nil || len(upload.Content) == 0 {
		return apperr.Validation("arquivo", "Arquivo é obrigatório.")
	}
	if strings.TrimSpace(upload.Name) == "" {
		return apperr.Validation("arquivo", "Nome do arquivo é obrigatório.")
	}
	if strings.IndexFunc(upload.Name, unicode.IsControl) >= 0 {
		return apperr.Validation("arquivo", "Nome do arquivo contém caracteres inválidos.")
	}
	if policy.MaxBytes > 0 && int64(len(upload.Content)) > policy.MaxBytes {
		return apperr.Validation("arquivo", fmt.Sprintf("Arquivo excede o limite de %d MB.", policy.MaxBytes>>20))
	}
	detected := mimetype.Detect(upload.Content)
	for _, allowed := range policy.AllowedTypes {
		if detected.Is(allowed) {
			upload.MimeType = allowed
			return nil
		}
	}
	return apperr.Validation("arquivo", "Apenas arquivos PDF ou DOCX são permitidos.")
}

// LocalStore writes files under a root directory using random names so that
// user supplied names never reach the filesystem.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := filepath.ToSlash(filepath.Join("documentos", uuid.NewString()+strings.ToLower(filepath.Ext(name))))
	path := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, apperr.NotFound("arquivo", ref)
	}
	f, err := os.Open(filepath.Join(s.root, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("arquivo", ref)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// SaveUpload stores a validated upload.
func SaveUpload(ctx context.Context, fs FileStore, upload *Upload) (string, error) {
	return fs.Save(ctx, upload.Name, bytes.NewReader(upload.Content))
}
