package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/apperr"
	"github.com/praevia/atmp/internal/gate"
	"github.com/praevia/atmp/internal/models"
	"github.com/praevia/atmp/internal/storage"
)

// MaxUploadSize is the fixed ceiling on document uploads.
const MaxUploadSize = 10 << 20 // 10 MiB

// DocumentService stores attachments: metadata is derived from the file
// content itself, never from client-supplied fields.
type DocumentService struct {
	db    *gorm.DB
	store *storage.Store
	log   *zap.Logger
}

func NewDocumentService(db *gorm.DB, store *storage.Store, log *zap.Logger) *DocumentService {
	return &DocumentService{db: db, store: store, log: log}
}

type UploadInput struct {
	DossierID     *uint
	ContentieuxID *uint
	Type          string
	Description   string
	FileName      string
	Content       io.Reader
}

// Upload validates, stores the blob, then persists the row. Files over the
// ceiling are rejected before anything touches disk or the database. Name,
// size and MIME type come from the uploaded part and its bytes.
func (s *DocumentService) Upload(ctx context.Context, actor *models.User, in UploadInput) (*models.Document, error) {
	if !gate.Allows(actor, gate.ResourceDocument, gate.ActionUpload) {
		return nil, apperr.Forbidden("role may not upload documents")
	}
	if in.DossierID == nil && in.ContentieuxID == nil {
		return nil, apperr.ValidationFields("validation failed",
			map[string]string{"owner": "dossier_id or contentieux_id required"})
	}
	docType := models.DocumentType(in.Type)
	if in.Type == "" {
		docType = models.DocAutre
	} else if !docType.Valid() {
		return nil, apperr.ValidationFields("validation failed", map[string]string{"document_type": "unknown type"})
	}
	if in.FileName == "" || in.Content == nil {
		return nil, apperr.ValidationFields("validation failed", map[string]string{"file": "required"})
	}

	if in.DossierID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.DossierATMP{}).
			Where("id = ?", *in.DossierID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, apperr.NotFound("dossier not found")
		}
	}
	if in.ContentieuxID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Contentieux{}).
			Where("id = ?", *in.ContentieuxID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, apperr.NotFound("contentieux not found")
		}
	}

	// Read through a limiter one byte past the ceiling so oversized uploads
	// fail without buffering the whole body.
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(in.Content, MaxUploadSize+1))
	if err != nil {
		return nil, apperr.Storage("failed to read upload", err)
	}
	if n > MaxUploadSize {
		return nil, apperr.Validation("file too large, size should not exceed 10MB")
	}
	if n == 0 {
		return nil, apperr.ValidationFields("validation failed", map[string]string{"file": "empty"})
	}

	sniff := buf.Bytes()
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	mimeType := http.DetectContentType(sniff)

	rel, size, err := s.store.Save(&buf, in.FileName)
	if err != nil {
		return nil, apperr.Storage("failed to store file", err)
	}

	doc := models.Document{
		DossierID:     in.DossierID,
		ContentieuxID: in.ContentieuxID,
		UploadedByID:  actor.ID,
		Type:          docType,
		Description:   in.Description,
		OriginalName:  filepath.Base(in.FileName),
		Path:          rel,
		MimeType:      mimeType,
		Size:          size,
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		// The stored blob is orphaned on purpose; no compensating delete.
		return nil, err
	}
	return &doc, nil
}

// scope limits document visibility to the uploader unless the actor is an
// administrator.
func (s *DocumentService) scope(ctx context.Context, actor *models.User) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Document{})
	if actor.IsAdmin() {
		return q
	}
	return q.Where("uploaded_by_id = ?", actor.ID)
}

func (s *DocumentService) List(ctx context.Context, actor *models.User) ([]models.Document, error) {
	if !gate.Allows(actor, gate.ResourceDocument, gate.ActionList) {
		return nil, apperr.Forbidden("role may not list documents")
	}
	var docs []models.Document
	if err := s.scope(ctx, actor).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *DocumentService) get(ctx context.Context, actor *models.User, id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.scope(ctx, actor).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("document not found")
		}
		return nil, err
	}
	return &doc, nil
}

// Download returns the document row plus a reader over its blob. A row whose
// blob has gone missing is a 404, not a 500.
func (s *DocumentService) Download(ctx context.Context, actor *models.User, id uint) (*models.Document, io.ReadCloser, error) {
	if !gate.Allows(actor, gate.ResourceDocument, gate.ActionDownload) {
		return nil, nil, apperr.Forbidden("role may not download documents")
	}
	doc, err := s.get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(doc.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Error("document blob missing", zap.Uint("document_id", doc.ID), zap.String("path", doc.Path))
			return nil, nil, apperr.NotFound("file not found on server storage")
		}
		return nil, nil, apperr.Storage("failed to open file", err)
	}
	return doc, rc, nil
}

// Delete removes the blob before the row; only the uploader or an
// administrator may delete.
func (s *DocumentService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if !gate.Allows(actor, gate.ResourceDocument, gate.ActionDelete) {
		return apperr.Forbidden("role may not delete documents")
	}
	doc, err := s.get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(doc.Path); err != nil {
		return apperr.Storage("failed to remove file", err)
	}
	return s.db.WithContext(ctx).Delete(&models.Document{}, doc.ID).Error
}
