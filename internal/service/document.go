package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"doclib/internal/apperr"
	"doclib/internal/cache"
	"doclib/internal/logger"
	"doclib/internal/metrics"
	"doclib/internal/model"
	"doclib/internal/preview"
	"doclib/internal/repository"
	"doclib/internal/storage"
	"doclib/internal/tagging"
)

var tracer = otel.Tracer("doclib/internal/service")

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// List returns one page of summaries and the total number of documents.
	List(ctx context.Context, req model.PageRequest) (*model.DocumentPage, error)

	// Search is List restricted to documents matching at least one filter.
	Search(ctx context.Context, req model.SearchRequest) (*model.DocumentPage, error)

	// Get returns a document's metadata with its tags.
	Get(ctx context.Context, id string) (*model.Document, error)

	// GetBlob returns the stored file name and PDF bytes of a document.
	GetBlob(ctx context.Context, id string) (string, []byte, error)

	// Update changes metadata and, when tags are given, replaces the tag set.
	Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.Document, error)

	// Delete removes the row, then the blob. A blob that cannot be removed is logged, not returned.
	Delete(ctx context.Context, id string) error

	// Upload stores each item as blob then row. Results keep input order.
	Upload(ctx context.Context, items []model.UploadItem) []model.UploadResult

	// UploadFiles extracts previews from staged files and uploads them. Staged files are removed.
	UploadFiles(ctx context.Context, files []model.StagedFile) []model.UploadResult
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	blobs    storage.BlobStore
	repo     repository.DocumentRepository
	renderer preview.Renderer
	cache    cache.DocumentCache
	metrics  *metrics.Metrics
	log      *slog.Logger
	workers  int
	now      func() time.Time
}

// Option configures the service.
type Option func(*documentService)

func WithRenderer(r preview.Renderer) Option { return func(s *documentService) { s.renderer = r } }
func WithCache(c cache.DocumentCache) Option { return func(s *documentService) { s.cache = c } }
func WithMetrics(m *metrics.Metrics) Option  { return func(s *documentService) { s.metrics = m } }
func WithLogger(l *slog.Logger) Option       { return func(s *documentService) { s.log = l } }
func WithClock(now func() time.Time) Option  { return func(s *documentService) { s.now = now } }

// WithUploadWorkers bounds how many items of one batch are stored concurrently.
func WithUploadWorkers(n int) Option {
	return func(s *documentService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(blobs storage.BlobStore, repo repository.DocumentRepository, opts ...Option) DocumentService {
	s := &documentService{
		blobs:   blobs,
		repo:    repo,
		cache:   cache.Noop{},
		workers: 4,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.Component(s.log, "document_service")
	if s.renderer == nil {
		s.renderer = preview.NewPDFRenderer(nil, s.log)
	}
	return s
}

func (s *documentService) List(ctx context.Context, req model.PageRequest) (*model.DocumentPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: req.Size, Offset: req.Offset()})
	if err != nil {
		return nil, storeError("list", "", err)
	}
	return &model.DocumentPage{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Search(ctx context.Context, req model.SearchRequest) (*model.DocumentPage, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	filter := repository.SearchFilter{Title: req.Title, Author: req.Author, Tag: req.Tag}
	res, err := s.repo.Search(ctx, filter, repository.PageQuery{Limit: req.Size, Offset: req.Offset()})
	if err != nil {
		return nil, storeError("search", "", err)
	}
	return &model.DocumentPage{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if err := checkID("get", id); err != nil {
		return nil, err
	}

	cached, gen, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("id", id), slog.String("error", err.Error()))
	} else if cached != nil {
		return cached, nil
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("get", id, err)
	}
	// gen was read before the row; a write that invalidated since then makes Set a no-op.
	if err := s.cache.Set(ctx, doc, gen); err != nil {
		s.log.Warn("cache write failed", slog.String("id", id), slog.String("error", err.Error()))
	}
	return doc, nil
}

func (s *documentService) GetBlob(ctx context.Context, id string) (string, []byte, error) {
	const op = "get_blob"
	if err := checkID(op, id); err != nil {
		return "", nil, err
	}
	ctx, span := tracer.Start(ctx, "DocumentService.GetBlob", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	name, err := s.repo.FileName(ctx, id)
	if err != nil {
		return "", nil, storeError(op, id, err)
	}

	data, err := s.blobs.Read(ctx, name)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.log.Error("document has no blob",
				slog.String("event", "data_integrity"),
				slog.String("id", id),
				slog.String("file", name))
			return "", nil, apperr.E(apperr.KindDataIntegrity, op, name, err)
		}
		return "", nil, apperr.E(apperr.KindIO, op, name, err)
	}

	if err := s.repo.Touch(context.WithoutCancel(ctx), id, s.now()); err != nil {
		s.log.Warn("stamp last access failed", slog.String("id", id), slog.String("error", err.Error()))
	} else {
		s.invalidate(ctx, id)
	}
	return name, data, nil
}

func (s *documentService) Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.Document, error) {
	if err := checkID("update", id); err != nil {
		return nil, err
	}
	if upd.Tags != nil {
		upd.Tags = tagging.Normalize(upd.Tags)
	}

	ctx = context.WithoutCancel(ctx)
	doc, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, storeError("update", id, err)
	}
	s.invalidate(ctx, id)
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	const op = "delete"
	if err := checkID(op, id); err != nil {
		return err
	}
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "DocumentService.Delete", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	name, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError(op, id, err)
	}
	s.invalidate(ctx, id)

	if err := s.blobs.Delete(ctx, name); err != nil {
		span.RecordError(err)
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.log.Warn("deleted document had no blob", slog.String("id", id), slog.String("file", name))
			return nil
		}
		s.metrics.StrayBlob()
		s.log.Error("blob left behind after delete",
			slog.String("event", "stray_blob"),
			slog.String("id", id),
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
	return nil
}

func (s *documentService) Upload(ctx context.Context, items []model.UploadItem) []model.UploadResult {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload", trace.WithAttributes(attribute.Int("upload.items", len(items))))
	defer span.End()

	results := make([]model.UploadResult, len(items))
	s.forEach(len(items), func(i int) {
		results[i] = s.uploadOne(ctx, items[i])
	})
	return results
}

func (s *documentService) UploadFiles(ctx context.Context, files []model.StagedFile) []model.UploadResult {
	ctx, span := tracer.Start(ctx, "DocumentService.UploadFiles", trace.WithAttributes(attribute.Int("upload.items", len(files))))
	defer span.End()

	results := make([]model.UploadResult, len(files))
	s.forEach(len(files), func(i int) {
		f := files[i]
		defer os.Remove(f.Path)

		p, err := s.renderer.ExtractPreview(ctx, f.Path, f.OriginalName)
		if err != nil {
			results[i] = s.record(f.OriginalName, nil, apperr.E(apperr.KindValidation, "upload", f.OriginalName, err))
			return
		}
		results[i] = s.uploadOne(ctx, model.UploadItem{
			Title:     p.Title,
			FileName:  f.OriginalName,
			Author:    p.Author,
			PageCount: p.PageCount,
			Thumbnail: p.Thumbnail,
			BlobPath:  f.Path,
		})
	})
	return results
}

// forEach runs fn for 0..n-1 on at most s.workers goroutines and waits for all of them.
func (s *documentService) forEach(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *documentService) uploadOne(ctx context.Context, item model.UploadItem) model.UploadResult {
	doc, err := s.store(context.WithoutCancel(ctx), item)
	return s.record(item.FileName, doc, err)
}

// store writes the blob first and the row second. A row failure other than a
// duplicate file name removes the blob again. A blob that exists without a row
// is stray and is reclaimed by claiming the name with a row, then replacing it.
func (s *documentService) store(ctx context.Context, item model.UploadItem) (*model.Document, error) {
	const op = "upload"

	f, err := os.Open(item.BlobPath)
	if err != nil {
		return nil, apperr.E(apperr.KindIO, op, item.FileName, err)
	}
	defer f.Close()

	if err := s.blobs.Write(ctx, item.FileName, f); err != nil {
		switch {
		case errors.Is(err, storage.ErrBlobExists):
			return s.reclaim(ctx, item, f)
		case errors.Is(err, storage.ErrInvalidName):
			return nil, apperr.E(apperr.KindValidation, op, item.FileName, err)
		default:
			return nil, apperr.E(apperr.KindIO, op, item.FileName, err)
		}
	}

	doc, err := s.repo.Create(ctx, newDocument(item))
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.E(apperr.KindConflict, op, item.FileName, err)
	}

	delErr := s.blobs.Delete(ctx, item.FileName)
	s.metrics.Compensation(delErr == nil)
	if delErr != nil {
		s.log.Error("compensating blob delete failed",
			slog.String("event", "compensation"),
			slog.String("file", item.FileName),
			slog.String("insert_error", err.Error()),
			slog.String("error", delErr.Error()))
		err = errors.Join(err, fmt.Errorf("compensating delete: %w", delErr))
	}
	return nil, apperr.E(apperr.KindStore, op, item.FileName, err)
}

// reclaim handles a name whose blob already exists. The unique file name of the
// row decides ownership: a duplicate row is a conflict and the blob is left as
// is; otherwise the blob is stray and is overwritten under the new row.
func (s *documentService) reclaim(ctx context.Context, item model.UploadItem, f *os.File) (*model.Document, error) {
	const op = "upload"

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.E(apperr.KindIO, op, item.FileName, err)
	}

	doc, err := s.repo.Create(ctx, newDocument(item))
	if err != nil {
		return nil, storeError(op, item.FileName, err)
	}

	if err := s.blobs.Replace(ctx, item.FileName, f); err != nil {
		_, delErr := s.repo.Delete(ctx, doc.ID)
		s.metrics.Compensation(delErr == nil)
		if delErr != nil {
			s.log.Error("compensating row delete failed",
				slog.String("event", "compensation"),
				slog.String("id", doc.ID),
				slog.String("file", item.FileName),
				slog.String("replace_error", err.Error()),
				slog.String("error", delErr.Error()))
			err = errors.Join(err, fmt.Errorf("compensating delete: %w", delErr))
		}
		return nil, apperr.E(apperr.KindIO, op, item.FileName, err)
	}

	s.metrics.StrayReclaimed()
	s.log.Warn("stray blob replaced",
		slog.String("event", "stray_blob_reclaimed"),
		slog.String("id", doc.ID),
		slog.String("file", item.FileName))
	return doc, nil
}

func newDocument(item model.UploadItem) *model.Document {
	return &model.Document{
		ID:        uuid.NewString(),
		Title:     item.Title,
		FileName:  item.FileName,
		Author:    item.Author,
		PageCount: item.PageCount,
		Thumbnail: item.Thumbnail,
	}
}

func (s *documentService) record(fileName string, doc *model.Document, err error) model.UploadResult {
	res := model.UploadResult{FileName: fileName, Document: doc, Status: model.UploadCreated}
	switch {
	case err == nil:
	case apperr.IsKind(err, apperr.KindConflict):
		res.Status = model.UploadConflict
		res.Error = fmt.Sprintf("a document named %q already exists", fileName)
	default:
		res.Status = model.UploadFailed
		res.Error = err.Error()
	}
	res.Kind = apperr.KindOf(err)
	s.metrics.Upload(string(res.Status))
	s.log.Info("upload",
		slog.String("event", "upload"),
		slog.String("file", fileName),
		slog.String("status", string(res.Status)))
	return res
}

func (s *documentService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("cache invalidate failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// checkID rejects empty ids and treats malformed ones as absent: no document can carry them.
func checkID(op, id string) error {
	if id == "" {
		return apperr.Validation(op, "id", "id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperr.E(apperr.KindNotFound, op, id, repository.ErrNotFound)
	}
	return nil
}

func storeError(op, subject string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.E(apperr.KindNotFound, op, subject, err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.E(apperr.KindConflict, op, subject, err)
	default:
		return apperr.E(apperr.KindStore, op, subject, err)
	}
}
