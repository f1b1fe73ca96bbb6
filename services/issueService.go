package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"civicsync-issues/images"
	"civicsync-issues/models"
	"civicsync-issues/store"
	"civicsync-issues/validation"

	"go.uber.org/zap"
)

// Upload is a photo submitted with a new issue.
type Upload struct {
	Name string
	Body io.Reader
}

// IssueServiceOptions tunes image handling.
type IssueServiceOptions struct {
	MaxUploadBytes     int64
	ImageDeleteTimeout time.Duration
}

// IssueService runs the issue lifecycle: validate, attach image, persist,
// query, mutate and delete with image cleanup.
type IssueService struct {
	store  store.IssueStore
	images images.Provider
	log    *zap.Logger
	opts   IssueServiceOptions

	cleanups sync.WaitGroup
}

func NewIssueService(st store.IssueStore, provider images.Provider, log *zap.Logger, opts IssueServiceOptions) *IssueService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	if opts.ImageDeleteTimeout <= 0 {
		opts.ImageDeleteTimeout = 5 * time.Second
	}
	return &IssueService{store: st, images: provider, log: log, opts: opts}
}

// Create validates in, stores the optional photo and persists the record.
// Nothing is persisted when validation fails.
func (s *IssueService) Create(ctx context.Context, actor Identity, in validation.IssueInput, upload *Upload) (*models.IssueRecord, error) {
	if !actor.Authenticated() {
		return nil, models.ErrUnauthorized
	}

	res := validation.NormalizeIssue(in)
	if !res.Valid() {
		return nil, res.Err()
	}
	draft := res.Draft()

	if upload != nil {
		if err := s.attach(ctx, draft, upload); err != nil {
			return nil, err
		}
	}

	rec, err := s.store.Create(ctx, draft)
	if err != nil {
		if draft.ImageRef != nil {
			s.deleteImage(ctx, *draft.ImageRef)
		}
		return nil, err
	}

	s.log.Info("issue created",
		zap.String("issue_id", rec.ID.Hex()),
		zap.String("user_id", actor.UserID),
		zap.Bool("image", rec.ImageRef != nil))
	return rec, nil
}

// attach uploads the photo and records it on draft. A provider failure keeps
// the placeholder image; an unreadable or oversized file is a validation error.
func (s *IssueService) attach(ctx context.Context, draft *models.IssueRecord, upload *Upload) error {
	data, err := images.Prepare(upload.Body, s.opts.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, images.ErrUnsupportedFormat) || errors.Is(err, images.ErrTooLarge) {
			return &models.ValidationError{Fields: []string{"image"}}
		}
		return err
	}

	att, err := s.images.Upload(ctx, upload.Name, bytes.NewReader(data))
	if err != nil {
		s.log.Warn("image upload failed, keeping placeholder",
			zap.String("file", upload.Name),
			zap.Error(&models.ExternalServiceError{Service: "image provider", Err: err}))
		return nil
	}

	draft.Image = att.URL
	draft.ImageRef = &att.Ref
	return nil
}

func (s *IssueService) Get(ctx context.Context, id string) (*models.IssueRecord, error) {
	return s.store.Get(ctx, id)
}

// List runs q over a snapshot of all records.
func (s *IssueService) List(ctx context.Context, q IssueQuery) ([]models.IssueRecord, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return q.Apply(all), nil
}

// Map returns the records that have coordinates, newest first.
func (s *IssueService) Map(ctx context.Context) ([]models.IssueRecord, error) {
	latest, err := s.List(ctx, IssueQuery{Sort: SortLatest})
	if err != nil {
		return nil, err
	}
	return WithCoordinates(latest), nil
}

// Update applies a partial update. The image of an issue never changes here.
func (s *IssueService) Update(ctx context.Context, actor Identity, id string, in validation.PatchInput) (*models.IssueRecord, error) {
	if !actor.Authenticated() {
		return nil, models.ErrUnauthorized
	}

	patch, err := validation.NormalizePatch(in)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info("issue updated", zap.String("issue_id", id), zap.String("user_id", actor.UserID))
	return rec, nil
}

// Delete removes the record, then makes one best-effort attempt to delete its
// image. Image cleanup runs in the background; its failures are logged and
// never fail the deletion.
func (s *IssueService) Delete(ctx context.Context, actor Identity, id string) error {
	if !actor.Authenticated() {
		return models.ErrUnauthorized
	}

	rec, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.log.Info("issue deleted", zap.String("issue_id", id), zap.String("user_id", actor.UserID))

	if rec.ImageRef != nil {
		s.deleteImage(ctx, *rec.ImageRef)
	}
	return nil
}

// deleteImage removes ref from the provider without holding up the caller.
// The removal is bounded by ImageDeleteTimeout and survives cancellation of
// the request context, since the record change is already committed.
func (s *IssueService) deleteImage(ctx context.Context, ref string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ImageDeleteTimeout)

	s.cleanups.Add(1)
	go func() {
		defer s.cleanups.Done()
		defer cancel()

		if err := s.images.Delete(ctx, ref); err != nil {
			s.log.Warn("failed to delete issue image",
				zap.String("image_ref", ref),
				zap.Error(&models.ExternalServiceError{Service: "image provider", Err: err}))
		}
	}()
}

// Wait blocks until pending image cleanups have finished.
func (s *IssueService) Wait() {
	s.cleanups.Wait()
}
