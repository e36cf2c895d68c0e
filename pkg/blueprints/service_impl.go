package blueprints

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tendant/blueprint-share/pkg/blueprints/fileid"
)

// service implements the Service interface
type service struct {
	repo   Repository
	blobs  BlobStore
	mailer Mailer
	now    func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithBlobStore sets the content blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithMailer sets the outbound mailer for account emails
func WithMailer(mailer Mailer) Option {
	return func(s *service) {
		s.mailer = mailer
	}
}

// WithClock overrides the time source. Tests use it to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		mailer: NoopMailer{},
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Second)
		},
	}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// Blueprint lifecycle

func (s *service) CreateBlueprint(ctx context.Context, req CreateBlueprintRequest) (*CreateBlueprintResult, error) {
	if !IsValidBlueprint(req.Content) {
		return nil, ErrInvalidBlueprint
	}
	if !req.Exposure.IsValid() {
		return nil, ErrInvalidExposure
	}

	now := s.now()
	expiration, err := computeExpiration(req.Expiration, now)
	if err != nil {
		return nil, err
	}

	fileID, err := s.newFileID(ctx)
	if err != nil {
		return nil, err
	}

	bp := &Blueprint{
		IDAuthor:       req.IDAuthor,
		Slug:           fileID,
		FileID:         fileID,
		Title:          req.Title,
		Type:           FindBlueprintType(req.Content),
		Exposure:       req.Exposure,
		UEVersion:      req.UEVersion,
		CurrentVersion: 1,
		Expiration:     expiration,
		CreatedAt:      now,
		PublishedAt:    &now,
	}

	var result *CreateBlueprintResult
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		id, err := tx.CreateBlueprint(ctx, bp)
		if err != nil {
			return &StepError{Op: "create blueprint", Code: CodeInsertMain, Err: err}
		}

		version := &BlueprintVersion{
			BlueprintID: id,
			Version:     1,
			Reason:      "First commit",
			CreatedAt:   now,
			PublishedAt: &now,
		}
		if _, err := tx.CreateVersion(ctx, version); err != nil {
			return &StepError{Op: "create blueprint", Code: CodeInsertVersion, Err: err}
		}

		if err := s.blobs.Put(ctx, fileID, 1, req.Content); err != nil {
			return &StepError{Op: "create blueprint", Code: CodeWriteBlob, Err: err}
		}

		result = &CreateBlueprintResult{ID: id, Slug: fileID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *service) AddVersion(ctx context.Context, req AddVersionRequest) error {
	if !IsValidBlueprint(req.Content) {
		return ErrInvalidBlueprint
	}

	now := s.now()

	return s.repo.WithTx(ctx, func(tx Repository) error {
		bp, err := tx.GetBlueprint(ctx, req.BlueprintID)
		if err != nil {
			return &StepError{Op: "add version", Code: CodeLoad, Err: err}
		}

		next, err := tx.NextVersion(ctx, bp.ID)
		if err != nil {
			return &StepError{Op: "add version", Code: CodeInsertMain, Err: err}
		}

		version := &BlueprintVersion{
			BlueprintID: bp.ID,
			Version:     next,
			Reason:      req.Reason,
			CreatedAt:   now,
			PublishedAt: &now,
		}
		if _, err := tx.CreateVersion(ctx, version); err != nil {
			return &StepError{Op: "add version", Code: CodeInsertVersion, Err: err}
		}

		// The blob is written before the current_version update commits. If
		// the update below fails the transaction rolls back but the blob
		// stays on disk as an orphan; version numbers are never reused so it
		// can only be shadowed, not served.
		if err := s.blobs.Put(ctx, bp.FileID, next, req.Content); err != nil {
			return &StepError{Op: "add version", Code: CodeWriteBlob, Err: err}
		}

		bp.CurrentVersion = next
		bp.UpdatedAt = &now
		if err := tx.UpdateBlueprint(ctx, bp); err != nil {
			return &StepError{Op: "add version", Code: CodeUpdateMain, Err: err}
		}

		return nil
	})
}

func (s *service) DeleteVersion(ctx context.Context, blueprintID int64, version int) error {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	versions, err := s.repo.ListVersions(ctx, blueprintID)
	if err != nil {
		return err
	}

	// The fallback below indexes the ledger most-recent-first.
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version > versions[j].Version
	})

	if len(versions) == 1 {
		return ErrSoleVersion
	}

	pos := -1
	for k, v := range versions {
		if v.Version == version {
			pos = k
			break
		}
	}
	if pos == -1 {
		return ErrVersionNotFound
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.DeleteVersion(ctx, blueprintID, version); err != nil {
			return err
		}

		if bp.CurrentVersion == version {
			idx := 0
			if pos == 0 {
				// deleting the most recent version falls back to the one
				// just below it
				idx = 1
			}
			bp.CurrentVersion = versions[idx].Version
			if err := tx.UpdateBlueprint(ctx, bp); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := s.blobs.DeleteVersion(ctx, bp.FileID, version); err != nil {
		return &StorageError{FileID: bp.FileID, Version: version, Op: "delete", Err: err}
	}

	return nil
}

func (s *service) DeleteBlueprint(ctx context.Context, blueprintID int64) error {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	if err := s.blobs.DeleteAllVersions(ctx, bp.FileID); err != nil {
		return &StorageError{FileID: bp.FileID, Op: "delete_all", Err: err}
	}

	return s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.DeleteVersions(ctx, blueprintID); err != nil {
			return err
		}
		return tx.DeleteBlueprint(ctx, blueprintID)
	})
}

func (s *service) SoftDeleteBlueprint(ctx context.Context, blueprintID int64) error {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	now := s.now()
	bp.DeletedAt = &now
	return s.repo.UpdateBlueprint(ctx, bp)
}

// Blueprint reads

func (s *service) GetBlueprint(ctx context.Context, id int64) (*Blueprint, error) {
	return s.repo.GetBlueprint(ctx, id)
}

func (s *service) GetBlueprintBySlug(ctx context.Context, slug string) (*Blueprint, error) {
	return s.repo.GetBlueprintBySlug(ctx, slug)
}

func (s *service) GetBlueprintContent(ctx context.Context, blueprintID int64, version int) (string, error) {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return "", err
	}

	if version == 0 {
		version = bp.CurrentVersion
	}

	return s.blobs.Get(ctx, bp.FileID, version)
}

func (s *service) ListVersions(ctx context.Context, blueprintID int64) ([]*BlueprintVersion, error) {
	return s.repo.ListVersions(ctx, blueprintID)
}

func (s *service) ListLastBlueprints(ctx context.Context, limit int) ([]*Blueprint, error) {
	return s.repo.ListLastBlueprints(ctx, limit)
}

func (s *service) SearchBlueprints(ctx context.Context, filter BlueprintFilter) (*Page, error) {
	return s.repo.SearchBlueprints(ctx, filter)
}

// Blueprint mutations

func (s *service) UpdateProperties(ctx context.Context, blueprintID int64, req UpdatePropertiesRequest) error {
	if !req.Exposure.IsValid() {
		return ErrInvalidExposure
	}

	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	now := s.now()
	expiration, err := computeExpiration(req.Expiration, now)
	if err != nil {
		return err
	}

	bp.Exposure = req.Exposure
	bp.Expiration = expiration
	bp.UEVersion = req.UEVersion
	bp.CommentsHidden = req.CommentsHidden
	bp.CommentsClosed = req.CommentsClosed
	bp.UpdatedAt = &now

	return s.repo.UpdateBlueprint(ctx, bp)
}

func (s *service) UpdateInformations(ctx context.Context, blueprintID int64, req UpdateInformationsRequest) error {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	now := s.now()
	bp.Title = req.Title
	bp.Description = req.Description
	bp.Tags = req.Tags
	bp.Video, bp.VideoProvider, _ = FindVideoProvider(req.VideoURL)
	bp.UpdatedAt = &now

	return s.repo.UpdateBlueprint(ctx, bp)
}

func (s *service) UpdateThumbnail(ctx context.Context, blueprintID int64, filename string) error {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	bp.Thumbnail = filename
	return s.repo.UpdateBlueprint(ctx, bp)
}

func (s *service) UpdateCommentCount(ctx context.Context, blueprintID int64, count int) error {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	bp.CommentCount = count
	return s.repo.UpdateBlueprint(ctx, bp)
}

func (s *service) ClaimBlueprint(ctx context.Context, blueprintID, userID int64) error {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return err
	}

	bp.IDAuthor = &userID
	return s.repo.UpdateBlueprint(ctx, bp)
}

func (s *service) ChangeAuthor(ctx context.Context, fromID, toID int64) error {
	return s.repo.ChangeBlueprintsAuthor(ctx, fromID, toID)
}

func (s *service) SoftDeleteFromAuthor(ctx context.Context, authorID int64) error {
	return s.repo.SoftDeleteBlueprintsFromAuthor(ctx, authorID)
}

func (s *service) IsAuthor(ctx context.Context, blueprintID, userID int64) (bool, error) {
	bp, err := s.repo.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return false, err
	}

	return bp.IDAuthor != nil && *bp.IDAuthor == userID, nil
}

// Helpers

func (s *service) newFileID(ctx context.Context) (string, error) {
	gen := fileid.New(
		func(ctx context.Context, id string) (bool, error) {
			available, err := s.repo.IsFileIDAvailable(ctx, id)
			return !available, err
		},
		func(ctx context.Context, id string) (bool, error) {
			return s.blobs.Exists(ctx, id)
		},
	)

	id, err := gen.Generate(ctx)
	if errors.Is(err, fileid.ErrExhausted) {
		return "", ErrIDSpaceExhausted
	}
	return id, err
}

// computeExpiration resolves a symbolic delta against now. Empty and "never"
// mean no expiration; anything else outside the known deltas is rejected
// before any transaction starts.
func computeExpiration(delta string, now time.Time) (*time.Time, error) {
	var d time.Duration
	switch delta {
	case "", "never":
		return nil, nil
	case "1h":
		d = time.Hour
	case "1d":
		d = 24 * time.Hour
	case "1w":
		d = 7 * 24 * time.Hour
	default:
		return nil, ErrInvalidExpiration
	}

	t := now.Add(d)
	return &t, nil
}
