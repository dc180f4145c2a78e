// Package merge implements the merged-segment lifecycle: merging a solid
// rectangle of owned segments, uploading an image onto the merged site and
// unmerging with the image cloned back down to the members.
package merge

import (
	"context"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/geometry"
	"github.com/world-in-pieces/wip-backend/internal/imagestore"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/providers/subgraph"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// Service wires the merge lifecycle to the store, the chain gateway and the
// image store
type Service struct {
	store      store.Store
	landClient subgraph.LandClient
	images     imagestore.Store
}

// NewService creates a new merge service
func NewService(st store.Store, landClient subgraph.LandClient, images imagestore.Store) *Service {
	return &Service{
		store:      st,
		landClient: landClient,
		images:     images,
	}
}

// Get retrieves one merged segment with its members
func (s *Service) Get(ctx context.Context, id uint64) (*schema.MergedSegment, error) {
	merged, err := s.store.GetMergedSegmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if merged == nil {
		return nil, domain.ErrSegmentNotFound
	}
	return merged, nil
}

// List retrieves every merged segment
func (s *Service) List(ctx context.Context) ([]schema.MergedSegment, error) {
	return s.store.ListMergedSegments(ctx)
}

// Logs retrieves audit log entries, newest first
func (s *Service) Logs(ctx context.Context, wallet string, limit, offset int) ([]schema.SegmentImageLog, error) {
	return s.store.ListImageLogs(ctx, domain.NormalizeWallet(wallet), limit, offset)
}

// Merge joins the given coordinates into one merged segment. The coordinates
// must tile a solid rectangle, every one must currently be owned by the
// wallet on chain, and none may already belong to another merged segment.
func (s *Service) Merge(ctx context.Context, wallet string, coordinates []string) (*schema.MergedSegment, error) {
	wallet = domain.NormalizeWallet(wallet)

	coordinates = dedupe(coordinates)
	if len(coordinates) < 2 {
		return nil, domain.ErrNotMergeable
	}
	if !geometry.IsRectangleTiling(coordinates) {
		return nil, domain.ErrNotMergeable
	}

	if err := s.verifyOwnership(ctx, wallet, coordinates); err != nil {
		return nil, err
	}

	segments, err := s.store.GetSegmentsByCoordinates(ctx, coordinates)
	if err != nil {
		return nil, err
	}
	if len(segments) != len(coordinates) {
		return nil, domain.ErrSegmentNotFound
	}

	memberIDs := make([]int64, 0, len(segments))
	for _, segment := range segments {
		if segment.MergedSegmentID != nil {
			return nil, domain.ErrAlreadyMerged
		}
		memberIDs = append(memberIDs, segment.ID)
	}

	topLeft, bottomRight := geometry.Bounds(coordinates)
	merged := &schema.MergedSegment{
		TopLeft:     topLeft,
		BottomRight: bottomRight,
	}

	log := &schema.SegmentImageLog{
		Action: domain.LogActionMerge,
		Wallet: wallet,
	}
	if err := s.store.CreateMergedSegment(ctx, merged, memberIDs, log); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "segments merged",
		zap.String("wallet", wallet),
		zap.Uint64("merged_segment_id", merged.ID),
		zap.Int("members", len(memberIDs)))

	return s.Get(ctx, merged.ID)
}

// Unmerge dissolves a merged segment. The merged image, when present, is
// cloned down to every member before the merged row and its files go away;
// members are detached, never deleted.
func (s *Service) Unmerge(ctx context.Context, wallet string, id uint64) error {
	wallet = domain.NormalizeWallet(wallet)

	merged, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	// Ownership can change between merge and unmerge
	coordinates := make([]string, 0, len(merged.Segments))
	memberIDs := make([]int64, 0, len(merged.Segments))
	for _, segment := range merged.Segments {
		coordinates = append(coordinates, segment.Coordinate)
		memberIDs = append(memberIDs, segment.ID)
	}
	if err := s.verifyOwnership(ctx, wallet, coordinates); err != nil {
		return err
	}

	if merged.ImageURL != nil {
		if err := s.cloneImageToMembers(ctx, *merged.ImageURL, merged.Segments); err != nil {
			return err
		}
	}

	log := &schema.SegmentImageLog{
		Action:   domain.LogActionUnmerge,
		Wallet:   wallet,
		ImageURL: merged.ImageURL,
	}
	if err := s.store.DeleteMergedSegment(ctx, id, log); err != nil {
		return err
	}

	s.deleteImages(merged.ImageURL, merged.MiniImageURL)

	logger.InfoCtx(ctx, "merged segment dissolved",
		zap.String("wallet", wallet),
		zap.Uint64("merged_segment_id", id),
		zap.Int("members", len(memberIDs)))

	return nil
}

// cloneImageToMembers copies the merged image onto each member. Each clone is
// committed to the member row right away, so a failure only ever removes the
// files of the clone that did not make it into the database. A member's
// previous image files go away once the clone replaced them.
func (s *Service) cloneImageToMembers(ctx context.Context, imageURL string, members []schema.Segment) error {
	for _, member := range members {
		clone, err := s.images.Clone(imageURL)
		if err != nil {
			return err
		}

		if err := s.store.UpdateSegmentImages(ctx, member.ID, &clone.ImageURL, &clone.MiniImageURL, nil); err != nil {
			s.images.Delete(clone.ImageURL, clone.MiniImageURL)
			return err
		}

		s.deleteImages(member.ImageURL, member.MiniImageURL)
	}

	return nil
}

// UploadImage stores a new image on a merged segment, replacing and removing
// the previous one
func (s *Service) UploadImage(ctx context.Context, wallet string, id uint64, data []byte) (*schema.MergedSegment, error) {
	wallet = domain.NormalizeWallet(wallet)

	merged, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	coordinates := make([]string, 0, len(merged.Segments))
	memberIDs := make([]int64, 0, len(merged.Segments))
	for _, segment := range merged.Segments {
		coordinates = append(coordinates, segment.Coordinate)
		memberIDs = append(memberIDs, segment.ID)
	}
	if err := s.verifyOwnership(ctx, wallet, coordinates); err != nil {
		return nil, err
	}

	saved, err := s.images.SaveUpload(data)
	if err != nil {
		return nil, err
	}

	// Image references and the audit row land in one transaction so an
	// upload can never succeed without its log entry
	log := &schema.SegmentImageLog{
		Action:   domain.LogActionUpload,
		Wallet:   wallet,
		ImageURL: &saved.ImageURL,
	}
	if err := s.store.UpdateMergedSegmentImages(ctx, id, &saved.ImageURL, &saved.MiniImageURL, memberIDs, log); err != nil {
		s.images.Delete(saved.ImageURL, saved.MiniImageURL)
		return nil, err
	}

	s.deleteImages(merged.ImageURL, merged.MiniImageURL)

	return s.Get(ctx, id)
}

func (s *Service) verifyOwnership(ctx context.Context, wallet string, coordinates []string) error {
	owned, err := s.landClient.GetUserSegments(ctx, wallet)
	if err != nil {
		return err
	}

	ownedSet := make(map[string]struct{}, len(owned))
	for _, segment := range owned {
		ownedSet[segment.Coordinate] = struct{}{}
	}
	for _, coordinate := range coordinates {
		if _, ok := ownedSet[coordinate]; !ok {
			return domain.ErrNotOwned
		}
	}

	return nil
}

func (s *Service) deleteImages(urls ...*string) {
	var existing []string
	for _, url := range urls {
		if url != nil && *url != "" {
			existing = append(existing, *url)
		}
	}
	if len(existing) > 0 {
		s.images.Delete(existing...)
	}
}

func dedupe(coordinates []string) []string {
	seen := make(map[string]struct{}, len(coordinates))
	out := make([]string, 0, len(coordinates))
	for _, coordinate := range coordinates {
		if _, ok := seen[coordinate]; ok {
			continue
		}
		seen[coordinate] = struct{}{}
		out = append(out, coordinate)
	}
	return out
}
