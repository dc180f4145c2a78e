package merge

import (
	"context"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/geometry"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// SegmentInfo bundles a segment row with its idle-game state
type SegmentInfo struct {
	Segment   *schema.Segment
	CaveCount int
}

// SegmentUpdate carries the local metadata fields a segment owner may edit.
// The segment's on-chain data is never touched.
type SegmentUpdate struct {
	Name    *string
	SiteURL *string
}

// GetSegment retrieves one segment with its owner and game state
func (s *Service) GetSegment(ctx context.Context, coordinate string) (*SegmentInfo, error) {
	if _, err := geometry.ParseCoordinate(coordinate); err != nil {
		return nil, err
	}

	segment, err := s.store.GetSegmentByCoordinate(ctx, coordinate)
	if err != nil {
		return nil, err
	}
	if segment == nil {
		return nil, domain.ErrSegmentNotFound
	}

	info := &SegmentInfo{Segment: segment}
	civSegment, err := s.store.GetCivilizationSegmentBySegmentID(ctx, segment.ID)
	if err != nil {
		return nil, err
	}
	if civSegment != nil {
		info.CaveCount = len(civSegment.Caves)
	}

	return info, nil
}

// UpdateSegment overwrites the local metadata of a segment the wallet owns
func (s *Service) UpdateSegment(ctx context.Context, wallet, coordinate string, update SegmentUpdate) (*SegmentInfo, error) {
	wallet = domain.NormalizeWallet(wallet)

	info, err := s.GetSegment(ctx, coordinate)
	if err != nil {
		return nil, err
	}
	if err := s.verifyOwnership(ctx, wallet, []string{coordinate}); err != nil {
		return nil, err
	}

	if err := s.store.UpdateSegmentMeta(ctx, info.Segment.ID, update.Name, update.SiteURL); err != nil {
		return nil, err
	}

	return s.GetSegment(ctx, coordinate)
}

// UploadSegmentImage stores an image on a segment the wallet owns, replacing
// any previous one
func (s *Service) UploadSegmentImage(ctx context.Context, wallet, coordinate string, data []byte) (*SegmentInfo, error) {
	wallet = domain.NormalizeWallet(wallet)

	info, err := s.GetSegment(ctx, coordinate)
	if err != nil {
		return nil, err
	}
	if err := s.verifyOwnership(ctx, wallet, []string{coordinate}); err != nil {
		return nil, err
	}

	saved, err := s.images.SaveUpload(data)
	if err != nil {
		return nil, err
	}

	log := &schema.SegmentImageLog{
		Action:   domain.LogActionUpload,
		Wallet:   wallet,
		ImageURL: &saved.ImageURL,
	}
	if err := s.store.UpdateSegmentImages(ctx, info.Segment.ID, &saved.ImageURL, &saved.MiniImageURL, log); err != nil {
		s.images.Delete(saved.ImageURL, saved.MiniImageURL)
		return nil, err
	}

	s.deleteImages(info.Segment.ImageURL, info.Segment.MiniImageURL)

	logger.InfoCtx(ctx, "segment image uploaded",
		zap.String("wallet", wallet),
		zap.String("coordinate", coordinate))

	return s.GetSegment(ctx, coordinate)
}
