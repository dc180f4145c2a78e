// Package dto holds the REST response shapes and their converters from the
// schema models.
package dto

import (
	"time"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// CivilizationUser is the game user response
type CivilizationUser struct {
	ID            uint64      `json:"id"`
	WalletAddress string      `json:"walletAddress,omitempty"`
	Role          domain.Role `json:"role"`
	Balance       int64       `json:"balance"`
	Color         string      `json:"color"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// FromCivilizationUser converts the schema model
func FromCivilizationUser(civUser *schema.CivilizationUser) CivilizationUser {
	out := CivilizationUser{
		ID:        civUser.ID,
		Role:      civUser.Role,
		Balance:   civUser.Balance,
		Color:     civUser.Color,
		CreatedAt: civUser.CreatedAt,
	}
	if civUser.User != nil {
		out.WalletAddress = civUser.User.WalletAddress
	}
	return out
}

// UserSocials is the social links block of a user profile
type UserSocials struct {
	Twitter   *string `json:"twitter,omitempty"`
	Discord   *string `json:"discord,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
}

// UserProfile is the user profile response
type UserProfile struct {
	WalletAddress    string                   `json:"walletAddress"`
	Username         *string                  `json:"username,omitempty"`
	Description      *string                  `json:"description,omitempty"`
	AvatarURL        *string                  `json:"avatarUrl,omitempty"`
	PopulationStatus *domain.PopulationStatus `json:"populationStatus,omitempty"`
	Socials          *UserSocials             `json:"socials,omitempty"`
}

// FromUser converts the schema model
func FromUser(user *schema.User) UserProfile {
	out := UserProfile{
		WalletAddress:    user.WalletAddress,
		Username:         user.Username,
		Description:      user.Description,
		AvatarURL:        user.AvatarURL,
		PopulationStatus: user.PopulationStatus,
	}
	if user.Socials != nil {
		out.Socials = &UserSocials{
			Twitter:   user.Socials.Twitter,
			Discord:   user.Socials.Discord,
			Instagram: user.Socials.Instagram,
		}
	}
	return out
}

// Segment is the segment response
type Segment struct {
	ID              int64   `json:"id"`
	Coordinate      string  `json:"coordinate"`
	Name            *string `json:"name,omitempty"`
	ImageURL        *string `json:"imageUrl,omitempty"`
	MiniImageURL    *string `json:"miniImageUrl,omitempty"`
	SiteURL         *string `json:"siteUrl,omitempty"`
	OwnerWallet     string  `json:"ownerWallet,omitempty"`
	MergedSegmentID *uint64 `json:"mergedSegmentId,omitempty"`
}

// FromSegment converts the schema model
func FromSegment(segment schema.Segment) Segment {
	out := Segment{
		ID:              segment.ID,
		Coordinate:      segment.Coordinate,
		Name:            segment.Name,
		ImageURL:        segment.ImageURL,
		MiniImageURL:    segment.MiniImageURL,
		SiteURL:         segment.SiteURL,
		MergedSegmentID: segment.MergedSegmentID,
	}
	if segment.Owner != nil {
		out.OwnerWallet = segment.Owner.WalletAddress
	}
	return out
}

// SegmentInfo is the single-segment response with its game state
type SegmentInfo struct {
	Segment
	CaveCount int `json:"caveCount"`
}

// FromSegmentInfo converts the merge service view
func FromSegmentInfo(segment schema.Segment, caveCount int) SegmentInfo {
	return SegmentInfo{
		Segment:   FromSegment(segment),
		CaveCount: caveCount,
	}
}

// MergedSegment is the merged segment response with its members
type MergedSegment struct {
	ID           uint64    `json:"id"`
	TopLeft      string    `json:"topLeft"`
	BottomRight  string    `json:"bottomRight"`
	Name         *string   `json:"name,omitempty"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	MiniImageURL *string   `json:"miniImageUrl,omitempty"`
	SiteURL      *string   `json:"siteUrl,omitempty"`
	Segments     []Segment `json:"segments"`
}

// FromMergedSegment converts the schema model
func FromMergedSegment(merged *schema.MergedSegment) MergedSegment {
	out := MergedSegment{
		ID:           merged.ID,
		TopLeft:      merged.TopLeft,
		BottomRight:  merged.BottomRight,
		Name:         merged.Name,
		ImageURL:     merged.ImageURL,
		MiniImageURL: merged.MiniImageURL,
		SiteURL:      merged.SiteURL,
		Segments:     make([]Segment, 0, len(merged.Segments)),
	}
	for _, segment := range merged.Segments {
		out.Segments = append(out.Segments, FromSegment(segment))
	}
	return out
}

// FromMergedSegments converts a list of schema models
func FromMergedSegments(merged []schema.MergedSegment) []MergedSegment {
	out := make([]MergedSegment, 0, len(merged))
	for i := range merged {
		out = append(out, FromMergedSegment(&merged[i]))
	}
	return out
}

// ImageLog is the audit log response
type ImageLog struct {
	ID          uint64           `json:"id"`
	Action      domain.LogAction `json:"action"`
	Wallet      string           `json:"wallet"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	Coordinates []string         `json:"coordinates"`
}

// FromImageLog converts the schema model
func FromImageLog(log schema.SegmentImageLog) ImageLog {
	out := ImageLog{
		ID:          log.ID,
		Action:      log.Action,
		Wallet:      log.Wallet,
		ImageURL:    log.ImageURL,
		CreatedAt:   log.CreatedAt,
		Coordinates: make([]string, 0, len(log.Segments)),
	}
	for _, segment := range log.Segments {
		out.Coordinates = append(out.Coordinates, segment.Coordinate)
	}
	return out
}

// FromImageLogs converts a list of schema models
func FromImageLogs(logs []schema.SegmentImageLog) []ImageLog {
	out := make([]ImageLog, 0, len(logs))
	for _, log := range logs {
		out = append(out, FromImageLog(log))
	}
	return out
}

// LandForSale is the listing response
type LandForSale struct {
	TokenID    string `json:"tokenId"`
	OrderHash  string `json:"orderHash"`
	PriceValue string `json:"priceValue"`
	Currency   string `json:"currency"`
	Decimals   int    `json:"decimals"`
}

// FromLandsForSale converts a list of schema models
func FromLandsForSale(lands []schema.LandForSale) []LandForSale {
	out := make([]LandForSale, 0, len(lands))
	for _, land := range lands {
		out = append(out, LandForSale{
			TokenID:    land.TokenID,
			OrderHash:  land.OrderHash,
			PriceValue: land.PriceValue,
			Currency:   land.Currency,
			Decimals:   land.Decimals,
		})
	}
	return out
}
