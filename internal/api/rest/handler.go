package rest

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/world-in-pieces/wip-backend/internal/api/rest/dto"
	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/game"
	"github.com/world-in-pieces/wip-backend/internal/merge"
	"github.com/world-in-pieces/wip-backend/internal/profile"
	"github.com/world-in-pieces/wip-backend/internal/stats"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// JoinGame enrolls a wallet in the civilization game
	// POST /api/v1/game/join/:wallet
	JoinGame(c *gin.Context)

	// GetGameUser retrieves the game user behind a wallet
	// GET /api/v1/game/user/:wallet
	GetGameUser(c *gin.Context)

	// BuildCave builds a cave on an owned segment
	// POST /api/v1/game/cave/:coordinates/build?position=<n>&wallet=<wallet>
	BuildCave(c *gin.Context)

	// ClaimOwnerTotal claims every owner reward of a wallet
	// GET /api/v1/game/claim/owner/total/:wallet
	ClaimOwnerTotal(c *gin.Context)

	// ClaimOwnerSegment claims the owner reward of one segment
	// GET /api/v1/game/claim/owner/:coordinates/:wallet
	ClaimOwnerSegment(c *gin.Context)

	// ClaimCitizenTotal claims every citizen reward of a wallet
	// GET /api/v1/game/claim/citizen/total/:wallet
	ClaimCitizenTotal(c *gin.Context)

	// ClaimCitizenCave claims the citizen rewards within one cave
	// GET /api/v1/game/claim/citizen/:caveId/:wallet
	ClaimCitizenCave(c *gin.Context)

	// GetGameSegments retrieves the wallet's holdings with accrual summaries
	// GET /api/v1/game/segments/:wallet
	GetGameSegments(c *gin.Context)

	// GetMap retrieves the shared map snapshot
	// GET /api/v1/game/map
	GetMap(c *gin.Context)

	// SyncWallet triggers the single-wallet resync
	// POST /api/v1/game/map/:wallet
	SyncWallet(c *gin.Context)

	// GetUserProfile retrieves the profile behind a wallet
	// GET /api/v1/user/:wallet
	GetUserProfile(c *gin.Context)

	// UpdateUserProfile overwrites the profile of a wallet
	// PUT /api/v1/user/:wallet
	UpdateUserProfile(c *gin.Context)

	// GetSegment retrieves one segment with its game state
	// GET /api/v1/segments/:coordinates
	GetSegment(c *gin.Context)

	// UpdateSegment overwrites the local metadata of an owned segment
	// PUT /api/v1/segments/:coordinates/:wallet
	UpdateSegment(c *gin.Context)

	// UploadSegmentImage stores a new image on an owned segment
	// POST /api/v1/segments/:coordinates/image/:wallet (multipart field "image")
	UploadSegmentImage(c *gin.Context)

	// ListMergedSegments retrieves every merged segment
	// GET /api/v1/segments-merged
	ListMergedSegments(c *gin.Context)

	// GetMergedSegment retrieves one merged segment
	// GET /api/v1/segments-merged/:id
	GetMergedSegment(c *gin.Context)

	// MergeSegments merges a rectangle of owned coordinates
	// POST /api/v1/segments-merged/:wallet
	MergeSegments(c *gin.Context)

	// UnmergeSegment dissolves a merged segment
	// DELETE /api/v1/segments-merged/:id/:wallet
	UnmergeSegment(c *gin.Context)

	// UploadMergedSegmentImage stores a new image on a merged segment
	// POST /api/v1/segments-merged/:wallet/image/:id (multipart field "image")
	UploadMergedSegmentImage(c *gin.Context)

	// GetPopulation retrieves the population classification of every owner
	// GET /api/v1/stats/population
	GetPopulation(c *gin.Context)

	// GetTopHolders retrieves the owners with the most segments
	// GET /api/v1/stats/top-holders?limit=<n>
	GetTopHolders(c *gin.Context)

	// GetPriceChanges retrieves the floor price with daily/weekly changes
	// GET /api/v1/stats/price-changes
	GetPriceChanges(c *gin.Context)

	// GetLandsForSale retrieves the current marketplace listings
	// GET /api/v1/stats/lands-for-sale
	GetLandsForSale(c *gin.Context)

	// GetRecentImages retrieves the latest image uploads
	// GET /api/v1/stats/recent-images?limit=<n>
	GetRecentImages(c *gin.Context)

	// GetLogs retrieves audit log entries
	// GET /api/v1/logs?wallet=<wallet>&limit=<n>&offset=<n>
	GetLogs(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	game          *game.Service
	merge         *merge.Service
	stats         *stats.Service
	profile       *profile.Service
	maxUploadSize int64
}

// NewHandler creates a new REST API handler
func NewHandler(gameSvc *game.Service, mergeSvc *merge.Service, statsSvc *stats.Service, profileSvc *profile.Service, maxUploadSize int64) Handler {
	return &handler{
		game:          gameSvc,
		merge:         mergeSvc,
		stats:         statsSvc,
		profile:       profileSvc,
		maxUploadSize: maxUploadSize,
	}
}

func (h *handler) JoinGame(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	civUser, err := h.game.JoinGame(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCivilizationUser(civUser))
}

func (h *handler) GetGameUser(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	civUser, err := h.game.GetUser(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromCivilizationUser(civUser))
}

func (h *handler) BuildCave(c *gin.Context) {
	coordinate := c.Param("coordinates")
	wallet := c.Query("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	position, err := strconv.Atoi(c.Query("position"))
	if err != nil {
		respondBadRequest(c, "Position must be a number")
		return
	}

	cave, err := h.game.BuildCave(c.Request.Context(), wallet, coordinate, position)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       cave.ID,
		"position": cave.Position,
	})
}

func (h *handler) ClaimOwnerTotal(c *gin.Context) {
	result, err := h.game.ClaimOwnerTotal(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) ClaimOwnerSegment(c *gin.Context) {
	result, err := h.game.ClaimOwnerSegment(c.Request.Context(), c.Param("wallet"), c.Param("coordinates"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) ClaimCitizenTotal(c *gin.Context) {
	result, err := h.game.ClaimCitizenTotal(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) ClaimCitizenCave(c *gin.Context) {
	caveID, err := strconv.ParseUint(c.Param("caveId"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Cave id must be a number")
		return
	}

	result, err := h.game.ClaimCitizenCave(c.Request.Context(), c.Param("wallet"), caveID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) GetGameSegments(c *gin.Context) {
	resp, err := h.game.ListSegments(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) GetMap(c *gin.Context) {
	entries, err := h.game.MapSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"map": entries})
}

func (h *handler) SyncWallet(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	if err := h.game.SyncWallet(c.Request.Context(), wallet); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": true})
}

func (h *handler) GetUserProfile(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	user, err := h.profile.Get(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// updateUserRequest is the profile update body
type updateUserRequest struct {
	Username    *string `json:"username"`
	Description *string `json:"description"`
	Socials     *struct {
		Twitter   *string `json:"twitter"`
		Discord   *string `json:"discord"`
		Instagram *string `json:"instagram"`
	} `json:"socials"`
}

func (h *handler) UpdateUserProfile(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	update := profile.Update{
		Username:    req.Username,
		Description: req.Description,
	}
	if req.Socials != nil {
		update.Socials = &profile.SocialsUpdate{
			Twitter:   req.Socials.Twitter,
			Discord:   req.Socials.Discord,
			Instagram: req.Socials.Instagram,
		}
	}

	user, err := h.profile.Set(c.Request.Context(), wallet, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *handler) GetSegment(c *gin.Context) {
	info, err := h.merge.GetSegment(c.Request.Context(), c.Param("coordinates"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSegmentInfo(*info.Segment, info.CaveCount))
}

// updateSegmentRequest is the segment metadata body
type updateSegmentRequest struct {
	Name    *string `json:"name"`
	SiteURL *string `json:"siteUrl"`
}

func (h *handler) UpdateSegment(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	var req updateSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	info, err := h.merge.UpdateSegment(c.Request.Context(), wallet, c.Param("coordinates"), merge.SegmentUpdate{
		Name:    req.Name,
		SiteURL: req.SiteURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSegmentInfo(*info.Segment, info.CaveCount))
}

func (h *handler) UploadSegmentImage(c *gin.Context) {
	data, ok := h.readImageUpload(c)
	if !ok {
		return
	}

	info, err := h.merge.UploadSegmentImage(c.Request.Context(), c.Param("wallet"), c.Param("coordinates"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSegmentInfo(*info.Segment, info.CaveCount))
}

func (h *handler) ListMergedSegments(c *gin.Context) {
	merged, err := h.merge.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMergedSegments(merged))
}

func (h *handler) GetMergedSegment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Merged segment id must be a number")
		return
	}

	merged, err := h.merge.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMergedSegment(merged))
}

// mergeRequest is the merge body
type mergeRequest struct {
	Coordinates []string `json:"coordinates" binding:"required"`
}

func (h *handler) MergeSegments(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		respondBadRequest(c, "Wallet is required")
		return
	}

	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	merged, err := h.merge.Merge(c.Request.Context(), wallet, req.Coordinates)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromMergedSegment(merged))
}

func (h *handler) UnmergeSegment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Merged segment id must be a number")
		return
	}

	if err := h.merge.Unmerge(c.Request.Context(), c.Param("wallet"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unmerged": true})
}

// readImageUpload pulls the multipart "image" field out of the request.
// It writes the error response itself when the upload is missing or oversized.
func (h *handler) readImageUpload(c *gin.Context) ([]byte, bool) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, domain.ErrNoImageProvided)
		return nil, false
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		respondBadRequest(c, "Image too large")
		return nil, false
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadSize+1))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return data, true
}

func (h *handler) UploadMergedSegmentImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Merged segment id must be a number")
		return
	}

	data, ok := h.readImageUpload(c)
	if !ok {
		return
	}

	merged, err := h.merge.UploadImage(c.Request.Context(), c.Param("wallet"), id, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromMergedSegment(merged))
}

func (h *handler) GetPopulation(c *gin.Context) {
	entries, err := h.stats.Population(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"population": entries})
}

func (h *handler) GetTopHolders(c *gin.Context) {
	entries, err := h.stats.TopHolders(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holders": entries})
}

func (h *handler) GetPriceChanges(c *gin.Context) {
	changes, err := h.stats.PriceChanges(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, changes)
}

func (h *handler) GetLandsForSale(c *gin.Context) {
	lands, err := h.stats.LandsForSale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lands": dto.FromLandsForSale(lands)})
}

func (h *handler) GetRecentImages(c *gin.Context) {
	logs, err := h.stats.RecentImages(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": dto.FromImageLogs(logs)})
}

func (h *handler) GetLogs(c *gin.Context) {
	logs, err := h.merge.Logs(c.Request.Context(),
		c.Query("wallet"),
		queryLimit(c),
		queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": dto.FromImageLogs(logs)})
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// queryInt parses a non-negative numeric query parameter
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func queryLimit(c *gin.Context) int {
	limit := queryInt(c, "limit", defaultListLimit)
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
