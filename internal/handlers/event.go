// internal/handlers/event.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

const archiveURLExpiry = 15 * time.Minute

type EventHandler struct {
	eventService   *services.EventService
	storageService *services.StorageService
}

func NewEventHandler(eventService *services.EventService, storageService *services.StorageService) *EventHandler {
	return &EventHandler{
		eventService:   eventService,
		storageService: storageService,
	}
}

// GET /events
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := services.EventFilter{
		PaginationParams: utils.GetPaginationParams(c),
		AfterSeq:         queryUint(c, "after_seq"),
		AssetID:          queryUint(c, "asset_id"),
		LicenseID:        queryUint(c, "license_id"),
		Type:             models.EventType(c.Query("type")),
	}

	events, total, err := h.eventService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(events, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /events/:seq/archive
func (h *EventHandler) GetArchiveURL(c *gin.Context) {
	seq, ok := parseID(c, "seq")
	if !ok {
		return
	}
	if h.storageService == nil || !h.storageService.Enabled() {
		utils.NotFoundResponse(c, "")
		return
	}

	url, err := h.storageService.GeneratePresignedURL(seq, archiveURLExpiry)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"seq":        seq,
		"url":        url,
		"expires_in": int(archiveURLExpiry.Seconds()),
	})
}

func queryUint(c *gin.Context, name string) uint64 {
	value, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
