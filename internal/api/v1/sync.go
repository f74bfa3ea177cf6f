package v1

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invora/invora/internal/api/dto"
	syncdomain "github.com/invora/invora/internal/domain/sync"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/pubsub"
	"github.com/invora/invora/internal/service"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

const (
	defaultChangeWait = 30 * time.Second
	maxChangeWait     = 120 * time.Second
)

type SyncHandler struct {
	service    service.SyncService
	subscriber pubsub.Subscriber
	log        *logger.Logger
}

func NewSyncHandler(
	service service.SyncService,
	subscriber pubsub.Subscriber,
	log *logger.Logger,
) *SyncHandler {
	return &SyncHandler{
		service:    service,
		subscriber: subscriber,
		log:        log,
	}
}

// @Summary Enqueue a sync batch
// @Description Enqueue a batch of offline mutations recorded by a device.
// @Description Re-sent batches are deduplicated on (device_id, sequence).
// @Tags Sync
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-Device-ID header string true "Device ID"
// @Param batch body dto.EnqueueSyncBatchRequest true "Batch"
// @Success 202 {object} dto.EnqueueSyncBatchResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /sync/batch [post]
func (h *SyncHandler) EnqueueBatch(c *gin.Context) {
	var req dto.EnqueueSyncBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	deviceID := types.GetDeviceID(c.Request.Context())
	resp, err := h.service.EnqueueBatch(c.Request.Context(), deviceID, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// @Summary Get sync status
// @Description Get the calling device's queue counters
// @Tags Sync
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-Device-ID header string true "Device ID"
// @Success 200 {object} dto.SyncStatusResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /sync/status [get]
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	deviceID := types.GetDeviceID(c.Request.Context())

	resp, err := h.service.GetSyncStatus(c.Request.Context(), deviceID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get sync operations
// @Description Get queued operations with their replay outcomes
// @Tags Sync
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param filter query types.SyncOperationFilter false "Filter"
// @Success 200 {object} dto.ListSyncOperationsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /sync/operations [get]
func (h *SyncHandler) GetSyncOperations(c *gin.Context) {
	var filter types.SyncOperationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.IsUnlimited() {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	resp, err := h.service.ListOperations(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Long poll for changes
// @Description Block until another device's mutation is applied for this
// @Description tenant, or until the wait window elapses. The caller's own
// @Description changes are filtered out by device ID.
// @Tags Sync
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-Device-ID header string true "Device ID"
// @Param wait query int false "Max seconds to wait" default(30)
// @Param since query string false "RFC3339 cursor, returns changes applied after it before waiting"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /sync/changes [get]
func (h *SyncHandler) GetChanges(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := types.GetTenantID(ctx)
	deviceID := types.GetDeviceID(ctx)

	// a cursor catches the device up on changes applied while it was not
	// polling, before opening the live window
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.Error(ierr.WithError(err).
				WithHint("since must be an RFC3339 timestamp").
				Mark(ierr.ErrValidation))
			return
		}

		missed, err := h.service.ListChangesSince(ctx, deviceID, since)
		if err != nil {
			c.Error(err)
			return
		}
		if len(missed) > 0 {
			c.JSON(http.StatusOK, gin.H{"changes": missed})
			return
		}
	}

	wait := defaultChangeWait
	if raw := c.Query("wait"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			c.Error(ierr.NewError("invalid wait parameter").
				WithHint("wait must be a non negative number of seconds").
				Mark(ierr.ErrValidation))
			return
		}
		wait = time.Duration(secs) * time.Second
		if wait > maxChangeWait {
			wait = maxChangeWait
		}
	}

	messages, err := h.subscriber.Subscribe(ctx, types.SyncChangesTopic)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Unable to open the change stream").
			Mark(ierr.ErrSystem))
		return
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	changes := make([]syncdomain.ChangeEvent, 0)
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				c.JSON(http.StatusOK, gin.H{"changes": changes})
				return
			}
			msg.Ack()

			var event syncdomain.ChangeEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				h.log.Warnw("dropping malformed change event", "error", err)
				continue
			}
			if event.TenantID != tenantID || event.SourceDeviceID == deviceID {
				continue
			}
			changes = append(changes, event)

			// first relevant change ends the poll, drain is the client's job
			c.JSON(http.StatusOK, gin.H{"changes": changes})
			return
		case <-timer.C:
			c.JSON(http.StatusOK, gin.H{"changes": changes})
			return
		case <-ctx.Done():
			return
		}
	}
}
