package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/proto"
)

// PublishHandlers exposes the publish bridge to trusted HTTP callers.
type PublishHandlers struct {
	publisher *core.Publisher
	log       *zerolog.Logger
}

// NewPublishHandlers creates a new publish handlers instance.
func NewPublishHandlers(publisher *core.Publisher, logger *zerolog.Logger) *PublishHandlers {
	return &PublishHandlers{
		publisher: publisher,
		log:       logger,
	}
}

// Publish pushes an event into a channel.
// POST /apps/:appId/events
func (h *PublishHandlers) Publish(c *gin.Context) {
	appID := c.GetString(ContextKeyAppID)

	var req proto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid publish request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	data := req.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	delivered, err := h.publisher.Publish(appID, req.Channel, req.Event, data, req.SocketID)
	if err != nil {
		if errors.Is(err, core.ErrAppNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "app not found", Code: core.ErrCodeAppNotFound})
			return
		}
		h.log.Error().Err(err).Str("app_id", appID).Msg("failed to publish")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, proto.PublishResponse{Delivered: delivered})
}
