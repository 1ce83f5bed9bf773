package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkarpis/channelsync/internal/connector"
	"github.com/mkarpis/channelsync/internal/domain"
	"github.com/mkarpis/channelsync/internal/repository"
)

// ChannelHandler handles sales channel endpoints.
type ChannelHandler struct {
	channels *repository.ChannelRepository
	registry *connector.Registry
}

// NewChannelHandler creates a new channel handler.
// Parameters:
//   - channels: channel repository.
//   - registry: connector registry used to validate the channel type.
// Returns:
//   - *ChannelHandler: initialized handler.
func NewChannelHandler(channels *repository.ChannelRepository, registry *connector.Registry) *ChannelHandler {
	return &ChannelHandler{channels: channels, registry: registry}
}

// CreateChannelRequest represents the channel creation API request.
type CreateChannelRequest struct {
	Type      string `json:"type" binding:"required"`
	Name      string `json:"name" binding:"required"`
	StoreURL  string `json:"store_url" binding:"required,url"`
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret"`
	IsEnabled *bool  `json:"is_enabled"`
}

// CreateChannel handles POST /api/v1/channels.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	channelType := domain.ChannelType(req.Type)
	if !h.registry.Has(channelType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported channel type: " + req.Type})
		return
	}

	channel := &domain.SalesChannel{
		ID:        uuid.New().String(),
		Type:      channelType,
		Name:      req.Name,
		StoreURL:  req.StoreURL,
		APIKey:    req.APIKey,
		APISecret: req.APISecret,
		IsEnabled: true,
	}
	if req.IsEnabled != nil {
		channel.IsEnabled = *req.IsEnabled
	}

	if err := h.channels.Create(c.Request.Context(), channel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create channel: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, channel)
}

// ListChannels handles GET /api/v1/channels.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.channels.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list channels: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}
