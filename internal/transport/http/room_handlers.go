package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RoomHandlers provides HTTP handlers for chatroom endpoints.
type RoomHandlers struct {
	rooms *Rooms
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(rooms *Rooms, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: rooms,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=64"`
	Description string `json:"description" binding:"max=256"`
}

// CreateRoom handles room creation.
// POST /api/chatrooms/create
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	room := h.rooms.Create(req.Name, req.Description, caller.UserID)

	h.log.Info().Str("room_name", room.Name).Str("room_id", room.ID).Str("creator", caller.Username).Msg("room created successfully")
	c.JSON(http.StatusCreated, room.Info())
}

// ListRooms lists every public room.
// GET /api/chatrooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.rooms.List()
	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed successfully")
	c.JSON(http.StatusOK, rooms)
}

// ListMyRooms lists rooms created by the caller.
// GET /api/chatrooms/my
func (h *RoomHandlers) ListMyRooms(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	rooms := h.rooms.ListByCreator(caller.UserID)
	h.log.Debug().Str("user_id", caller.UserID).Int("room_count", len(rooms)).Msg("user rooms listed successfully")
	c.JSON(http.StatusOK, rooms)
}
