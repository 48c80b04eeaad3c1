// handlers/debug.go - Debug endpoints for troubleshooting live games
package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// GetActiveRooms returns a list of all active rooms.
func GetActiveRooms(c *fiber.Ctx) error {
	rooms := game.Snapshot()
	return c.JSON(fiber.Map{
		"success":     true,
		"total_rooms": len(rooms),
		"rooms":       rooms,
		"connections": ActiveConnections(),
		"timestamp":   time.Now(),
	})
}

// GetRoomByCode returns detailed information about a specific room.
func GetRoomByCode(c *fiber.Ctx) error {
	roomCode := strings.ToUpper(c.Params("code"))
	if roomCode == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "Room code is required",
		})
	}

	rooms := game.Snapshot()
	for _, room := range rooms {
		if room.Code == roomCode {
			return c.JSON(fiber.Map{
				"success": true,
				"room":    room,
			})
		}
	}

	activeCodes := make([]string, 0, len(rooms))
	for _, room := range rooms {
		activeCodes = append(activeCodes, room.Code)
	}
	return c.Status(404).JSON(fiber.Map{
		"success":      false,
		"error":        "Room not found",
		"room_code":    roomCode,
		"active_rooms": activeCodes,
		"total_active": len(activeCodes),
	})
}
