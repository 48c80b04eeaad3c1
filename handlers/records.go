// handlers/records.go - Read API over persisted game records
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"aioracle/database"
	"aioracle/models"
)

// GetRecentGames returns the most recently completed games. Without a
// configured database the list is always empty rather than an error.
func GetRecentGames(c *fiber.Ctx) error {
	db := database.GetDB()
	if db == nil {
		return c.JSON(fiber.Map{
			"success":     true,
			"persistence": false,
			"games":       []models.GameRecord{},
		})
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []models.GameRecord
	if err := db.Order("completed_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load game records",
		})
	}

	for i := range records {
		var players []models.GameRecordPlayer
		if err := db.Where("record_id = ?", records[i].ID).
			Order("placement ASC").Find(&players).Error; err == nil {
			records[i].Players = players
		}
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"persistence": true,
		"games":       records,
	})
}

// GetPlayerStats aggregates a player's record across all stored games,
// matched by display name.
func GetPlayerStats(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "Player name is required",
		})
	}

	db := database.GetDB()
	if db == nil {
		return c.JSON(fiber.Map{
			"success":     true,
			"persistence": false,
			"stats":       fiber.Map{"games": 0, "wins": 0, "totalScore": 0},
		})
	}

	var rows []models.GameRecordPlayer
	if err := db.Where("player_name = ?", name).Find(&rows).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load player stats",
		})
	}

	wins := 0
	totalScore := 0
	for _, row := range rows {
		if row.Won {
			wins++
		}
		totalScore += row.FinalScore
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"persistence": true,
		"stats": fiber.Map{
			"player":     name,
			"games":      len(rows),
			"wins":       wins,
			"totalScore": totalScore,
		},
	})
}
