package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"aioracle/database"
	"aioracle/models"
)

// CleanupService handles background maintenance: sweeping abandoned lobbies
// and pruning old game records.
type CleanupService struct {
	game    *GameService
	maxIdle time.Duration
	every   time.Duration
	stop    chan struct{}
}

var cleanupService *CleanupService

// InitCleanupService initializes the singleton cleanup service.
func InitCleanupService(game *GameService) {
	maxIdle := time.Duration(getEnvIntCleanup("ROOM_MAX_IDLE_MINUTES", 30)) * time.Minute
	every := time.Duration(getEnvIntCleanup("CLEANUP_INTERVAL_MINUTES", 5)) * time.Minute
	cleanupService = &CleanupService{
		game:    game,
		maxIdle: maxIdle,
		every:   every,
		stop:    make(chan struct{}),
	}
}

// GetCleanupService returns the initialized cleanup service.
func GetCleanupService() *CleanupService {
	return cleanupService
}

// Start runs the sweep loop until Stop is called.
func (s *CleanupService) Start() {
	go func() {
		ticker := time.NewTicker(s.every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := s.game.CleanupIdleRooms(s.maxIdle); removed > 0 {
					log.Printf("🧹 Cleanup removed %d idle rooms", removed)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop stops the sweep loop.
func (s *CleanupService) Stop() {
	close(s.stop)
}

// CleanupOldRecords deletes persisted game records older than the retention
// window. A no-op without a configured database.
func (s *CleanupService) CleanupOldRecords(retention time.Duration) error {
	db := database.GetDB()
	if db == nil {
		return nil
	}

	cutoff := time.Now().Add(-retention)

	var stale []models.GameRecord
	if err := db.Where("completed_at < ?", cutoff).Find(&stale).Error; err != nil {
		log.Printf("Error finding stale game records: %v", err)
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	ids := make([]uint, len(stale))
	for i, rec := range stale {
		ids[i] = rec.ID
	}
	if err := db.Where("record_id IN ?", ids).Delete(&models.GameRecordPlayer{}).Error; err != nil {
		log.Printf("Error deleting stale game record players: %v", err)
		return err
	}
	if err := db.Delete(&stale).Error; err != nil {
		log.Printf("Error deleting stale game records: %v", err)
		return err
	}

	log.Printf("✅ Cleaned up %d game records older than %s", len(stale), retention)
	return nil
}

func getEnvIntCleanup(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return def
}
