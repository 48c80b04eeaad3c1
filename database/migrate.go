// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"aioracle/models"
)

// RunMigrations runs all database migrations.
func RunMigrations() {
	db := GetDB()
	if db == nil {
		return
	}
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.GameRecord{},
		&models.GameRecordPlayer{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ All migrations completed successfully")
}

func createIndexes() {
	db := GetDB()

	db.Exec("CREATE INDEX IF NOT EXISTS idx_game_records_room ON game_records(room_code)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_game_records_completed ON game_records(completed_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_game_record_players_record ON game_record_players(record_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_game_record_players_name ON game_record_players(player_name)")
}
