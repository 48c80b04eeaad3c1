// models/record.go - Persistence models for completed games
package models

import (
	"time"
)

// GameRecord is the stored summary of one finished game session.
type GameRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SessionID   string    `json:"session_id" gorm:"uniqueIndex;not null;size:100"`
	RoomCode    string    `json:"room_code" gorm:"index;not null;size:20"`
	Rounds      int       `json:"rounds" gorm:"default:5"`
	PlayerCount int       `json:"player_count" gorm:"default:0"`
	WinnerName  string    `json:"winner_name" gorm:"size:100"`
	Tied        bool      `json:"tied" gorm:"default:false"`
	CompletedAt time.Time `json:"completed_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Players []GameRecordPlayer `json:"players,omitempty" gorm:"-"`
}

// GameRecordPlayer is one player's final standing within a stored game.
type GameRecordPlayer struct {
	ID       uint        `json:"id" gorm:"primaryKey"`
	RecordID uint        `json:"record_id" gorm:"not null;index"`
	Record   *GameRecord `json:"record,omitempty" gorm:"-"`

	PlayerID   string `json:"player_id" gorm:"index;size:100"`
	PlayerName string `json:"player_name" gorm:"size:100"`
	FinalScore int    `json:"final_score" gorm:"default:0"`
	Placement  int    `json:"placement" gorm:"default:0"`
	Won        bool   `json:"won" gorm:"default:false"`
	// Rounds is the player's W/L ledger joined into a string, e.g. "WLLWW".
	RoundsPlayed string `json:"rounds_played" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GameRecord) TableName() string {
	return "game_records"
}

func (GameRecordPlayer) TableName() string {
	return "game_record_players"
}

// Duration-style helpers kept minimal; records are written once at game-over.

// PlacementOf returns the stored placement for a player name, 0 if absent.
func (g *GameRecord) PlacementOf(name string) int {
	for _, p := range g.Players {
		if p.PlayerName == name {
			return p.Placement
		}
	}
	return 0
}
