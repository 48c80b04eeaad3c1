// models/game.go - Runtime game types shared between the orchestrator and the transport
package models

import (
	"strings"
	"time"
)

// Riddle is one entry from the riddle bank.
type Riddle struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// Matches reports whether a submitted answer solves the riddle.
// Comparison is trimmed and case-insensitive.
func (r Riddle) Matches(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(r.Answer))
}

// TriviaQuestion is one entry from the trivia bank.
type TriviaQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Difficulty    string   `json:"difficulty"`
}

// MultipleChoice is a question rendered as options plus one correct index.
// Used by the detective challenge (riddle bank entries with synthesized decoys)
// and as the wire form of trivia questions.
type MultipleChoice struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Balloon is one labeled item in the memory challenge: a number 1-20,
// unique within its set, paired with a color.
type Balloon struct {
	Number int    `json:"number"`
	Color  string `json:"color"`
}

// MemoryQuiz is a generated memory challenge: the balloons shown to players,
// one question about them, and the precomputed answer.
type MemoryQuiz struct {
	Balloons []Balloon `json:"balloons"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
}

// MatchesAnswer reports whether a free-text answer is correct.
// Exact string match, trimmed and case-insensitive.
func (m MemoryQuiz) MatchesAnswer(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(m.Answer))
}

// RiddleSubmission is one player's riddle answer, timestamped at server receipt.
type RiddleSubmission struct {
	Answer     string    `json:"answer"`
	PlayerName string    `json:"playerName"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChallengeResult is one participant's outcome in a challenge phase. Fields
// are sparse: each challenge variant fills only the ones that apply.
type ChallengeResult struct {
	PlayerName     string `json:"playerName"`
	Response       string `json:"response,omitempty"`
	SelectedOption string `json:"selectedOption,omitempty"`
	Answer         int    `json:"answer,omitempty"`
	Taps           int    `json:"taps,omitempty"`
	Correct        bool   `json:"correct,omitempty"`
	Passed         bool   `json:"passed,omitempty"`
	Won            bool   `json:"won"`
	Feedback       string `json:"feedback,omitempty"`
}

// WonRound reports whether this result counts as a round win for the
// round-history ledger (challenge pass or outright win).
func (c ChallengeResult) WonRound() bool {
	return c.Won || c.Passed
}

// PlayerHistory is the durable win/loss ledger for one player across the
// whole session. Rounds holds "W" or "L", one entry per completed round the
// player was active for.
type PlayerHistory struct {
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Rounds     []string `json:"rounds"`
}

// PlayerView is the broadcast-safe projection of a player.
type PlayerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	IsSpectator bool   `json:"isSpectator"`
}
