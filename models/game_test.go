package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiddleMatches(t *testing.T) {
	r := Riddle{Question: "q", Answer: "ECHO"}

	assert.True(t, r.Matches("ECHO"))
	assert.True(t, r.Matches("echo"))
	assert.True(t, r.Matches("  Echo  "))
	assert.False(t, r.Matches("echoes"))
	assert.False(t, r.Matches(""))
}

func TestMemoryQuizMatchesAnswer(t *testing.T) {
	q := MemoryQuiz{Answer: "red"}

	assert.True(t, q.MatchesAnswer("red"))
	assert.True(t, q.MatchesAnswer(" RED "))
	assert.False(t, q.MatchesAnswer("blue"))
}

func TestChallengeResultWonRound(t *testing.T) {
	assert.True(t, ChallengeResult{Won: true}.WonRound())
	assert.True(t, ChallengeResult{Passed: true}.WonRound())
	assert.False(t, ChallengeResult{Correct: true}.WonRound())
	assert.False(t, ChallengeResult{}.WonRound())
}

func TestGameRecordPlacementOf(t *testing.T) {
	rec := GameRecord{
		Players: []GameRecordPlayer{
			{PlayerName: "alice", Placement: 1},
			{PlayerName: "bob", Placement: 2},
		},
	}

	assert.Equal(t, 1, rec.PlacementOf("alice"))
	assert.Equal(t, 2, rec.PlacementOf("bob"))
	assert.Equal(t, 0, rec.PlacementOf("carol"))
}
