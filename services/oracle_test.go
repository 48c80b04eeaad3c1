package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineOracle has no API key, so every call resolves locally.
func offlineOracle() *OracleService {
	return &OracleService{}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello world", sanitize(`"hello   world"`, 100))
	assert.Equal(t, "line one line two", sanitize("line one\nline two", 100))

	long := strings.Repeat("a", 50)
	out := sanitize(long, 20)
	assert.Len(t, out, 20)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestFallbackChallengePrefersUnseen(t *testing.T) {
	used := NewUsedSet()
	pool := fallbackChallenges[KindDanger]

	seen := make(map[string]bool)
	for i := 0; i < len(pool); i++ {
		content := FallbackChallenge(KindDanger, used)
		assert.False(t, seen[content], "fallback repeated before pool exhaustion")
		seen[content] = true
	}
	assert.Len(t, seen, len(pool))

	// Exhausted pool resets rather than failing.
	assert.NotEmpty(t, FallbackChallenge(KindDanger, used))
}

func TestGenerateChallengeWithoutKeyUsesFallback(t *testing.T) {
	oracle := offlineOracle()
	content := oracle.GenerateChallenge(context.Background(), KindNegotiator, 1, NewUsedSet())

	assert.Contains(t, fallbackChallenges[KindNegotiator], content)
}

func TestEvaluateResponseEmptyFails(t *testing.T) {
	oracle := offlineOracle()

	verdict := oracle.EvaluateResponse(context.Background(), "challenge", "", KindDanger)
	assert.False(t, verdict.Pass)
	assert.Contains(t, verdict.Feedback, "No response")

	// An auto-submit prefix with nothing behind it is still empty.
	verdict = oracle.EvaluateResponse(context.Background(), "challenge", autoSubmitPrefix, KindDanger)
	assert.False(t, verdict.Pass)
}

func TestEvaluateResponseLengthHeuristic(t *testing.T) {
	oracle := offlineOracle()

	short := oracle.EvaluateResponse(context.Background(), "challenge", "run away", KindDanger)
	assert.False(t, short.Pass)

	long := oracle.EvaluateResponse(context.Background(), "challenge",
		"I reprogram the maintenance drone to open the vents and crawl out through the cooling shaft", KindDanger)
	assert.True(t, long.Pass)
	assert.NotEmpty(t, long.Feedback)
}

func TestEvaluateResponseAutoSubmitMarksFeedback(t *testing.T) {
	oracle := offlineOracle()

	verdict := oracle.EvaluateResponse(context.Background(), "challenge",
		autoSubmitPrefix+"I bribe the parrot with an endless supply of fancy crackers and a mirror", KindNegotiator)
	require.True(t, verdict.Pass)
	assert.True(t, strings.HasPrefix(verdict.Feedback, "⏰"))
}

func TestHasLazyShortcut(t *testing.T) {
	assert.True(t, hasLazyShortcut("I just shoot the lock"))
	assert.True(t, hasLazyShortcut("teleport out of there"))
	assert.True(t, hasLazyShortcut("call 911 and wait"))
	assert.False(t, hasLazyShortcut("I barter my sandwich for the keys"))
}
