package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aioracle/models"
)

func testContestants(names ...string) []*Player {
	players := make([]*Player, 0, len(names))
	for _, name := range names {
		players = append(players, &Player{ID: "id-" + name, Name: name, client: newFakeClient("id-" + name)})
	}
	return players
}

func silentEnv() ChallengeEnv {
	return ChallengeEnv{
		Oracle:    offlineOracle(),
		Timing:    testTiming(),
		Broadcast: func(string, any) {},
		SendTo:    func(string, string, any) {},
	}
}

func resultFor(t *testing.T, results []models.ChallengeResult, name string) models.ChallengeResult {
	t.Helper()
	for _, r := range results {
		if r.PlayerName == name {
			return r
		}
	}
	t.Fatalf("no result for %s", name)
	return models.ChallengeResult{}
}

func TestTapChallengeHighestWinsAndTiesShare(t *testing.T) {
	ch := NewTapChallenge(testContestants("alice", "bob", "carol"))

	require.True(t, ch.Accept("id-alice", "alice", Submission{Taps: 40}))
	require.True(t, ch.Accept("id-bob", "bob", Submission{Taps: 55}))
	require.False(t, ch.Accept("id-bob", "bob", Submission{Taps: 99}), "write-once")
	require.False(t, ch.Complete())
	require.True(t, ch.Accept("id-carol", "carol", Submission{Taps: 55}))
	require.True(t, ch.Complete())

	results := ch.Evaluate(context.Background(), silentEnv())
	require.Len(t, results, 3)

	assert.False(t, resultFor(t, results, "alice").Won)
	assert.True(t, resultFor(t, results, "bob").Won)
	assert.True(t, resultFor(t, results, "carol").Won)
	// Sorted by taps descending.
	assert.Equal(t, 55, results[0].Taps)
	assert.Equal(t, 40, results[2].Taps)
}

func TestTapChallengeZeroTapsWinNothing(t *testing.T) {
	ch := NewTapChallenge(testContestants("alice", "bob"))
	ch.SynthesizeLoss("id-alice", "alice")
	ch.SynthesizeLoss("id-bob", "bob")
	require.True(t, ch.Complete())

	results := ch.Evaluate(context.Background(), silentEnv())
	for _, r := range results {
		assert.False(t, r.Won)
	}
}

func TestMultipleChoiceEarliestCorrectWins(t *testing.T) {
	q := models.MultipleChoice{
		Question:     "pick",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 2,
	}
	ch := NewDetectiveChallenge(q, testContestants("alice", "bob", "carol")).(*multipleChoiceChallenge)

	base := time.Now()
	ch.answers["id-alice"] = &choiceAnswer{Option: 2, At: base.Add(3 * time.Second)}
	ch.answers["id-bob"] = &choiceAnswer{Option: 2, At: base.Add(1 * time.Second)}
	ch.answers["id-carol"] = &choiceAnswer{Option: 0, At: base}
	ch.order = []string{"id-alice", "id-bob", "id-carol"}

	results := ch.Evaluate(context.Background(), silentEnv())
	require.Len(t, results, 3)

	assert.False(t, resultFor(t, results, "alice").Won, "correct but later")
	assert.True(t, resultFor(t, results, "bob").Won, "earliest correct")
	assert.False(t, resultFor(t, results, "carol").Won)
	assert.True(t, resultFor(t, results, "alice").Correct)
	assert.False(t, resultFor(t, results, "carol").Correct)
	assert.Equal(t, "c", resultFor(t, results, "bob").SelectedOption)
	// Results ordered by submission time.
	assert.Equal(t, "carol", results[0].PlayerName)
}

func TestMultipleChoiceEqualTimestampsShareWin(t *testing.T) {
	ch := NewTriviaChallenge(models.TriviaQuestion{
		Question: "pick", Options: []string{"a", "b"}, CorrectAnswer: 0,
	}, testContestants("alice", "bob")).(*multipleChoiceChallenge)

	at := time.Now()
	ch.answers["id-alice"] = &choiceAnswer{Option: 0, At: at}
	ch.answers["id-bob"] = &choiceAnswer{Option: 0, At: at}
	ch.order = []string{"id-alice", "id-bob"}

	results := ch.Evaluate(context.Background(), silentEnv())
	assert.True(t, resultFor(t, results, "alice").Won)
	assert.True(t, resultFor(t, results, "bob").Won)
}

func TestMultipleChoiceSynthesizedLossNeverCorrect(t *testing.T) {
	ch := NewDetectiveChallenge(models.MultipleChoice{
		Question: "pick", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0,
	}, testContestants("alice"))

	ch.SynthesizeLoss("id-alice", "alice")
	require.True(t, ch.Complete())

	results := ch.Evaluate(context.Background(), silentEnv())
	require.Len(t, results, 1)
	assert.False(t, results[0].Correct)
	assert.False(t, results[0].Won)
	assert.Empty(t, results[0].SelectedOption)
}

func TestMemoryChallengeAllCorrectWin(t *testing.T) {
	quiz := models.MemoryQuiz{
		Balloons: []models.Balloon{{Number: 3, Color: "red"}},
		Question: "What color was the balloon with number 3?",
		Answer:   "red",
	}
	ch := NewMemoryChallenge(quiz, testContestants("alice", "bob", "carol"))

	require.True(t, ch.Accept("id-alice", "alice", Submission{Text: "RED"}))
	require.True(t, ch.Accept("id-bob", "bob", Submission{Text: "blue"}))
	require.True(t, ch.Accept("id-carol", "carol", Submission{Text: " red "}))
	require.True(t, ch.Complete())

	results := ch.Evaluate(context.Background(), silentEnv())
	assert.True(t, resultFor(t, results, "alice").Won)
	assert.False(t, resultFor(t, results, "bob").Won)
	assert.True(t, resultFor(t, results, "carol").Won)
}

func TestFreeTextChallengeEvaluatesEveryParticipant(t *testing.T) {
	ch := NewFreeTextChallenge(KindDanger, "escape the locked lab", testContestants("alice", "bob"))

	require.True(t, ch.Accept("id-alice", "alice", Submission{
		Text: "I reroute the ventilation system and climb through the maintenance shaft to the roof",
	}))
	// bob never submits; sealing leaves him with an empty response to judge.
	ch.Seal()

	unicast := make(map[string]int)
	env := silentEnv()
	env.SendTo = func(playerID, event string, payload any) {
		if event == "challenge-individual-result" {
			unicast[playerID]++
		}
	}

	results := ch.Evaluate(context.Background(), env)
	require.Len(t, results, 2)

	assert.True(t, resultFor(t, results, "alice").Passed)
	assert.NotEmpty(t, resultFor(t, results, "alice").Feedback)
	assert.False(t, resultFor(t, results, "bob").Passed)

	assert.Equal(t, 1, unicast["id-alice"])
	assert.Equal(t, 1, unicast["id-bob"])
}

func TestSealFreezesSubmissions(t *testing.T) {
	ch := NewTapChallenge(testContestants("alice", "bob"))
	require.True(t, ch.Accept("id-alice", "alice", Submission{Taps: 25}))

	ch.Seal()

	// Late submissions and disconnect synthesis are ignored once sealed.
	assert.False(t, ch.Accept("id-bob", "bob", Submission{Taps: 99}))
	ch.SynthesizeLoss("id-bob", "bob")
	assert.True(t, ch.Complete())

	results := ch.Evaluate(context.Background(), silentEnv())
	require.Len(t, results, 2)
	assert.True(t, resultFor(t, results, "alice").Won)
	assert.Equal(t, 0, resultFor(t, results, "bob").Taps)
	assert.False(t, resultFor(t, results, "bob").Won)
}

func TestSealFillsMissingChoiceAnswers(t *testing.T) {
	ch := NewDetectiveChallenge(models.MultipleChoice{
		Question: "pick", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1,
	}, testContestants("alice", "bob"))

	require.True(t, ch.Accept("id-alice", "alice", Submission{Option: 1}))
	ch.Seal()
	assert.False(t, ch.Accept("id-bob", "bob", Submission{Option: 1}))

	results := ch.Evaluate(context.Background(), silentEnv())
	require.Len(t, results, 2)
	assert.True(t, resultFor(t, results, "alice").Won)
	bob := resultFor(t, results, "bob")
	assert.False(t, bob.Correct)
	assert.Empty(t, bob.SelectedOption)
}

func TestFreeTextStartEventCarriesFlavor(t *testing.T) {
	ch := NewFreeTextChallenge(KindNegotiator, "convince the cat", testContestants("alice"))

	event, payload := ch.StartEvent()
	assert.Equal(t, "text-challenge-start", event)
	assert.Equal(t, KindNegotiator, payload["challengeType"])
	assert.Equal(t, "convince the cat", payload["challenge"])
	assert.Equal(t, []string{"alice"}, payload["participants"])
}

func TestChallengeCountdowns(t *testing.T) {
	tm := DefaultTiming()
	players := testContestants("alice")

	neg := NewFreeTextChallenge(KindNegotiator, "x", players)
	dan := NewFreeTextChallenge(KindDanger, "x", players)
	assert.Equal(t, 50*time.Second, neg.Countdown(tm))
	assert.Equal(t, 45*time.Second, dan.Countdown(tm))

	tap := NewTapChallenge(players)
	assert.Equal(t, 12*time.Second, tap.Countdown(tm))

	mem := NewMemoryChallenge(models.MemoryQuiz{}, players)
	assert.Equal(t, 30*time.Second, mem.Countdown(tm))
}
