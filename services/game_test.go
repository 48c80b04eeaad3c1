package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aioracle/models"
)

// fakeClient records every event it is sent. It stands in for a WebSocket
// session; payloads stay native Go values since nothing is marshaled.
type fakeClient struct {
	id     string
	mu     sync.Mutex
	events []fakeEvent
}

type fakeEvent struct {
	Type    string
	Payload any
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (f *fakeClient) SessionID() string { return f.id }

func (f *fakeClient) Send(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{Type: event, Payload: payload})
}

func (f *fakeClient) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Type == event {
			n++
		}
	}
	return n
}

func (f *fakeClient) last(event string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Type == event {
			return f.events[i].Payload, true
		}
	}
	return nil, false
}

// testTiming compresses every delay so a full game runs in well under a
// second.
func testTiming() Timing {
	return Timing{
		IntroDelay:          5 * time.Millisecond,
		RiddleCountdown:     80 * time.Millisecond,
		RevealDelay:         5 * time.Millisecond,
		ChallengeIntroDelay: 2 * time.Millisecond,
		ResultsDelay:        5 * time.Millisecond,
		RoundGap:            15 * time.Millisecond,

		TapDuration:         40 * time.Millisecond,
		TapGrace:            10 * time.Millisecond,
		ChoiceCountdown:     40 * time.Millisecond,
		ChoiceGrace:         10 * time.Millisecond,
		NegotiatorCountdown: 40 * time.Millisecond,
		DangerCountdown:     40 * time.Millisecond,
		FreeTextGrace:       10 * time.Millisecond,
		MemoryDisplay:       5 * time.Millisecond,
		MemoryAnswer:        30 * time.Millisecond,
		MemoryGrace:         10 * time.Millisecond,

		EvalPacing:    time.Millisecond,
		PostEvalDelay: 2 * time.Millisecond,
		OracleTimeout: 50 * time.Millisecond,
	}
}

func newTestGame() *GameService {
	return NewGameService(NewRegistry(), NewContentService(), offlineOracle(), testTiming())
}

// setupRoom creates a room with the given player names; the first one owns it.
func setupRoom(t *testing.T, g *GameService, names ...string) (*Room, string, []*fakeClient) {
	t.Helper()
	clients := make([]*fakeClient, 0, len(names))

	owner := newFakeClient("c0")
	code := g.CreateRoom(owner, names[0])
	require.NotEmpty(t, code)
	clients = append(clients, owner)

	for i, name := range names[1:] {
		c := newFakeClient(fmt.Sprintf("c%d", i+1))
		require.NotEmpty(t, g.JoinRoom(c, code, name))
		clients = append(clients, c)
	}

	room, ok := g.Registry().Get(code)
	require.True(t, ok)
	return room, code, clients
}

// forceChallengeOrder pins every challenge slot to one type so tests are
// deterministic.
func forceChallengeOrder(room *Room, ctype string) {
	room.mu.Lock()
	for i := range room.ShuffledChallengeTypes {
		room.ShuffledChallengeTypes[i] = ctype
	}
	room.mu.Unlock()
}

func setMaxRounds(room *Room, n int) {
	room.mu.Lock()
	room.MaxRounds = n
	room.mu.Unlock()
}

func currentRiddleAnswer(room *Room) string {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.CurrentRiddle.Answer
}

func waitFor(t *testing.T, c *fakeClient, event string) map[string]any {
	t.Helper()
	var payload any
	require.Eventually(t, func() bool {
		p, ok := c.last(event)
		payload = p
		return ok
	}, 2*time.Second, 2*time.Millisecond, "timed out waiting for %q", event)
	m, _ := payload.(map[string]any)
	return m
}

func lastError(c *fakeClient) string {
	payload, ok := c.last("error")
	if !ok {
		return ""
	}
	m, _ := payload.(map[string]any)
	msg, _ := m["message"].(string)
	return msg
}

func TestCreateRoom(t *testing.T) {
	g := newTestGame()
	owner := newFakeClient("c0")

	code := g.CreateRoom(owner, "alice")
	require.Len(t, code, 6)
	assert.Equal(t, strings.ToUpper(code), code)

	payload := waitFor(t, owner, "room-created")
	assert.Equal(t, code, payload["roomCode"])
	assert.Equal(t, true, payload["isOwner"])

	room, ok := g.Registry().Get(code)
	require.True(t, ok)
	assert.Equal(t, StateWaiting, room.State)
	assert.ElementsMatch(t, BaseChallengeTypes, room.ShuffledChallengeTypes)
}

func TestCreateRoomRejectsBadNames(t *testing.T) {
	g := newTestGame()

	assert.Empty(t, g.CreateRoom(newFakeClient("c0"), "   "))
	assert.Empty(t, g.CreateRoom(newFakeClient("c1"), "this name is way too long"))
	assert.Equal(t, 0, g.Registry().Count())
}

func TestJoinRoomRules(t *testing.T) {
	g := newTestGame()
	_, code, _ := setupRoom(t, g, "alice", "bob")

	dup := newFakeClient("dup")
	assert.Empty(t, g.JoinRoom(dup, code, "alice"))
	assert.Contains(t, lastError(dup), "already taken")

	lost := newFakeClient("lost")
	assert.Empty(t, g.JoinRoom(lost, "ZZZZZZ", "carol"))
	assert.Contains(t, lastError(lost), "Room not found")

	// Codes are case-insensitive on join.
	cased := newFakeClient("cased")
	assert.Equal(t, code, g.JoinRoom(cased, strings.ToLower(code), "carol"))

	for i := 0; i < MaxPlayers; i++ {
		c := newFakeClient(fmt.Sprintf("fill%d", i))
		name := fmt.Sprintf("filler%d", i)
		if i < MaxPlayers-3 {
			require.Equal(t, code, g.JoinRoom(c, code, name))
		} else {
			assert.Empty(t, g.JoinRoom(c, code, name))
			assert.Contains(t, lastError(c), "full")
		}
	}
}

func TestStartGameGuards(t *testing.T) {
	g := newTestGame()
	_, code, clients := setupRoom(t, g, "alice", "bob")

	g.StartGame(clients[1], code)
	assert.Contains(t, lastError(clients[1]), "owner")

	solo := newFakeClient("solo")
	soloCode := g.CreateRoom(solo, "hermit")
	g.StartGame(solo, soloCode)
	assert.Contains(t, lastError(solo), "at least 2")

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	g.StartGame(clients[0], code)
	assert.Contains(t, lastError(clients[0]), "already in progress")
}

func TestRiddlePresentationHidesAnswer(t *testing.T) {
	g := newTestGame()
	_, code, clients := setupRoom(t, g, "alice", "bob")

	g.StartGame(clients[0], code)
	waitFor(t, clients[1], "oracle-speaks")
	payload := waitFor(t, clients[1], "riddle-presented")

	riddle, ok := payload["riddle"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, riddle["question"])
	assert.NotContains(t, riddle, "answer")
	assert.Equal(t, 1, payload["round"])
}

func TestRiddleEarlyCompletionScoresWinnerExactlyOnce(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeFastTapper)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	answer := currentRiddleAnswer(room)

	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: answer})
	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: answer})
	assert.Contains(t, lastError(clients[0]), "already submitted")

	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "definitely wrong"})

	payload := waitFor(t, clients[1], "riddle-results-reveal")
	assert.Equal(t, "alice", payload["winner"])
	assert.Equal(t, answer, payload["correctAnswer"])

	room.mu.Lock()
	assert.Equal(t, 1, room.findPlayerByName("alice").Score)
	room.mu.Unlock()

	// The phase timer still fires later; the reveal must not repeat.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, clients[0].count("riddle-results-reveal"))
}

func TestRiddleTimeoutNoWinner(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeFastTapper)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	payload := waitFor(t, clients[0], "riddle-results-reveal")
	assert.Equal(t, "", payload["winner"])

	// With no immunity everyone faces the challenge.
	start := waitFor(t, clients[1], "fast-tapper-start")
	participants, ok := start["participants"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"alice", "bob"}, participants)
}

func TestFastTapperRoundAndGameOver(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeFastTapper)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: "wrong"})
	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "also wrong"})

	waitFor(t, clients[0], "fast-tapper-start")
	g.SubmitTapResult(clients[0], code, 42)
	g.SubmitTapResult(clients[1], code, 17)

	results := waitFor(t, clients[1], "fast-tapper-results")
	assert.Equal(t, 42, results["maxTaps"])

	summary := waitFor(t, clients[0], "round-summary")
	history, ok := summary["roundHistory"].([]*models.PlayerHistory)
	require.True(t, ok)
	require.Len(t, history, 2)
	for _, h := range history {
		require.Len(t, h.Rounds, 1)
		if h.PlayerName == "alice" {
			assert.Equal(t, "W", h.Rounds[0])
		} else {
			assert.Equal(t, "L", h.Rounds[0])
		}
	}

	over := waitFor(t, clients[1], "game-over")
	winner, ok := over["winner"].(models.PlayerView)
	require.True(t, ok)
	assert.Equal(t, "alice", winner.Name)
	assert.Equal(t, false, over["tied"])

	// Back in the lobby for a rematch.
	require.Eventually(t, func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		return room.State == StateWaiting && room.CurrentRound == 0
	}, time.Second, 2*time.Millisecond)
}

func TestTriviaChallengeEarliestCorrectWins(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeTrivia)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: "wrong"})
	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "wrong too"})

	start := waitFor(t, clients[1], "trivia-challenge-start")
	require.NotEmpty(t, start["options"])

	room.mu.Lock()
	mc := room.Active.(*multipleChoiceChallenge)
	correct := mc.question.CorrectIndex
	room.mu.Unlock()

	wrong := (correct + 1) % len(mc.question.Options)
	g.SubmitTriviaAnswer(clients[1], code, correct)
	g.SubmitTriviaAnswer(clients[0], code, wrong)

	results := waitFor(t, clients[0], "trivia-results")
	assert.Equal(t, correct, results["correctAnswer"])

	summary := waitFor(t, clients[0], "round-summary")
	players, ok := summary["players"].([]models.PlayerView)
	require.True(t, ok)
	for _, p := range players {
		if p.Name == "bob" {
			assert.Equal(t, 1, p.Score)
		} else {
			assert.Equal(t, 0, p.Score)
		}
	}
}

func TestDetectiveAnswersArriveViaRiddleSubmit(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeDetective)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: "wrong"})
	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "wrong too"})

	waitFor(t, clients[1], "riddle-challenge-start")

	room.mu.Lock()
	correct := room.Active.(*multipleChoiceChallenge).question.CorrectIndex
	room.mu.Unlock()

	g.SubmitRiddleAnswer(clients[0], code, Submission{Option: correct})
	progress := waitFor(t, clients[1], "riddle-answer-submitted")
	assert.Equal(t, "alice", progress["playerName"])

	g.SubmitRiddleAnswer(clients[1], code, Submission{Option: correct + 1})
	results := waitFor(t, clients[0], "riddle-challenge-results")
	assert.Equal(t, correct, results["correctAnswer"])
}

func TestMemoryChallengeFlow(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeMemory)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: "wrong"})
	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "wrong too"})

	start := waitFor(t, clients[1], "memory-challenge-start")
	require.NotEmpty(t, start["balloons"])
	require.NotEmpty(t, start["question"])

	room.mu.Lock()
	answer := room.Active.(*memoryChallenge).quiz.Answer
	room.mu.Unlock()

	g.SubmitMemoryAnswer(clients[0], code, answer)
	g.SubmitMemoryAnswer(clients[1], code, "not it")

	results := waitFor(t, clients[0], "memory-results")
	assert.Equal(t, answer, results["correctAnswer"])

	summary := waitFor(t, clients[1], "round-summary")
	players, ok := summary["players"].([]models.PlayerView)
	require.True(t, ok)
	for _, p := range players {
		if p.Name == "alice" {
			assert.Equal(t, 1, p.Score)
		}
	}
}

func TestFreeTextChallengeUsesFallbackAndHeuristic(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeNegotiator)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: "wrong"})
	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "wrong too"})

	start := waitFor(t, clients[1], "text-challenge-start")
	flavor, _ := start["challengeType"].(string)
	assert.Contains(t, []string{KindNegotiator, KindDanger}, flavor)
	assert.NotEmpty(t, start["challenge"])

	g.SubmitChallengeResponse(clients[0], code,
		"I offer a carefully structured trade with escalating sweeteners until they cannot refuse")
	g.SubmitChallengeResponse(clients[1], code, "no")

	// Verdicts are unicast to their owners only.
	alice := waitFor(t, clients[0], "challenge-individual-result")
	assert.Equal(t, true, alice["passed"])
	bob := waitFor(t, clients[1], "challenge-individual-result")
	assert.Equal(t, false, bob["passed"])

	summary := waitFor(t, clients[0], "round-summary")
	results, ok := summary["challengeResults"].([]models.ChallengeResult)
	require.True(t, ok)
	require.Len(t, results, 2)

	over := waitFor(t, clients[1], "game-over")
	winner, ok := over["winner"].(models.PlayerView)
	require.True(t, ok)
	assert.Equal(t, "alice", winner.Name)
}

func TestSpectatorJoinsMidGameAndActivates(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeFastTapper)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")

	carol := newFakeClient("carol")
	require.Equal(t, code, g.JoinRoom(carol, code, "carol"))

	joined := waitFor(t, carol, "join-success")
	assert.Equal(t, true, joined["isSpectator"])
	waitFor(t, carol, "game-state-update")

	g.SubmitRiddleAnswer(carol, code, Submission{Text: "ECHO"})
	assert.Contains(t, lastError(carol), "Spectators")

	// Backfilled with a loss for the round already underway.
	room.mu.Lock()
	h := room.historyFor(room.findPlayerByName("carol"))
	assert.Equal(t, []string{"L"}, h.Rounds)
	room.mu.Unlock()

	// Round 1 times out entirely; at the start of round 2 carol activates
	// with a clean slate.
	activated := waitFor(t, carol, "spectator-activated")
	assert.Equal(t, "carol", activated["playerName"])

	require.Eventually(t, func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		p := room.findPlayerByName("carol")
		if p == nil || p.IsSpectator {
			return false
		}
		return len(room.historyFor(p).Rounds) == 0 || room.CurrentRound >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDisconnectTransfersOwnershipAndCompletesPhase(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob", "carol")
	forceChallengeOrder(room, ChallengeFastTapper)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")

	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "wrong"})
	g.SubmitRiddleAnswer(clients[2], code, Submission{Text: "wrong too"})

	// The missing submission belongs to the owner; leaving must not stall
	// the phase.
	g.Disconnect(clients[0])

	left := waitFor(t, clients[1], "player-left")
	assert.Equal(t, "alice", left["playerName"])
	assert.Equal(t, "bob", left["newOwner"])

	waitFor(t, clients[1], "riddle-results-reveal")

	room.mu.Lock()
	assert.Equal(t, "c1", room.OwnerID)
	assert.Nil(t, room.findPlayerByName("alice"))
	room.mu.Unlock()
}

func TestRoomDeletedWhenEmpty(t *testing.T) {
	g := newTestGame()
	_, code, clients := setupRoom(t, g, "alice", "bob")

	g.Disconnect(clients[0])
	g.Disconnect(clients[1])

	assert.False(t, g.Registry().Has(code))
}

func TestGameEndsWhenAllActivePlayersLeave(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeFastTapper)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")

	carol := newFakeClient("carol")
	require.Equal(t, code, g.JoinRoom(carol, code, "carol"))
	waitFor(t, carol, "join-success")

	g.Disconnect(clients[0])
	g.Disconnect(clients[1])

	ended := waitFor(t, carol, "game-ended")
	assert.Contains(t, ended["message"], "Not enough players")

	room.mu.Lock()
	assert.Equal(t, StateWaiting, room.State)
	assert.Equal(t, 0, room.CurrentRound)
	p := room.findPlayerByName("carol")
	require.NotNil(t, p)
	assert.False(t, p.IsSpectator)
	room.mu.Unlock()
}

func TestGameOverTieAtMaxScore(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice", "bob")
	forceChallengeOrder(room, ChallengeFastTapper)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	g.SubmitRiddleAnswer(clients[0], code, Submission{Text: "wrong"})
	g.SubmitRiddleAnswer(clients[1], code, Submission{Text: "wrong too"})

	waitFor(t, clients[0], "fast-tapper-start")
	g.SubmitTapResult(clients[0], code, 30)
	g.SubmitTapResult(clients[1], code, 30)

	over := waitFor(t, clients[1], "game-over")
	assert.Equal(t, true, over["tied"])
	msg, _ := over["message"].(string)
	assert.Contains(t, msg, "tie")

	players, ok := over["players"].([]models.PlayerView)
	require.True(t, ok)
	require.Len(t, players, 2)
	for _, p := range players {
		assert.Equal(t, 1, p.Score)
	}
}

func TestDisconnectDuringChallengeCompletesEarly(t *testing.T) {
	tm := testTiming()
	tm.TapDuration = 5 * time.Second
	g := NewGameService(NewRegistry(), NewContentService(), offlineOracle(), tm)
	room, code, clients := setupRoom(t, g, "alice", "bob", "carol")
	forceChallengeOrder(room, ChallengeFastTapper)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	for i, c := range clients {
		g.SubmitRiddleAnswer(c, code, Submission{Text: fmt.Sprintf("wrong %d", i)})
	}

	waitFor(t, clients[0], "fast-tapper-start")
	g.SubmitTapResult(clients[0], code, 30)
	g.SubmitTapResult(clients[1], code, 20)

	// The countdown still has seconds to run; the departure must finish the
	// phase now, not at expiry.
	g.Disconnect(clients[2])

	results := waitFor(t, clients[1], "fast-tapper-results")
	assert.Equal(t, 30, results["maxTaps"])
	list, ok := results["results"].([]models.ChallengeResult)
	require.True(t, ok)
	require.Len(t, list, 3)
	carol := resultFor(t, list, "carol")
	assert.Equal(t, 0, carol.Taps)
	assert.False(t, carol.Won)

	waitFor(t, clients[0], "round-summary")
}

func TestDisconnectBeforeChallengeLaunchDropsContestant(t *testing.T) {
	tm := testTiming()
	tm.ChallengeIntroDelay = 300 * time.Millisecond
	tm.TapDuration = 5 * time.Second
	g := NewGameService(NewRegistry(), NewContentService(), offlineOracle(), tm)
	room, code, clients := setupRoom(t, g, "alice", "bob", "carol")
	forceChallengeOrder(room, ChallengeFastTapper)
	setMaxRounds(room, 1)

	g.StartGame(clients[0], code)
	waitFor(t, clients[0], "riddle-presented")
	for i, c := range clients {
		g.SubmitRiddleAnswer(c, code, Submission{Text: fmt.Sprintf("wrong %d", i)})
	}
	waitFor(t, clients[0], "riddle-results-reveal")

	// The departure lands between contestant selection and challenge launch.
	g.Disconnect(clients[2])

	start := waitFor(t, clients[0], "fast-tapper-start")
	participants, ok := start["participants"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"alice", "bob"}, participants)

	g.SubmitTapResult(clients[0], code, 12)
	g.SubmitTapResult(clients[1], code, 9)

	// Both live contestants are in, so results cannot wait for the timer.
	results := waitFor(t, clients[1], "fast-tapper-results")
	list, ok := results["results"].([]models.ChallengeResult)
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestCleanupIdleRooms(t *testing.T) {
	g := newTestGame()
	room, code, clients := setupRoom(t, g, "alice")

	room.mu.Lock()
	room.LastActivity = time.Now().Add(-time.Hour)
	room.mu.Unlock()

	removed := g.CleanupIdleRooms(30 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.False(t, g.Registry().Has(code))
	assert.Equal(t, 1, clients[0].count("room-closed"))
}

func TestChallengeTypeCycle(t *testing.T) {
	room := NewRoom("ABCDEF")

	seen := make(map[string]bool)
	for round := 1; round <= 5; round++ {
		seen[room.ChallengeTypeForRound(round)] = true
	}
	assert.Len(t, seen, 5, "five rounds cover all five challenge types")
	assert.Equal(t, room.ChallengeTypeForRound(1), room.ChallengeTypeForRound(6))
}
