// services/room.go - Runtime state for one game session.
package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"aioracle/models"
)

// GameState is the persisted phase of a room. Round summary and game over are
// transient broadcasts, not states.
type GameState string

const (
	StateWaiting   GameState = "waiting"
	StateRiddle    GameState = "riddle-phase"
	StateChallenge GameState = "challenge-phase"
)

const (
	MaxPlayers    = 8
	MinPlayers    = 2
	MaxRounds     = 5
	MaxNameLength = 15
)

// The five challenge types, shuffled once per room and cycled by round.
var BaseChallengeTypes = []string{
	ChallengeNegotiator,
	ChallengeDetective,
	ChallengeTrivia,
	ChallengeFastTapper,
	ChallengeMemory,
}

// Client is one connected transport session. Send must never block the
// caller; slow consumers drop messages at the transport layer.
type Client interface {
	SessionID() string
	Send(event string, payload any)
}

// Player is one participant in a room. ID is the transport-session identity
// and changes across reconnects; Name is the only durable identity.
type Player struct {
	ID            string
	Name          string
	Score         int
	IsSpectator   bool
	JoinedAtRound int

	client Client
}

func (p *Player) View() models.PlayerView {
	return models.PlayerView{
		ID:          p.ID,
		Name:        p.Name,
		Score:       p.Score,
		IsSpectator: p.IsSpectator,
	}
}

// Room holds all mutable state for one game session. Every mutation happens
// under mu; timer callbacks and transport events are serialized through it.
type Room struct {
	mu sync.Mutex

	Code      string
	SessionID string
	OwnerID   string
	Players   []*Player // join order; Players[0] inherits ownership on transfer
	State     GameState

	CurrentRound int
	MaxRounds    int

	CurrentRiddle models.Riddle
	RiddleWinner  string
	RiddleAnswers map[string]*models.RiddleSubmission

	Active Challenge // current mini-challenge, nil outside challenge-phase

	ShuffledChallengeTypes []string
	UsedRiddles            *UsedSet
	UsedTrivia             *UsedSet
	UsedFallbacks          map[string]*UsedSet

	History []*models.PlayerHistory

	CreatedAt    time.Time
	LastActivity time.Time

	// Timer discipline: one outstanding countdown per phase. phaseSeq names
	// the current phase instance; phaseDone flips exactly once per instance.
	// epoch invalidates every queued transition when the room resets or dies.
	timer     *time.Timer
	phaseSeq  uint64
	phaseDone bool
	epoch     uint64
}

// NewRoom builds a fresh room in the waiting state with its own shuffled
// challenge order and content tracking.
func NewRoom(code string) *Room {
	shuffled := make([]string, len(BaseChallengeTypes))
	copy(shuffled, BaseChallengeTypes)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	now := time.Now()
	return &Room{
		Code:                   code,
		SessionID:              uuid.NewString(),
		State:                  StateWaiting,
		MaxRounds:              MaxRounds,
		RiddleAnswers:          make(map[string]*models.RiddleSubmission),
		ShuffledChallengeTypes: shuffled,
		UsedRiddles:            NewUsedSet(),
		UsedTrivia:             NewUsedSet(),
		UsedFallbacks: map[string]*UsedSet{
			KindNegotiator: NewUsedSet(),
			KindDanger:     NewUsedSet(),
		},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// ChallengeTypeForRound returns the challenge type for a 1-based round number
// from the room's fixed shuffled cycle.
func (r *Room) ChallengeTypeForRound(round int) string {
	return r.ShuffledChallengeTypes[(round-1)%len(r.ShuffledChallengeTypes)]
}

func (r *Room) findPlayer(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) findPlayerByName(name string) *Player {
	for _, p := range r.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// activePlayers returns the non-spectator players in join order.
func (r *Room) activePlayers() []*Player {
	active := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.IsSpectator {
			active = append(active, p)
		}
	}
	return active
}

// livingContestants filters a contestant list down to players still present
// and still active. Contestants can leave between selection and challenge
// launch; room.Active is nil in that window, so nothing synthesizes for them.
func (r *Room) livingContestants(players []*Player) []*Player {
	live := make([]*Player, 0, len(players))
	for _, p := range players {
		if q := r.findPlayer(p.ID); q != nil && !q.IsSpectator {
			live = append(live, p)
		}
	}
	return live
}

func (r *Room) views() []models.PlayerView {
	views := make([]models.PlayerView, 0, len(r.Players))
	for _, p := range r.Players {
		views = append(views, p.View())
	}
	return views
}

// broadcast queues an event to every player in the room.
func (r *Room) broadcast(event string, payload any) {
	for _, p := range r.Players {
		p.client.Send(event, payload)
	}
}

// beginPhase starts a new phase instance and returns its sequence number.
// Any outstanding countdown from the previous phase is cancelled first.
func (r *Room) beginPhase() uint64 {
	r.stopTimer()
	r.phaseSeq++
	r.phaseDone = false
	return r.phaseSeq
}

// tryCompletePhase atomically claims phase completion for a given phase
// instance. Returns true exactly once per instance; the outstanding countdown
// is cancelled on success. Both the timer path and the all-submitted path go
// through here.
func (r *Room) tryCompletePhase(seq uint64) bool {
	if r.phaseSeq != seq || r.phaseDone {
		return false
	}
	r.phaseDone = true
	r.stopTimer()
	return true
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// bumpEpoch invalidates every queued delayed transition for this room.
func (r *Room) bumpEpoch() {
	r.epoch++
}

// touch records activity for the idle sweeper.
func (r *Room) touch() {
	r.LastActivity = time.Now()
}

// backfillRounds is the history a player owes for rounds missed before they
// became active: one loss per round already begun when they joined.
func backfillRounds(joinedAtRound int) []string {
	rounds := make([]string, 0, joinedAtRound)
	for i := 0; i < joinedAtRound; i++ {
		rounds = append(rounds, "L")
	}
	return rounds
}

// initHistory rebuilds the round-history ledger from the current players.
func (r *Room) initHistory() {
	r.History = make([]*models.PlayerHistory, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsSpectator {
			continue
		}
		r.History = append(r.History, &models.PlayerHistory{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Rounds:     []string{},
		})
	}
}

// ensureHistory lazily rebuilds the ledger when it is empty.
func (r *Room) ensureHistory() {
	if len(r.History) == 0 {
		r.initHistory()
	}
}

// historyFor finds (or creates) a player's ledger entry. Matching falls back
// to name because session IDs change across reconnects.
func (r *Room) historyFor(p *Player) *models.PlayerHistory {
	for _, h := range r.History {
		if h.PlayerID == p.ID || h.PlayerName == p.Name {
			return h
		}
	}
	h := &models.PlayerHistory{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Rounds:     backfillRounds(p.JoinedAtRound),
	}
	r.History = append(r.History, h)
	return h
}
