// services/game.go - Game orchestrator: room membership, the round loop, the
// riddle and challenge phases, scoring, disconnect handling and game over.
//
// Concurrency model: every mutation of a room happens under room.mu. Phase
// countdowns race player submissions; both paths go through
// tryCompletePhase so each phase completes exactly once. Delayed transitions
// are scheduled with after(), which re-checks the room epoch so a reset or
// deleted room silently swallows stale callbacks.
package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"aioracle/database"
	"aioracle/models"
)

type GameService struct {
	registry *Registry
	content  *ContentService
	oracle   *OracleService
	timing   Timing
}

func NewGameService(registry *Registry, content *ContentService, oracle *OracleService, timing Timing) *GameService {
	return &GameService{
		registry: registry,
		content:  content,
		oracle:   oracle,
		timing:   timing,
	}
}

func (s *GameService) Registry() *Registry { return s.registry }

func (s *GameService) sendError(c Client, message string) {
	c.Send("error", map[string]any{"message": message})
}

// validateName normalizes and checks a display name.
func validateName(raw string) (string, string) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", "Player name is required"
	}
	if len(name) > MaxNameLength {
		return "", fmt.Sprintf("Player name must be %d characters or fewer", MaxNameLength)
	}
	return name, ""
}

func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// after schedules fn on the room's lock after d. The callback is dropped if
// the room has been reset or deleted since scheduling. Must be called with
// the room lock held.
func (s *GameService) after(room *Room, d time.Duration, fn func()) {
	epoch := room.epoch
	time.AfterFunc(d, func() {
		room.mu.Lock()
		defer room.mu.Unlock()
		if room.epoch != epoch || !s.registry.Has(room.Code) {
			return
		}
		fn()
	})
}

// startCountdown arms the phase timer. On expiry the phase is claimed through
// tryCompletePhase, so a submission that completed the phase first wins the
// race and the expiry is a no-op.
func (s *GameService) startCountdown(room *Room, d time.Duration, seq uint64, expire func()) {
	epoch := room.epoch
	room.timer = time.AfterFunc(d, func() {
		room.mu.Lock()
		defer room.mu.Unlock()
		if room.epoch != epoch || !s.registry.Has(room.Code) {
			return
		}
		if room.tryCompletePhase(seq) {
			expire()
		}
	})
}

// withPlayer runs fn with the room locked and the caller resolved to their
// player, emitting the standard errors when either lookup fails.
func (s *GameService) withPlayer(c Client, code string, fn func(room *Room, p *Player)) {
	room, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		s.sendError(c, "Room not found")
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.findPlayer(c.SessionID())
	if p == nil {
		s.sendError(c, "You are not in this room")
		return
	}
	fn(room, p)
}

// --- Membership ---

// CreateRoom makes a new lobby with the caller as owner. Returns the room
// code, empty on failure.
func (s *GameService) CreateRoom(c Client, playerName string) string {
	name, errMsg := validateName(playerName)
	if errMsg != "" {
		s.sendError(c, errMsg)
		return ""
	}

	room := s.registry.CreateRoom()
	room.mu.Lock()
	defer room.mu.Unlock()

	p := &Player{ID: c.SessionID(), Name: name, client: c}
	room.Players = append(room.Players, p)
	room.OwnerID = p.ID
	room.touch()

	c.Send("room-created", map[string]any{
		"roomCode":   room.Code,
		"playerName": name,
		"isOwner":    true,
		"players":    room.views(),
	})
	log.Printf("🏠 Room %s created by %s", room.Code, name)
	return room.Code
}

// JoinRoom adds a player to a room, returning the room code on success.
// Joining mid-game admits them as a spectator with a backfilled loss ledger;
// they become active at the start of the next round.
func (s *GameService) JoinRoom(c Client, code, playerName string) string {
	name, errMsg := validateName(playerName)
	if errMsg != "" {
		s.sendError(c, errMsg)
		return ""
	}

	room, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		s.sendError(c, "Room not found")
		return ""
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.Players) >= MaxPlayers {
		s.sendError(c, "Room is full")
		return ""
	}
	if room.findPlayerByName(name) != nil {
		s.sendError(c, "That name is already taken in this room")
		return ""
	}

	p := &Player{ID: c.SessionID(), Name: name, client: c}
	spectator := room.State != StateWaiting
	if spectator {
		p.IsSpectator = true
		p.JoinedAtRound = room.CurrentRound
		room.History = append(room.History, &models.PlayerHistory{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Rounds:     backfillRounds(room.CurrentRound),
		})
	}
	room.Players = append(room.Players, p)
	room.touch()

	c.Send("join-success", map[string]any{
		"roomCode":     room.Code,
		"playerName":   name,
		"isSpectator":  spectator,
		"currentRound": room.CurrentRound,
		"maxRounds":    room.MaxRounds,
		"players":      room.views(),
	})
	room.broadcast("player-joined", map[string]any{
		"newPlayer":   name,
		"isSpectator": spectator,
		"players":     room.views(),
	})
	if spectator {
		c.Send("game-state-update", s.stateSnapshot(room))
	}
	log.Printf("👤 %s joined room %s (spectator=%v)", name, room.Code, spectator)
	return room.Code
}

func (s *GameService) stateSnapshot(room *Room) map[string]any {
	return map[string]any{
		"gameState":    room.State,
		"currentRound": room.CurrentRound,
		"maxRounds":    room.MaxRounds,
		"players":      room.views(),
		"riddleWinner": room.RiddleWinner,
		"roundHistory": room.History,
	}
}

// --- Game start and round loop ---

func (s *GameService) StartGame(c Client, code string) {
	s.withPlayer(c, code, func(room *Room, p *Player) {
		if room.OwnerID != p.ID {
			s.sendError(c, "Only the room owner can start the game")
			return
		}
		if room.State != StateWaiting {
			s.sendError(c, "Game already in progress")
			return
		}
		if len(room.activePlayers()) < MinPlayers {
			s.sendError(c, fmt.Sprintf("Need at least %d players to start", MinPlayers))
			return
		}

		for _, q := range room.Players {
			q.Score = 0
		}
		room.CurrentRound = 0
		room.RiddleWinner = ""
		room.Active = nil
		room.initHistory()

		log.Printf("🎮 Game started in room %s with %d players", room.Code, len(room.Players))
		s.startNewRound(room)
	})
}

// startNewRound begins the riddle phase of the next round. Runs locked.
func (s *GameService) startNewRound(room *Room) {
	room.CurrentRound++
	round := room.CurrentRound

	// Spectators who joined before this round become active now, with a
	// clean ledger slate.
	for _, p := range room.Players {
		if p.IsSpectator && p.JoinedAtRound < round {
			p.IsSpectator = false
			h := room.historyFor(p)
			h.Rounds = []string{}
			room.broadcast("spectator-activated", map[string]any{
				"playerName": p.Name,
				"players":    room.views(),
			})
			log.Printf("👁️ %s activated as player in room %s", p.Name, room.Code)
		}
	}

	room.State = StateRiddle
	room.RiddleWinner = ""
	room.Active = nil
	room.RiddleAnswers = make(map[string]*models.RiddleSubmission)
	room.ensureHistory()
	room.touch()

	riddle, idx := s.content.PickRiddle(room.UsedRiddles)
	room.CurrentRiddle = riddle

	seq := room.beginPhase()
	room.broadcast("oracle-speaks", map[string]any{
		"message": s.content.OracleIntroduction(),
		"type":    "introduction",
	})
	s.after(room, s.timing.IntroDelay, func() {
		if room.phaseSeq != seq || room.phaseDone {
			return
		}
		s.presentRiddle(room, seq)
	})
	log.Printf("🧩 Room %s round %d/%d, riddle #%d", room.Code, round, room.MaxRounds, idx)
}

// presentRiddle shows the riddle and arms the countdown. The answer never
// leaves the server before the reveal.
func (s *GameService) presentRiddle(room *Room, seq uint64) {
	room.broadcast("riddle-presented", map[string]any{
		"riddle": map[string]any{
			"question":   room.CurrentRiddle.Question,
			"difficulty": room.CurrentRiddle.Difficulty,
		},
		"round":     room.CurrentRound,
		"maxRounds": room.MaxRounds,
		"timeLimit": seconds(s.timing.RiddleCountdown),
	})
	s.startCountdown(room, s.timing.RiddleCountdown, seq, func() {
		log.Printf("⏰ Riddle timeout in room %s round %d", room.Code, room.CurrentRound)
		s.endRiddlePhase(room)
	})
}

// SubmitRiddleAnswer handles the submit-riddle-answer event. During the
// riddle phase the answer is free text; during a detective challenge the same
// event carries the selected option index.
func (s *GameService) SubmitRiddleAnswer(c Client, code string, sub Submission) {
	s.withPlayer(c, code, func(room *Room, p *Player) {
		if p.IsSpectator {
			s.sendError(c, "Spectators cannot submit answers")
			return
		}

		switch room.State {
		case StateChallenge:
			s.acceptSubmission(room, p, ChallengeDetective, sub)
			return
		case StateRiddle:
		default:
			s.sendError(c, "No riddle to answer right now")
			return
		}

		if _, dup := room.RiddleAnswers[p.ID]; dup {
			s.sendError(c, "Answer already submitted")
			return
		}
		room.RiddleAnswers[p.ID] = &models.RiddleSubmission{
			Answer:     sub.Text,
			PlayerName: p.Name,
			Timestamp:  time.Now(),
		}
		room.touch()

		active := room.activePlayers()
		count := 0
		for _, q := range active {
			if _, ok := room.RiddleAnswers[q.ID]; ok {
				count++
			}
		}
		room.broadcast("answer-submitted", map[string]any{
			"playerName":       p.Name,
			"totalSubmissions": count,
			"totalPlayers":     len(active),
		})

		if count >= len(active) && room.tryCompletePhase(room.phaseSeq) {
			log.Printf("⚡ All riddle answers in for room %s, ending phase early", room.Code)
			s.endRiddlePhase(room)
		}
	})
}

// endRiddlePhase resolves the riddle: earliest correct submission wins a
// point and immunity from the challenge. Runs locked with the phase claimed.
func (s *GameService) endRiddlePhase(room *Room) {
	var winner *models.RiddleSubmission
	for _, sub := range room.RiddleAnswers {
		if !room.CurrentRiddle.Matches(sub.Answer) {
			continue
		}
		if winner == nil || sub.Timestamp.Before(winner.Timestamp) {
			winner = sub
		}
	}

	message := "No one solved my riddle! You ALL must face my challenge!"
	if winner != nil {
		room.RiddleWinner = winner.PlayerName
		if p := room.findPlayerByName(winner.PlayerName); p != nil {
			p.Score++
		}
		message = fmt.Sprintf("%s has solved my riddle and earned immunity this round!", winner.PlayerName)
	}

	answers := make([]*models.RiddleSubmission, 0, len(room.RiddleAnswers))
	for _, sub := range room.RiddleAnswers {
		answers = append(answers, sub)
	}
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].Timestamp.Before(answers[j].Timestamp)
	})

	room.broadcast("riddle-results-reveal", map[string]any{
		"winner":        room.RiddleWinner,
		"correctAnswer": room.CurrentRiddle.Answer,
		"message":       message,
		"allAnswers":    answers,
		"players":       room.views(),
	})

	s.after(room, s.timing.RevealDelay, func() {
		s.startChallengePhase(room)
	})
}

func challengeLabel(ctype string) string {
	switch ctype {
	case ChallengeNegotiator:
		return "negotiation"
	case ChallengeDetective:
		return "detective riddle"
	case ChallengeTrivia:
		return "trivia"
	case ChallengeFastTapper:
		return "fast tapper"
	case ChallengeMemory:
		return "memory balloon"
	}
	return ctype
}

// startChallengePhase builds this round's challenge for everyone except the
// riddle winner. Runs locked.
func (s *GameService) startChallengePhase(room *Room) {
	contestants := make([]*Player, 0, len(room.Players))
	for _, p := range room.activePlayers() {
		if p.Name != room.RiddleWinner {
			contestants = append(contestants, p)
		}
	}
	if len(contestants) == 0 {
		// Sole survivor solved the riddle; nothing to contest.
		s.endRound(room, nil)
		return
	}

	room.State = StateChallenge
	seq := room.beginPhase()
	ctype := room.ChallengeTypeForRound(room.CurrentRound)

	room.broadcast("oracle-speaks", map[string]any{
		"message": fmt.Sprintf("Round %d: face my %s challenge!", room.CurrentRound, challengeLabel(ctype)),
		"type":    "challenge-intro",
	})

	if ctype == ChallengeNegotiator {
		// Content comes from the oracle and can take seconds; generate off
		// the lock and launch once it lands, unless the phase moved on.
		flavor := PickFreeTextFlavor()
		used := room.UsedFallbacks[flavor]
		round := room.CurrentRound
		epoch := room.epoch
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timing.OracleTimeout)
			content := s.oracle.GenerateChallenge(ctx, flavor, round, used)
			cancel()

			room.mu.Lock()
			defer room.mu.Unlock()
			if room.epoch != epoch || !s.registry.Has(room.Code) {
				return
			}
			if room.phaseSeq != seq || room.phaseDone {
				return
			}
			live := room.livingContestants(contestants)
			if len(live) == 0 {
				if room.tryCompletePhase(seq) {
					s.endRound(room, nil)
				}
				return
			}
			s.launchChallenge(room, NewFreeTextChallenge(flavor, content, live), seq)
		}()
		return
	}

	// Construction waits for the intro delay so the participant set reflects
	// any disconnects in the window.
	s.after(room, s.timing.ChallengeIntroDelay, func() {
		if room.phaseSeq != seq || room.phaseDone {
			return
		}
		live := room.livingContestants(contestants)
		if len(live) == 0 {
			if room.tryCompletePhase(seq) {
				s.endRound(room, nil)
			}
			return
		}

		var ch Challenge
		switch ctype {
		case ChallengeDetective:
			ch = NewDetectiveChallenge(s.content.DetectiveChoice(room.UsedRiddles), live)
		case ChallengeTrivia:
			q, _ := s.content.PickTrivia(room.UsedTrivia)
			ch = NewTriviaChallenge(q, live)
		case ChallengeFastTapper:
			ch = NewTapChallenge(live)
		case ChallengeMemory:
			ch = NewMemoryChallenge(NewMemoryQuiz(), live)
		}
		s.launchChallenge(room, ch, seq)
	})
}

// launchChallenge broadcasts the start event and arms the countdown.
// Runs locked.
func (s *GameService) launchChallenge(room *Room, ch Challenge, seq uint64) {
	room.Active = ch
	event, payload := ch.StartEvent()
	s.decorateStart(ch, payload)
	room.broadcast(event, payload)
	room.touch()

	s.startCountdown(room, ch.Countdown(s.timing), seq, func() {
		log.Printf("⏰ %s challenge timeout in room %s", ch.Kind(), room.Code)
		s.finishChallenge(room)
	})
	log.Printf("🎯 %s challenge started in room %s round %d", ch.Kind(), room.Code, room.CurrentRound)
}

// decorateStart attaches the advertised client timings to a start payload.
func (s *GameService) decorateStart(ch Challenge, payload map[string]any) {
	switch ch.Kind() {
	case KindNegotiator:
		payload["timeLimit"] = seconds(s.timing.NegotiatorCountdown)
	case KindDanger:
		payload["timeLimit"] = seconds(s.timing.DangerCountdown)
	case ChallengeDetective, ChallengeTrivia:
		payload["timeLimit"] = seconds(s.timing.ChoiceCountdown)
	case ChallengeFastTapper:
		payload["duration"] = seconds(s.timing.TapDuration)
	case ChallengeMemory:
		payload["displayDuration"] = seconds(s.timing.MemoryDisplay)
		payload["answerDuration"] = seconds(s.timing.MemoryAnswer)
	}
}

func kindMatches(actual, want string) bool {
	if want == ChallengeNegotiator {
		return actual == KindNegotiator || actual == KindDanger
	}
	return actual == want
}

// acceptSubmission is the single funnel for challenge inputs: eligibility,
// write-once, progress broadcast and early completion. Runs locked.
func (s *GameService) acceptSubmission(room *Room, p *Player, wantKind string, sub Submission) {
	ch := room.Active
	if room.State != StateChallenge || ch == nil {
		s.sendError(p.client, "No challenge in progress")
		return
	}
	if !kindMatches(ch.Kind(), wantKind) {
		s.sendError(p.client, "Wrong submission type for this challenge")
		return
	}
	if !ch.IsParticipant(p.ID) {
		s.sendError(p.client, "You are not part of this challenge")
		return
	}
	if ch.HasSubmitted(p.ID) {
		s.sendError(p.client, "Already submitted")
		return
	}
	if !ch.Accept(p.ID, p.Name, sub) {
		return
	}
	room.touch()

	event, payload := ch.ProgressEvent(p.Name)
	room.broadcast(event, payload)

	if ch.Complete() && room.tryCompletePhase(room.phaseSeq) {
		log.Printf("⚡ All challenge submissions in for room %s, ending phase early", room.Code)
		s.finishChallenge(room)
	}
}

func (s *GameService) SubmitChallengeResponse(c Client, code, response string) {
	s.withPlayer(c, code, func(room *Room, p *Player) {
		if p.IsSpectator {
			s.sendError(c, "Spectators cannot submit answers")
			return
		}
		s.acceptSubmission(room, p, ChallengeNegotiator, Submission{Text: response})
	})
}

func (s *GameService) SubmitTapResult(c Client, code string, taps int) {
	s.withPlayer(c, code, func(room *Room, p *Player) {
		if p.IsSpectator {
			s.sendError(c, "Spectators cannot submit answers")
			return
		}
		s.acceptSubmission(room, p, ChallengeFastTapper, Submission{Taps: taps})
	})
}

func (s *GameService) SubmitTriviaAnswer(c Client, code string, option int) {
	s.withPlayer(c, code, func(room *Room, p *Player) {
		if p.IsSpectator {
			s.sendError(c, "Spectators cannot submit answers")
			return
		}
		s.acceptSubmission(room, p, ChallengeTrivia, Submission{Option: option})
	})
}

func (s *GameService) SubmitMemoryAnswer(c Client, code, answer string) {
	s.withPlayer(c, code, func(room *Room, p *Player) {
		if p.IsSpectator {
			s.sendError(c, "Spectators cannot submit answers")
			return
		}
		s.acceptSubmission(room, p, ChallengeMemory, Submission{Text: answer})
	})
}

// finishChallenge hands the claimed phase to the challenge's own evaluation,
// which runs off the lock because it may sleep and call the oracle. Sealing
// first freezes the submission set, so late submissions and disconnect
// synthesis cannot touch what evaluation reads. Runs locked with the phase
// claimed.
func (s *GameService) finishChallenge(room *Room) {
	ch := room.Active
	if ch == nil {
		s.endRound(room, nil)
		return
	}
	ch.Seal()

	epoch := room.epoch
	env := ChallengeEnv{
		Oracle: s.oracle,
		Timing: s.timing,
		Broadcast: func(event string, payload any) {
			room.mu.Lock()
			defer room.mu.Unlock()
			if room.epoch != epoch {
				return
			}
			room.broadcast(event, payload)
		},
		SendTo: func(playerID, event string, payload any) {
			room.mu.Lock()
			defer room.mu.Unlock()
			if room.epoch != epoch {
				return
			}
			if p := room.findPlayer(playerID); p != nil {
				p.client.Send(event, payload)
			}
		},
	}

	go func() {
		results := ch.Evaluate(context.Background(), env)
		time.Sleep(ch.ResultsDelay(s.timing))

		room.mu.Lock()
		defer room.mu.Unlock()
		if room.epoch != epoch || !s.registry.Has(room.Code) {
			return
		}
		s.endRound(room, results)
	}()
}

// endRound awards challenge wins, extends the W/L ledger, broadcasts the
// round summary and schedules either the next round or game over. Runs
// locked.
func (s *GameService) endRound(room *Room, results []models.ChallengeResult) {
	round := room.CurrentRound

	for _, r := range results {
		if !r.WonRound() {
			continue
		}
		if p := room.findPlayerByName(r.PlayerName); p != nil && !p.IsSpectator {
			p.Score++
		}
	}

	room.ensureHistory()
	for _, p := range room.activePlayers() {
		if p.JoinedAtRound >= round {
			continue
		}
		h := room.historyFor(p)
		mark := "L"
		if p.Name == room.RiddleWinner {
			mark = "W"
		} else {
			for _, r := range results {
				if r.PlayerName == p.Name && r.WonRound() {
					mark = "W"
					break
				}
			}
		}
		h.Rounds = append(h.Rounds, mark)
	}

	room.Active = nil
	room.touch()

	if results == nil {
		results = []models.ChallengeResult{}
	}
	room.broadcast("round-summary", map[string]any{
		"round":            round,
		"maxRounds":        room.MaxRounds,
		"players":          room.views(),
		"riddleWinner":     room.RiddleWinner,
		"challengeResults": results,
		"roundHistory":     room.History,
	})
	log.Printf("📊 Room %s round %d complete", room.Code, round)

	if round >= room.MaxRounds {
		s.after(room, s.timing.RoundGap, func() {
			s.finishGame(room)
		})
		return
	}
	s.after(room, s.timing.RoundGap, func() {
		s.startNewRound(room)
	})
}

// finishGame ranks the players, announces the result, persists the record and
// returns the room to the lobby so the same group can play again. Runs
// locked.
func (s *GameService) finishGame(room *Room) {
	ranked := room.activePlayers()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	var winnerView any
	winnerName := ""
	tied := false
	message := "The Oracle claims victory over all challengers!"
	if len(ranked) > 0 {
		top := ranked[0]
		winnerView = top.View()
		winnerName = top.Name
		topCount := 0
		for _, p := range ranked {
			if p.Score == top.Score {
				topCount++
			}
		}
		tied = topCount > 1
		if tied {
			message = fmt.Sprintf("A tie at %d points! The Oracle is torn between champions!", top.Score)
		} else {
			message = fmt.Sprintf("🏆 %s defeats the Oracle with %d points!", top.Name, top.Score)
		}
	}

	views := make([]models.PlayerView, 0, len(ranked))
	for _, p := range ranked {
		views = append(views, p.View())
	}

	room.broadcast("game-over", map[string]any{
		"winner":       winnerView,
		"tied":         tied,
		"message":      message,
		"players":      views,
		"roundHistory": room.History,
	})
	log.Printf("🏁 Game over in room %s, winner=%q tied=%v", room.Code, winnerName, tied)

	s.persistGame(room, ranked, winnerName, tied)

	// Back to the lobby for a possible rematch. Scores and the ledger stay
	// visible until the next start.
	room.stopTimer()
	room.bumpEpoch()
	room.phaseDone = true
	room.State = StateWaiting
	room.CurrentRound = 0
	room.RiddleWinner = ""
	room.Active = nil
	room.RiddleAnswers = make(map[string]*models.RiddleSubmission)
	for _, p := range room.Players {
		p.IsSpectator = false
		p.JoinedAtRound = 0
	}
}

// persistGame writes the finished game asynchronously. Persistence is best
// effort: without a configured database nothing is stored and play is
// unaffected. Runs locked; the write itself does not hold the lock.
func (s *GameService) persistGame(room *Room, ranked []*Player, winnerName string, tied bool) {
	record := models.GameRecord{
		SessionID:   room.SessionID,
		RoomCode:    room.Code,
		Rounds:      room.MaxRounds,
		PlayerCount: len(ranked),
		WinnerName:  winnerName,
		Tied:        tied,
		CompletedAt: time.Now(),
	}

	players := make([]models.GameRecordPlayer, 0, len(ranked))
	placement := 0
	prevScore := -1
	for i, p := range ranked {
		if p.Score != prevScore {
			placement = i + 1
			prevScore = p.Score
		}
		rounds := ""
		for _, h := range room.History {
			if h.PlayerName == p.Name {
				rounds = strings.Join(h.Rounds, "")
				break
			}
		}
		players = append(players, models.GameRecordPlayer{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			FinalScore:   p.Score,
			Placement:    placement,
			Won:          placement == 1 && !tied,
			RoundsPlayed: rounds,
		})
	}

	go func() {
		db := database.GetDB()
		if db == nil {
			return
		}
		if err := db.Create(&record).Error; err != nil {
			log.Printf("⚠️ Failed to persist game record for room %s: %v", record.RoomCode, err)
			return
		}
		for i := range players {
			players[i].RecordID = record.ID
		}
		if len(players) > 0 {
			if err := db.Create(&players).Error; err != nil {
				log.Printf("⚠️ Failed to persist game players for room %s: %v", record.RoomCode, err)
				return
			}
		}
		log.Printf("💾 Persisted game %s (room %s, %d players)", record.SessionID, record.RoomCode, len(players))
	}()
}

// --- Disconnects ---

// Disconnect removes a departed session from whichever room holds it,
// synthesizing losing submissions for any phase in flight so the round can
// still complete.
func (s *GameService) Disconnect(c Client) {
	id := c.SessionID()
	for _, room := range s.registry.Rooms() {
		room.mu.Lock()
		p := room.findPlayer(id)
		if p == nil {
			room.mu.Unlock()
			continue
		}
		s.removePlayer(room, p)
		room.mu.Unlock()
		return
	}
}

// removePlayer runs locked.
func (s *GameService) removePlayer(room *Room, p *Player) {
	if room.State == StateRiddle && !p.IsSpectator {
		if _, ok := room.RiddleAnswers[p.ID]; !ok {
			room.RiddleAnswers[p.ID] = &models.RiddleSubmission{
				Answer:     "",
				PlayerName: p.Name,
				Timestamp:  time.Now(),
			}
		}
	}
	if room.State == StateChallenge && room.Active != nil {
		room.Active.SynthesizeLoss(p.ID, p.Name)
	}

	for i, q := range room.Players {
		if q == p {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}
	log.Printf("👋 %s left room %s", p.Name, room.Code)

	if len(room.Players) == 0 {
		room.stopTimer()
		room.bumpEpoch()
		s.registry.Delete(room.Code)
		log.Printf("🗑️ Room %s deleted (empty)", room.Code)
		return
	}

	newOwner := ""
	if room.OwnerID == p.ID {
		room.OwnerID = room.Players[0].ID
		newOwner = room.Players[0].Name
		log.Printf("👑 Ownership of room %s transferred to %s", room.Code, newOwner)
	}

	room.broadcast("player-left", map[string]any{
		"playerName": p.Name,
		"newOwner":   newOwner,
		"players":    room.views(),
	})

	if room.State == StateWaiting {
		return
	}

	active := room.activePlayers()
	if len(active) == 0 {
		s.abortGame(room)
		return
	}

	switch room.State {
	case StateRiddle:
		count := 0
		for _, q := range active {
			if _, ok := room.RiddleAnswers[q.ID]; ok {
				count++
			}
		}
		if count >= len(active) && room.tryCompletePhase(room.phaseSeq) {
			s.endRiddlePhase(room)
		}
	case StateChallenge:
		if room.Active != nil && room.Active.Complete() && room.tryCompletePhase(room.phaseSeq) {
			s.finishChallenge(room)
		}
	}
}

// abortGame returns a room to the lobby when no active players remain
// mid-game. Spectators become regular players so the survivors can restart.
// Runs locked.
func (s *GameService) abortGame(room *Room) {
	log.Printf("🛑 Game aborted in room %s, no active players left", room.Code)
	room.stopTimer()
	room.bumpEpoch()
	room.phaseDone = true
	room.State = StateWaiting
	room.CurrentRound = 0
	room.RiddleWinner = ""
	room.Active = nil
	room.RiddleAnswers = make(map[string]*models.RiddleSubmission)
	for _, q := range room.Players {
		q.IsSpectator = false
		q.JoinedAtRound = 0
		q.Score = 0
	}
	room.broadcast("game-ended", map[string]any{
		"message": "Not enough players to continue. Returning to the lobby.",
		"players": room.views(),
	})
}

// --- Diagnostics and maintenance ---

// RoomSummary is a lock-consistent snapshot for the debug endpoints.
type RoomSummary struct {
	Code           string              `json:"code"`
	State          GameState           `json:"state"`
	Round          int                 `json:"round"`
	MaxRounds      int                 `json:"maxRounds"`
	Players        []models.PlayerView `json:"players"`
	ChallengeOrder []string            `json:"challengeOrder"`
	CreatedAt      time.Time           `json:"createdAt"`
	LastActivity   time.Time           `json:"lastActivity"`
}

func (s *GameService) Snapshot() []RoomSummary {
	rooms := s.registry.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		out = append(out, RoomSummary{
			Code:           room.Code,
			State:          room.State,
			Round:          room.CurrentRound,
			MaxRounds:      room.MaxRounds,
			Players:        room.views(),
			ChallengeOrder: append([]string(nil), room.ShuffledChallengeTypes...),
			CreatedAt:      room.CreatedAt,
			LastActivity:   room.LastActivity,
		})
		room.mu.Unlock()
	}
	return out
}

// CleanupIdleRooms deletes lobbies idle longer than maxIdle. In-game rooms
// are left alone; disconnect handling already deletes emptied rooms.
func (s *GameService) CleanupIdleRooms(maxIdle time.Duration) int {
	removed := 0
	cutoff := time.Now().Add(-maxIdle)
	for _, room := range s.registry.Rooms() {
		room.mu.Lock()
		idle := room.State == StateWaiting && room.LastActivity.Before(cutoff)
		if idle {
			room.broadcast("room-closed", map[string]any{
				"message": "Room closed due to inactivity",
			})
			room.stopTimer()
			room.bumpEpoch()
			s.registry.Delete(room.Code)
			removed++
			log.Printf("🧹 Room %s removed after idling since %s", room.Code, room.LastActivity.Format(time.RFC3339))
		}
		room.mu.Unlock()
	}
	return removed
}
