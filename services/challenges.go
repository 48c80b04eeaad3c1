// services/challenges.go - The five mini-challenge variants. Each implements
// Challenge: the orchestrator drives the phase (start, countdown, completion)
// while the variant owns its submissions and its own evaluation.
package services

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"aioracle/models"
)

// Challenge type names as they appear in the per-room shuffled cycle and on
// the wire. The negotiator slot covers both free-text flavors.
const (
	ChallengeNegotiator = KindNegotiator
	ChallengeDetective  = "detective"
	ChallengeTrivia     = "multipleChoiceTrivia"
	ChallengeFastTapper = "fastTapper"
	ChallengeMemory     = "memoryBalloon"
)

// Submission is one parsed player input. Each variant reads only the fields
// that apply to it.
type Submission struct {
	Text   string
	Option int
	Taps   int
}

// ChallengeEnv is what a challenge may reach during evaluation. Broadcast and
// SendTo lock the room internally, so Evaluate must run without the room lock.
type ChallengeEnv struct {
	Oracle    *OracleService
	Timing    Timing
	Broadcast func(event string, payload any)
	SendTo    func(playerID, event string, payload any)
}

// Challenge is one round's mini-game. Accept, SynthesizeLoss and the read
// methods are called under the room lock. Seal runs under the lock when the
// phase completes: it fills every missing participant with a losing
// submission and freezes the set, so Evaluate can run afterwards on its own
// goroutine (it may sleep and call the oracle) reading without the lock.
type Challenge interface {
	Kind() string
	StartEvent() (string, map[string]any)
	Countdown(t Timing) time.Duration
	ResultsDelay(t Timing) time.Duration
	IsParticipant(playerID string) bool
	HasSubmitted(playerID string) bool
	Accept(playerID, playerName string, sub Submission) bool
	ProgressEvent(playerName string) (string, map[string]any)
	Complete() bool
	SynthesizeLoss(playerID, playerName string)
	Seal()
	Evaluate(ctx context.Context, env ChallengeEnv) []models.ChallengeResult
}

// participants tracks who may submit to a challenge. Eligibility is frozen at
// challenge start; disconnects synthesize losses instead of shrinking it.
type participants struct {
	ids   []string
	names map[string]string
}

func newParticipants(players []*Player) participants {
	p := participants{names: make(map[string]string, len(players))}
	for _, pl := range players {
		p.ids = append(p.ids, pl.ID)
		p.names[pl.ID] = pl.Name
	}
	return p
}

func (p participants) nameList() []string {
	names := make([]string, 0, len(p.ids))
	for _, id := range p.ids {
		names = append(names, p.names[id])
	}
	return names
}

func (p participants) has(id string) bool {
	_, ok := p.names[id]
	return ok
}

func progressPayload(event, playerName string, submitted, total int) (string, map[string]any) {
	return event, map[string]any{
		"playerName":        playerName,
		"totalSubmissions":  submitted,
		"totalParticipants": total,
	}
}

// --- Free text (negotiator / danger) ---

type textSubmission struct {
	Response string
	At       time.Time
}

// freeTextChallenge is the oracle-judged variant: players write a plan or a
// pitch and the oracle passes or fails each one with feedback.
type freeTextChallenge struct {
	flavor  string // KindNegotiator or KindDanger
	content string
	parts   participants
	order   []string
	subs    map[string]*textSubmission
	sealed  bool
}

// NewFreeTextChallenge builds the oracle-judged variant for one flavor.
// Content generation happens before construction; the challenge itself never
// touches the network at start.
func NewFreeTextChallenge(flavor, content string, players []*Player) Challenge {
	return &freeTextChallenge{
		flavor:  flavor,
		content: content,
		parts:   newParticipants(players),
		subs:    make(map[string]*textSubmission),
	}
}

// PickFreeTextFlavor chooses negotiator or danger for the free-text slot.
func PickFreeTextFlavor() string {
	if rand.Intn(2) == 0 {
		return KindNegotiator
	}
	return KindDanger
}

func (c *freeTextChallenge) Kind() string { return c.flavor }

func (c *freeTextChallenge) StartEvent() (string, map[string]any) {
	return "text-challenge-start", map[string]any{
		"challengeType": c.flavor,
		"challenge":     c.content,
		"participants":  c.parts.nameList(),
	}
}

func (c *freeTextChallenge) Countdown(t Timing) time.Duration {
	if c.flavor == KindNegotiator {
		return t.NegotiatorCountdown + t.FreeTextGrace
	}
	return t.DangerCountdown + t.FreeTextGrace
}

func (c *freeTextChallenge) ResultsDelay(t Timing) time.Duration { return t.PostEvalDelay }

func (c *freeTextChallenge) IsParticipant(id string) bool { return c.parts.has(id) }
func (c *freeTextChallenge) HasSubmitted(id string) bool  { _, ok := c.subs[id]; return ok }

func (c *freeTextChallenge) Accept(id, name string, sub Submission) bool {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) {
		return false
	}
	c.subs[id] = &textSubmission{Response: sub.Text, At: time.Now()}
	c.order = append(c.order, id)
	return true
}

func (c *freeTextChallenge) ProgressEvent(name string) (string, map[string]any) {
	return progressPayload("challenge-response-submitted", name, len(c.subs), len(c.parts.ids))
}

func (c *freeTextChallenge) Complete() bool { return len(c.subs) >= len(c.parts.ids) }

func (c *freeTextChallenge) SynthesizeLoss(id, name string) {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) {
		return
	}
	c.subs[id] = &textSubmission{Response: "", At: time.Now()}
	c.order = append(c.order, id)
}

func (c *freeTextChallenge) Seal() {
	for _, id := range c.parts.ids {
		if !c.HasSubmitted(id) {
			c.subs[id] = &textSubmission{Response: "", At: time.Now()}
			c.order = append(c.order, id)
		}
	}
	c.sealed = true
}

// Evaluate reveals verdicts one player at a time, paced so every player sees
// each judgment land. Participants who never submitted are judged on the
// empty response sealing gave them and fail.
func (c *freeTextChallenge) Evaluate(ctx context.Context, env ChallengeEnv) []models.ChallengeResult {
	env.Broadcast("oracle-speaks", map[string]any{
		"message": "Time is up! I shall now judge each of you in turn...",
		"type":    "evaluation",
	})

	results := make([]models.ChallengeResult, 0, len(c.order))
	for i, id := range c.order {
		if i > 0 {
			time.Sleep(env.Timing.EvalPacing)
		}
		name := c.parts.names[id]
		sub := c.subs[id]

		evalCtx, cancel := context.WithTimeout(ctx, env.Timing.OracleTimeout)
		verdict := env.Oracle.EvaluateResponse(evalCtx, c.content, sub.Response, c.flavor)
		cancel()

		result := models.ChallengeResult{
			PlayerName: name,
			Response:   sub.Response,
			Passed:     verdict.Pass,
			Feedback:   verdict.Feedback,
		}
		results = append(results, result)

		env.SendTo(id, "challenge-individual-result", map[string]any{
			"playerName": name,
			"passed":     verdict.Pass,
			"feedback":   verdict.Feedback,
			"response":   sub.Response,
		})
		env.Broadcast("oracle-speaks", map[string]any{
			"message": verdictLine(name, verdict.Pass),
			"type":    "verdict",
		})
	}
	return results
}

func verdictLine(name string, pass bool) string {
	if pass {
		return "⚖️ " + name + " has satisfied the Oracle. PASS."
	}
	return "⚖️ " + name + " has fallen short. FAIL."
}

// --- Multiple choice (detective riddles and trivia) ---

type choiceAnswer struct {
	Option int
	At     time.Time
}

type multipleChoiceChallenge struct {
	kind       string
	question   models.MultipleChoice
	startName  string
	resultName string
	progName   string
	countdown  func(Timing) time.Duration
	parts      participants
	order      []string
	answers    map[string]*choiceAnswer
	sealed     bool
}

// NewDetectiveChallenge wraps a riddle-bank entry rendered as multiple choice.
func NewDetectiveChallenge(q models.MultipleChoice, players []*Player) Challenge {
	return &multipleChoiceChallenge{
		kind:       ChallengeDetective,
		question:   q,
		startName:  "riddle-challenge-start",
		resultName: "riddle-challenge-results",
		progName:   "riddle-answer-submitted",
		countdown:  func(t Timing) time.Duration { return t.ChoiceCountdown + t.ChoiceGrace },
		parts:      newParticipants(players),
		answers:    make(map[string]*choiceAnswer),
	}
}

// NewTriviaChallenge wraps a trivia-bank question.
func NewTriviaChallenge(q models.TriviaQuestion, players []*Player) Challenge {
	return &multipleChoiceChallenge{
		kind: ChallengeTrivia,
		question: models.MultipleChoice{
			Question:     q.Question,
			Options:      q.Options,
			CorrectIndex: q.CorrectAnswer,
		},
		startName:  "trivia-challenge-start",
		resultName: "trivia-results",
		progName:   "trivia-answer-submitted",
		countdown:  func(t Timing) time.Duration { return t.ChoiceCountdown + t.ChoiceGrace },
		parts:      newParticipants(players),
		answers:    make(map[string]*choiceAnswer),
	}
}

func (c *multipleChoiceChallenge) Kind() string { return c.kind }

func (c *multipleChoiceChallenge) StartEvent() (string, map[string]any) {
	return c.startName, map[string]any{
		"question":     c.question.Question,
		"options":      c.question.Options,
		"participants": c.parts.nameList(),
	}
}

func (c *multipleChoiceChallenge) Countdown(t Timing) time.Duration     { return c.countdown(t) }
func (c *multipleChoiceChallenge) ResultsDelay(t Timing) time.Duration  { return t.ResultsDelay }
func (c *multipleChoiceChallenge) IsParticipant(id string) bool         { return c.parts.has(id) }
func (c *multipleChoiceChallenge) HasSubmitted(id string) bool          { _, ok := c.answers[id]; return ok }

func (c *multipleChoiceChallenge) Accept(id, name string, sub Submission) bool {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) {
		return false
	}
	c.answers[id] = &choiceAnswer{Option: sub.Option, At: time.Now()}
	c.order = append(c.order, id)
	return true
}

func (c *multipleChoiceChallenge) ProgressEvent(name string) (string, map[string]any) {
	return progressPayload(c.progName, name, len(c.answers), len(c.parts.ids))
}

func (c *multipleChoiceChallenge) Complete() bool { return len(c.answers) >= len(c.parts.ids) }

func (c *multipleChoiceChallenge) SynthesizeLoss(id, name string) {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) {
		return
	}
	c.answers[id] = &choiceAnswer{Option: -1, At: time.Now()}
	c.order = append(c.order, id)
}

func (c *multipleChoiceChallenge) Seal() {
	for _, id := range c.parts.ids {
		if !c.HasSubmitted(id) {
			c.answers[id] = &choiceAnswer{Option: -1, At: time.Now()}
			c.order = append(c.order, id)
		}
	}
	c.sealed = true
}

// Evaluate awards the win to the earliest correct answer by server receipt
// time. Answers carrying the same timestamp share the win.
func (c *multipleChoiceChallenge) Evaluate(ctx context.Context, env ChallengeEnv) []models.ChallengeResult {
	var winningAt time.Time
	for _, id := range c.order {
		a := c.answers[id]
		if a.Option != c.question.CorrectIndex {
			continue
		}
		if winningAt.IsZero() || a.At.Before(winningAt) {
			winningAt = a.At
		}
	}

	ordered := append([]string(nil), c.order...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return c.answers[ordered[i]].At.Before(c.answers[ordered[j]].At)
	})

	results := make([]models.ChallengeResult, 0, len(ordered))
	for _, id := range ordered {
		a := c.answers[id]
		correct := a.Option == c.question.CorrectIndex
		selected := ""
		if a.Option >= 0 && a.Option < len(c.question.Options) {
			selected = c.question.Options[a.Option]
		}
		results = append(results, models.ChallengeResult{
			PlayerName:     c.parts.names[id],
			Answer:         a.Option,
			SelectedOption: selected,
			Correct:        correct,
			Won:            correct && a.At.Equal(winningAt),
		})
	}

	env.Broadcast(c.resultName, map[string]any{
		"results":       results,
		"correctAnswer": c.question.CorrectIndex,
		"correctOption": c.question.Options[c.question.CorrectIndex],
	})
	return results
}

// --- Fast tapper ---

type tapResult struct {
	Taps int
	At   time.Time
}

type tapChallenge struct {
	parts  participants
	order  []string
	taps   map[string]*tapResult
	sealed bool
}

func NewTapChallenge(players []*Player) Challenge {
	return &tapChallenge{
		parts: newParticipants(players),
		taps:  make(map[string]*tapResult),
	}
}

func (c *tapChallenge) Kind() string { return ChallengeFastTapper }

func (c *tapChallenge) StartEvent() (string, map[string]any) {
	return "fast-tapper-start", map[string]any{
		"participants": c.parts.nameList(),
	}
}

// Tapping happens client side for the advertised duration; the countdown only
// bounds how long the server waits for reported totals.
func (c *tapChallenge) Countdown(t Timing) time.Duration    { return t.TapDuration + t.TapGrace }
func (c *tapChallenge) ResultsDelay(t Timing) time.Duration { return t.ResultsDelay }
func (c *tapChallenge) IsParticipant(id string) bool        { return c.parts.has(id) }
func (c *tapChallenge) HasSubmitted(id string) bool         { _, ok := c.taps[id]; return ok }

func (c *tapChallenge) Accept(id, name string, sub Submission) bool {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) || sub.Taps < 0 {
		return false
	}
	c.taps[id] = &tapResult{Taps: sub.Taps, At: time.Now()}
	c.order = append(c.order, id)
	return true
}

func (c *tapChallenge) ProgressEvent(name string) (string, map[string]any) {
	return progressPayload("tap-result-submitted", name, len(c.taps), len(c.parts.ids))
}

func (c *tapChallenge) Complete() bool { return len(c.taps) >= len(c.parts.ids) }

func (c *tapChallenge) SynthesizeLoss(id, name string) {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) {
		return
	}
	c.taps[id] = &tapResult{Taps: 0, At: time.Now()}
	c.order = append(c.order, id)
}

func (c *tapChallenge) Seal() {
	for _, id := range c.parts.ids {
		if !c.HasSubmitted(id) {
			c.taps[id] = &tapResult{Taps: 0, At: time.Now()}
			c.order = append(c.order, id)
		}
	}
	c.sealed = true
}

// Evaluate ranks by tap count. The highest count wins; ties share the win.
// A zero top score wins nothing.
func (c *tapChallenge) Evaluate(ctx context.Context, env ChallengeEnv) []models.ChallengeResult {
	maxTaps := 0
	for _, r := range c.taps {
		if r.Taps > maxTaps {
			maxTaps = r.Taps
		}
	}

	ordered := append([]string(nil), c.order...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return c.taps[ordered[i]].Taps > c.taps[ordered[j]].Taps
	})

	results := make([]models.ChallengeResult, 0, len(ordered))
	for _, id := range ordered {
		r := c.taps[id]
		results = append(results, models.ChallengeResult{
			PlayerName: c.parts.names[id],
			Taps:       r.Taps,
			Won:        maxTaps > 0 && r.Taps == maxTaps,
		})
	}

	env.Broadcast("fast-tapper-results", map[string]any{
		"results": results,
		"maxTaps": maxTaps,
	})
	return results
}

// --- Memory balloons ---

type memoryAnswer struct {
	Answer string
	At     time.Time
}

type memoryChallenge struct {
	quiz    models.MemoryQuiz
	parts   participants
	order   []string
	answers map[string]*memoryAnswer
	sealed  bool
}

func NewMemoryChallenge(quiz models.MemoryQuiz, players []*Player) Challenge {
	return &memoryChallenge{
		quiz:    quiz,
		parts:   newParticipants(players),
		answers: make(map[string]*memoryAnswer),
	}
}

func (c *memoryChallenge) Kind() string { return ChallengeMemory }

func (c *memoryChallenge) StartEvent() (string, map[string]any) {
	return "memory-challenge-start", map[string]any{
		"balloons":     c.quiz.Balloons,
		"question":     c.quiz.Question,
		"participants": c.parts.nameList(),
	}
}

func (c *memoryChallenge) Countdown(t Timing) time.Duration {
	return t.MemoryDisplay + t.MemoryAnswer + t.MemoryGrace
}

func (c *memoryChallenge) ResultsDelay(t Timing) time.Duration { return t.ResultsDelay }
func (c *memoryChallenge) IsParticipant(id string) bool        { return c.parts.has(id) }
func (c *memoryChallenge) HasSubmitted(id string) bool         { _, ok := c.answers[id]; return ok }

func (c *memoryChallenge) Accept(id, name string, sub Submission) bool {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) {
		return false
	}
	c.answers[id] = &memoryAnswer{Answer: sub.Text, At: time.Now()}
	c.order = append(c.order, id)
	return true
}

func (c *memoryChallenge) ProgressEvent(name string) (string, map[string]any) {
	return progressPayload("memory-answer-submitted", name, len(c.answers), len(c.parts.ids))
}

func (c *memoryChallenge) Complete() bool { return len(c.answers) >= len(c.parts.ids) }

func (c *memoryChallenge) SynthesizeLoss(id, name string) {
	if c.sealed || !c.parts.has(id) || c.HasSubmitted(id) {
		return
	}
	c.answers[id] = &memoryAnswer{Answer: "", At: time.Now()}
	c.order = append(c.order, id)
}

func (c *memoryChallenge) Seal() {
	for _, id := range c.parts.ids {
		if !c.HasSubmitted(id) {
			c.answers[id] = &memoryAnswer{Answer: "", At: time.Now()}
			c.order = append(c.order, id)
		}
	}
	c.sealed = true
}

// Evaluate marks every exact match a winner; memory is not a race.
func (c *memoryChallenge) Evaluate(ctx context.Context, env ChallengeEnv) []models.ChallengeResult {
	ordered := append([]string(nil), c.order...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return c.answers[ordered[i]].At.Before(c.answers[ordered[j]].At)
	})

	results := make([]models.ChallengeResult, 0, len(ordered))
	for _, id := range ordered {
		a := c.answers[id]
		correct := c.quiz.MatchesAnswer(a.Answer)
		results = append(results, models.ChallengeResult{
			PlayerName: c.parts.names[id],
			Response:   a.Answer,
			Correct:    correct,
			Won:        correct,
		})
	}

	env.Broadcast("memory-results", map[string]any{
		"results":       results,
		"correctAnswer": c.quiz.Answer,
	})
	return results
}
