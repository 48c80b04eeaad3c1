// services/timing.go - Pacing constants for the round loop.
package services

import "time"

// Timing holds every delay and countdown the orchestrator uses. Tests swap in
// millisecond values; production uses DefaultTiming.
type Timing struct {
	// Round flow
	IntroDelay          time.Duration // oracle introduction before the riddle appears
	RiddleCountdown     time.Duration
	RevealDelay         time.Duration // riddle results on screen before the challenge phase
	ChallengeIntroDelay time.Duration // challenge announcement before the challenge starts
	ResultsDelay        time.Duration // challenge results on screen before the round summary
	RoundGap            time.Duration // round summary on screen before the next round

	// Challenge countdowns. Grace covers client-side animation and network
	// slack on top of the advertised time limit.
	TapDuration          time.Duration
	TapGrace             time.Duration
	ChoiceCountdown      time.Duration // trivia and detective
	ChoiceGrace          time.Duration
	NegotiatorCountdown  time.Duration
	DangerCountdown      time.Duration
	FreeTextGrace        time.Duration
	MemoryDisplay        time.Duration
	MemoryAnswer         time.Duration
	MemoryGrace          time.Duration

	// Free-text evaluation
	EvalPacing    time.Duration // gap between per-player verdict reveals
	PostEvalDelay time.Duration // last verdict on screen before the round summary
	OracleTimeout time.Duration // budget for one upstream model call
}

func DefaultTiming() Timing {
	return Timing{
		IntroDelay:          2500 * time.Millisecond,
		RiddleCountdown:     45 * time.Second,
		RevealDelay:         1500 * time.Millisecond,
		ChallengeIntroDelay: 500 * time.Millisecond,
		ResultsDelay:        6 * time.Second,
		RoundGap:            12 * time.Second,

		TapDuration:         10 * time.Second,
		TapGrace:            2 * time.Second,
		ChoiceCountdown:     30 * time.Second,
		ChoiceGrace:         2 * time.Second,
		NegotiatorCountdown: 45 * time.Second,
		DangerCountdown:     40 * time.Second,
		FreeTextGrace:       5 * time.Second,
		MemoryDisplay:       8 * time.Second,
		MemoryAnswer:        20 * time.Second,
		MemoryGrace:         2 * time.Second,

		EvalPacing:    3 * time.Second,
		PostEvalDelay: 5 * time.Second,
		OracleTimeout: 6 * time.Second,
	}
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
