// services/content.go - Static content provider: riddle and trivia banks with
// per-room used-index tracking, plus oracle flavor lines.
package services

import (
	"fmt"
	"math/rand"

	"aioracle/models"
)

// UsedSet tracks indices already handed out from a fixed-size pool so a room
// never sees the same entry twice in one session. When the pool is exhausted
// the set resets and starts over.
type UsedSet struct {
	used map[int]bool
}

func NewUsedSet() *UsedSet {
	return &UsedSet{used: make(map[int]bool)}
}

// Pick returns a random index in [0, total) that has not been handed out yet,
// marking it used. Resets once all indices have been consumed.
func (u *UsedSet) Pick(total int) int {
	if total <= 0 {
		return 0
	}
	if len(u.used) >= total {
		u.used = make(map[int]bool)
	}
	fresh := make([]int, 0, total-len(u.used))
	for i := 0; i < total; i++ {
		if !u.used[i] {
			fresh = append(fresh, i)
		}
	}
	idx := fresh[rand.Intn(len(fresh))]
	u.used[idx] = true
	return idx
}

// Seen reports whether an index has been handed out since the last reset.
func (u *UsedSet) Seen(idx int) bool {
	return u.used[idx]
}

// Count returns how many indices are currently marked used.
func (u *UsedSet) Count() int {
	return len(u.used)
}

// ContentService serves riddles, trivia questions and oracle flavor text from
// in-process banks. Used-index state lives with the room, not here, so the
// service itself is stateless and shared across rooms.
type ContentService struct {
	riddles []models.Riddle
	trivia  []models.TriviaQuestion
}

func NewContentService() *ContentService {
	return &ContentService{
		riddles: riddleBank,
		trivia:  triviaBank,
	}
}

// RiddleCount returns the size of the riddle bank.
func (s *ContentService) RiddleCount() int { return len(s.riddles) }

// TriviaCount returns the size of the trivia bank.
func (s *ContentService) TriviaCount() int { return len(s.trivia) }

// PickRiddle returns an unused riddle for the session and its bank index.
func (s *ContentService) PickRiddle(used *UsedSet) (models.Riddle, int) {
	idx := used.Pick(len(s.riddles))
	return s.riddles[idx], idx
}

// PickTrivia returns an unused trivia question for the session and its index.
func (s *ContentService) PickTrivia(used *UsedSet) (models.TriviaQuestion, int) {
	idx := used.Pick(len(s.trivia))
	return s.trivia[idx], idx
}

// DetectiveChoice renders an unused riddle as multiple choice: the correct
// answer plus three decoy answers drawn from other bank entries, shuffled.
func (s *ContentService) DetectiveChoice(used *UsedSet) models.MultipleChoice {
	idx := used.Pick(len(s.riddles))
	riddle := s.riddles[idx]

	options := []string{riddle.Answer}
	seen := map[string]bool{riddle.Answer: true}
	for _, j := range rand.Perm(len(s.riddles)) {
		if len(options) == 4 {
			break
		}
		decoy := s.riddles[j].Answer
		if seen[decoy] {
			continue
		}
		seen[decoy] = true
		options = append(options, decoy)
	}

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correct := 0
	for i, opt := range options {
		if opt == riddle.Answer {
			correct = i
			break
		}
	}

	return models.MultipleChoice{
		Question:     riddle.Question,
		Options:      options,
		CorrectIndex: correct,
	}
}

var balloonColors = []string{"red", "blue", "green", "yellow", "purple", "orange", "pink", "white"}

// NewMemoryQuiz generates 7-9 balloons (unique numbers 1-20, each with one of
// 8 colors) and one question about them with its precomputed answer.
func NewMemoryQuiz() models.MemoryQuiz {
	count := 7 + rand.Intn(3)
	numbers := rand.Perm(20)[:count]

	balloons := make([]models.Balloon, count)
	colorCount := make(map[string]int)
	for i, n := range numbers {
		color := balloonColors[rand.Intn(len(balloonColors))]
		balloons[i] = models.Balloon{Number: n + 1, Color: color}
		colorCount[color]++
	}

	quiz := models.MemoryQuiz{Balloons: balloons}
	target := balloons[rand.Intn(count)]

	switch rand.Intn(4) {
	case 0:
		quiz.Question = fmt.Sprintf("What color was the balloon with number %d?", target.Number)
		quiz.Answer = target.Color
	case 1:
		quiz.Question = "How many balloons were there in total?"
		quiz.Answer = fmt.Sprintf("%d", count)
	case 2:
		// Ask about a number that may or may not have been present.
		probe := rand.Intn(20) + 1
		quiz.Question = fmt.Sprintf("Was there a balloon with number %d? (yes/no)", probe)
		quiz.Answer = "no"
		for _, b := range balloons {
			if b.Number == probe {
				quiz.Answer = "yes"
				break
			}
		}
	default:
		quiz.Question = fmt.Sprintf("How many %s balloons were there?", target.Color)
		quiz.Answer = fmt.Sprintf("%d", colorCount[target.Color])
	}

	return quiz
}

var oracleIntroductions = []string{
	"🤖 I AM THE ORACLE! Your inferior minds will face my complex challenges!",
	"💀 Mortals... prepare for tests that will strain your thinking!",
	"⚡ I am the AI overlord! My challenges grow more cunning each round!",
	"🔥 Welcome to intellectual warfare! Can your minds handle the complexity?",
}

// OracleIntroduction returns a random round-intro flavor line.
func (s *ContentService) OracleIntroduction() string {
	return oracleIntroductions[rand.Intn(len(oracleIntroductions))]
}

var riddleBank = []models.Riddle{
	{Question: "I speak without a mouth and hear without ears. What am I?", Answer: "ECHO", Difficulty: "easy"},
	{Question: "The more you take, the more you leave behind. What am I?", Answer: "FOOTSTEPS", Difficulty: "easy"},
	{Question: "I have cities, but no houses. I have mountains, but no trees. What am I?", Answer: "MAP", Difficulty: "medium"},
	{Question: "What has keys but no locks, space but no room, and you can enter but not go inside?", Answer: "KEYBOARD", Difficulty: "medium"},
	{Question: "What gets wet while drying?", Answer: "TOWEL", Difficulty: "easy"},
	{Question: "I am not alive, but I grow; I don't have lungs, but I need air. What am I?", Answer: "FIRE", Difficulty: "medium"},
	{Question: "What comes once in a minute, twice in a moment, but never in a thousand years?", Answer: "M", Difficulty: "hard"},
	{Question: "I have a golden head and a golden tail, but no body. What am I?", Answer: "COIN", Difficulty: "easy"},
	{Question: "I am tall when I am young, and short when I am old. What am I?", Answer: "CANDLE", Difficulty: "medium"},
	{Question: "What has one head, one foot, and four legs?", Answer: "BED", Difficulty: "medium"},
	{Question: "What can travel around the world while staying in a corner?", Answer: "STAMP", Difficulty: "hard"},
	{Question: "I can be cracked, made, told, and played. What am I?", Answer: "JOKE", Difficulty: "medium"},
	{Question: "What has hands but cannot clap?", Answer: "CLOCK", Difficulty: "easy"},
	{Question: "What runs around the whole yard without moving?", Answer: "FENCE", Difficulty: "medium"},
	{Question: "What has a neck but no head?", Answer: "BOTTLE", Difficulty: "easy"},
	{Question: "What can fill a room but takes up no space?", Answer: "LIGHT", Difficulty: "easy"},
	{Question: "What word is spelled incorrectly in every dictionary?", Answer: "INCORRECTLY", Difficulty: "easy"},
	{Question: "What goes up but never comes down?", Answer: "AGE", Difficulty: "easy"},
	{Question: "What has teeth but cannot bite?", Answer: "ZIPPER", Difficulty: "medium"},
	{Question: "What has an eye but cannot see?", Answer: "NEEDLE", Difficulty: "medium"},
	{Question: "What gets sharper the more you use it?", Answer: "BRAIN", Difficulty: "medium"},
	{Question: "What is always in front of you but can't be seen?", Answer: "FUTURE", Difficulty: "medium"},
	{Question: "What is so fragile that saying its name breaks it?", Answer: "SILENCE", Difficulty: "hard"},
	{Question: "What has a thumb and four fingers but is not alive?", Answer: "GLOVE", Difficulty: "easy"},
	{Question: "What gets bigger when more is taken away from it?", Answer: "HOLE", Difficulty: "medium"},
	{Question: "What is full of holes but still holds water?", Answer: "SPONGE", Difficulty: "easy"},
	{Question: "What can you catch but not throw?", Answer: "COLD", Difficulty: "medium"},
	{Question: "What has many keys but can't open any doors?", Answer: "PIANO", Difficulty: "medium"},
	{Question: "What goes through towns and hills but never moves?", Answer: "ROAD", Difficulty: "medium"},
	{Question: "What has four legs but cannot walk?", Answer: "TABLE", Difficulty: "easy"},
	{Question: "What can you break without hitting or dropping it?", Answer: "PROMISE", Difficulty: "hard"},
	{Question: "What starts with T, ends with T, and has T in it?", Answer: "TEAPOT", Difficulty: "medium"},
	{Question: "What can you hold without touching it?", Answer: "BREATH", Difficulty: "hard"},
	{Question: "What has a ring but no finger?", Answer: "TELEPHONE", Difficulty: "medium"},
	{Question: "What is taken before you can get it?", Answer: "PICTURE", Difficulty: "medium"},
	{Question: "What has no beginning, end, or middle?", Answer: "CIRCLE", Difficulty: "medium"},
	{Question: "What is cut on a table but never eaten?", Answer: "CARDS", Difficulty: "medium"},
	{Question: "What flies without wings?", Answer: "TIME", Difficulty: "hard"},
	{Question: "What is made of water but if you put it into water it will die?", Answer: "ICE", Difficulty: "medium"},
	{Question: "What belongs to you but others use it more than you do?", Answer: "NAME", Difficulty: "medium"},
	{Question: "What is always coming but never arrives?", Answer: "TOMORROW", Difficulty: "medium"},
	{Question: "What word becomes shorter when you add two letters to it?", Answer: "SHORT", Difficulty: "hard"},
}

var triviaBank = []models.TriviaQuestion{
	{
		Question:      "Which artificial intelligence technique mimics the structure of the human brain?",
		Options:       []string{"Neural Networks", "Decision Trees", "Linear Regression", "K-Means Clustering"},
		CorrectAnswer: 0,
		Difficulty:    "medium",
	},
	{
		Question:      "What is the primary component of Earth's atmosphere that AI systems might struggle to process without proper sensors?",
		Options:       []string{"Oxygen", "Carbon Dioxide", "Nitrogen", "Argon"},
		CorrectAnswer: 2,
		Difficulty:    "medium",
	},
	{
		Question:      "In quantum computing, what phenomenon allows qubits to exist in multiple states simultaneously?",
		Options:       []string{"Entanglement", "Superposition", "Decoherence", "Tunneling"},
		CorrectAnswer: 1,
		Difficulty:    "above-medium",
	},
	{
		Question:      "Which programming paradigm treats computation as the evaluation of mathematical functions?",
		Options:       []string{"Object-Oriented", "Procedural", "Functional", "Assembly"},
		CorrectAnswer: 2,
		Difficulty:    "medium",
	},
	{
		Question:      "What is the term for AI systems that can perform any intellectual task that humans can do?",
		Options:       []string{"Narrow AI", "General AI", "Super AI", "Weak AI"},
		CorrectAnswer: 1,
		Difficulty:    "medium",
	},
	{
		Question:      "Which cryptographic algorithm is considered quantum-resistant?",
		Options:       []string{"RSA", "ECC", "Lattice-based", "SHA-256"},
		CorrectAnswer: 2,
		Difficulty:    "above-medium",
	},
	{
		Question:      "In machine learning, what technique prevents overfitting by randomly setting some neurons to zero during training?",
		Options:       []string{"Batch Normalization", "Dropout", "Regularization", "Cross-validation"},
		CorrectAnswer: 1,
		Difficulty:    "above-medium",
	},
	{
		Question:      "Which data structure provides O(1) average time complexity for insertions, deletions, and lookups?",
		Options:       []string{"Binary Tree", "Hash Table", "Linked List", "Array"},
		CorrectAnswer: 1,
		Difficulty:    "medium",
	},
	{
		Question:      "In cybersecurity, what attack vector exploits the time difference in cryptographic operations?",
		Options:       []string{"SQL Injection", "Timing Attack", "Buffer Overflow", "Man-in-the-Middle"},
		CorrectAnswer: 1,
		Difficulty:    "above-medium",
	},
	{
		Question:      "Which mathematical concept is fundamental to understanding neural network backpropagation?",
		Options:       []string{"Linear Algebra", "Chain Rule", "Fourier Transform", "Bayes' Theorem"},
		CorrectAnswer: 1,
		Difficulty:    "medium",
	},
	{
		Question:      "In distributed systems, what problem does the Byzantine Generals Problem address?",
		Options:       []string{"Load Balancing", "Consensus", "Data Replication", "Network Partitioning"},
		CorrectAnswer: 1,
		Difficulty:    "above-medium",
	},
	{
		Question:      "What is the fundamental unit of information in quantum computing?",
		Options:       []string{"Bit", "Byte", "Qubit", "Photon"},
		CorrectAnswer: 2,
		Difficulty:    "medium",
	},
	{
		Question:      "Which AI ethics principle focuses on ensuring AI systems can explain their decision-making process?",
		Options:       []string{"Fairness", "Transparency", "Accountability", "Privacy"},
		CorrectAnswer: 1,
		Difficulty:    "medium",
	},
	{
		Question:      "In game theory, what strategy always chooses the option that minimizes the maximum possible loss?",
		Options:       []string{"Nash Equilibrium", "Minimax", "Dominant Strategy", "Pareto Optimal"},
		CorrectAnswer: 1,
		Difficulty:    "medium",
	},
	{
		Question:      "What is the primary advantage of using transformer architecture in large language models?",
		Options:       []string{"Lower Memory Usage", "Parallel Processing", "Smaller Model Size", "Faster Training"},
		CorrectAnswer: 1,
		Difficulty:    "above-medium",
	},
	{
		Question:      "What is the primary bottleneck in current AI systems when processing real-world data?",
		Options:       []string{"Computational Speed", "Memory Bandwidth", "Context Understanding", "Power Consumption"},
		CorrectAnswer: 2,
		Difficulty:    "above-medium",
	},
}
