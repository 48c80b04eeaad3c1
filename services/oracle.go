// services/oracle.go - The Oracle: AI-generated challenge content and response
// judging via the Gemini REST API, with deterministic local fallbacks so a
// failing or slow external call never blocks a game.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Challenge kinds the oracle can generate free-text content for.
const (
	KindNegotiator = "negotiator"
	KindDanger     = "danger"
)

const (
	maxContentLength    = 400
	maxNegotiatorLength = 150
	maxFeedbackLength   = 350
	// Responses shorter than this fail the no-AI length heuristic.
	minEffortLength = 40
)

type OracleService struct {
	client *http.Client
	apiKey string
	apiURL string
	model  string
}

// NewOracleService builds an oracle from environment configuration. Without
// GEMINI_API_KEY every call resolves locally from the fallback pools.
func NewOracleService() *OracleService {
	apiURL := os.Getenv("GEMINI_API_URL")
	if apiURL == "" {
		apiURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &OracleService{
		client: &http.Client{Timeout: 6 * time.Second},
		apiKey: os.Getenv("GEMINI_API_KEY"),
		apiURL: apiURL,
		model:  model,
	}
}

func (s *OracleService) IsAvailable() bool {
	return s.apiKey != ""
}

// Gemini generateContent request/response shapes (only the fields we read).
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *OracleService) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.apiURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(body, &gemResp); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if gemResp.Error != nil {
		return "", fmt.Errorf("API error: %s", gemResp.Error.Message)
	}
	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from AI")
	}
	return gemResp.Candidates[0].Content.Parts[0].Text, nil
}

var (
	quoteEdges   = regexp.MustCompile(`^["']|["']$`)
	multiSpace   = regexp.MustCompile(`\s+`)
	unsafeChars  = regexp.MustCompile(`[^\w\s.,!?;:()\-'"]`)
	passPattern  = regexp.MustCompile(`(?i)PASS`)
	verdictWords = regexp.MustCompile(`(?i)PASS|FAIL`)
)

func sanitize(text string, limit int) string {
	cleaned := strings.TrimSpace(text)
	cleaned = quoteEdges.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "\n", " ")
	cleaned = unsafeChars.ReplaceAllString(cleaned, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > limit {
		cleaned = cleaned[:limit-3] + "..."
	}
	return cleaned
}

var challengePrompts = map[string]string{
	KindNegotiator: `Create a fun, short negotiation challenge. Keep it simple and playful, 20-30 words max. Player must convince someone to do something. Make it quirky or amusing. Example: "Convince your cat to get off your keyboard while you're working from home."`,
	KindDanger:     `Create a unique AI-themed survival scenario that requires creative problem-solving. Include malfunctioning technology, AI systems, or futuristic dangers. Make it challenging but not impossible. 50-70 words max. Example: "An AI virus has infected your smart home, sealing all exits and raising the temperature to dangerous levels. You have a smartphone, emergency toolkit, and access to the home's backup power system. How do you escape and outsmart the AI?"`,
}

var fallbackChallenges = map[string][]string{
	KindNegotiator: {
		"Convince your pet parrot to stop repeating your embarrassing phone conversations to guests.",
		"Convince your neighbor's loud dog to stop barking at 3 AM by offering it something irresistible.",
		"Convince your smart home AI to unlock the doors after it's decided you're 'not authorized' due to a software glitch that doesn't recognize your voice patterns.",
	},
	KindDanger: {
		"You're aboard a malfunctioning AI-controlled spacecraft hurtling toward a black hole. The AI has locked all manual controls and is systematically shutting down life support systems. You have access to the ship's quantum computer core, emergency thruster controls, and a neural interface headset. How do you regain control and escape?",
		"You're trapped in a collapsing mine shaft 200 feet underground. Your oxygen tank is damaged and leaking. You have a pickaxe, emergency flares, and a rope. The main tunnel is blocked but you can hear water flowing somewhere. How do you escape?",
		"You're trapped in an automated research facility where the AI security system has malfunctioned and declared you an intruder. Laser grids are activating, doors are sealing, and oxygen is being redirected. You have a tablet with partial admin access, an electromagnetic pulse device with one charge, and a maintenance drone you can reprogram. How do you escape before it adapts completely?",
	},
}

// FallbackChallenge picks an entry from the local pool for a kind, preferring
// entries the room has not seen this session.
func FallbackChallenge(kind string, used *UsedSet) string {
	pool := fallbackChallenges[kind]
	if len(pool) == 0 {
		return "Complete this challenge to survive!"
	}
	return pool[used.Pick(len(pool))]
}

// GenerateChallenge produces free-text challenge content for a kind. On any
// external failure (no key, timeout, garbage output) it falls back to the
// local pool; callers never see an error.
func (s *OracleService) GenerateChallenge(ctx context.Context, kind string, round int, usedFallbacks *UsedSet) string {
	if !s.IsAvailable() {
		content := FallbackChallenge(kind, usedFallbacks)
		log.Printf("🔮 Using fallback %s challenge for round %d", kind, round)
		return content
	}

	prompt, ok := challengePrompts[kind]
	if !ok {
		return FallbackChallenge(kind, usedFallbacks)
	}

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		log.Printf("⚠️ AI challenge generation failed (%s): %v", kind, err)
		return FallbackChallenge(kind, usedFallbacks)
	}

	limit := maxContentLength
	if kind == KindNegotiator {
		limit = maxNegotiatorLength
	}
	cleaned := sanitize(raw, limit)
	if len(cleaned) < 10 {
		log.Printf("⚠️ AI generated empty or too short %s content, using fallback", kind)
		return FallbackChallenge(kind, usedFallbacks)
	}

	log.Printf("🔮 Generated %s challenge (%d chars)", kind, len(cleaned))
	return cleaned
}

// Lazy shortcuts that should be shut down rather than rewarded.
var lazyShortcuts = []*regexp.Regexp{
	regexp.MustCompile(`(?i)shoot|gun|weapon|kill|murder|violence`),
	regexp.MustCompile(`(?i)teleport|magic|supernatural|wizard|spell`),
	regexp.MustCompile(`(?i)cheat|hack|exploit|glitch|bug`),
	regexp.MustCompile(`(?i)call.*police|call.*911|call.*help`),
}

func hasLazyShortcut(response string) bool {
	for _, pattern := range lazyShortcuts {
		if pattern.MatchString(response) {
			return true
		}
	}
	return false
}

const autoSubmitPrefix = "[Auto-submitted] "

// Verdict is the oracle's judgment of one free-text response.
type Verdict struct {
	Pass     bool
	Feedback string
}

// heuristicVerdict is the local judgment used when the AI is unavailable:
// pass when the response shows enough effort by raw length.
func heuristicVerdict(response string, autoSubmitted bool) Verdict {
	pass := len(strings.TrimSpace(response)) >= minEffortLength
	feedback := "The Oracle judges your effort by its weight. Acceptable."
	if !pass {
		feedback = "Too brief. The Oracle demands more than a shrug."
	}
	if autoSubmitted {
		feedback = "⏰ " + feedback
	}
	return Verdict{Pass: pass, Feedback: feedback}
}

// EvaluateResponse judges a player's free-text response to a challenge.
// External failures degrade to the length heuristic; feedback is never empty.
func (s *OracleService) EvaluateResponse(ctx context.Context, challengeContent, playerResponse, kind string) Verdict {
	autoSubmitted := strings.HasPrefix(playerResponse, autoSubmitPrefix)
	cleanResponse := strings.TrimPrefix(playerResponse, autoSubmitPrefix)

	if strings.TrimSpace(cleanResponse) == "" {
		return Verdict{Pass: false, Feedback: "No response received. The Oracle is unimpressed."}
	}
	if !s.IsAvailable() {
		return heuristicVerdict(cleanResponse, autoSubmitted)
	}

	shortcut := hasLazyShortcut(cleanResponse)
	prompt := s.evaluationPrompt(challengeContent, cleanResponse, kind, shortcut, autoSubmitted)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		log.Printf("⚠️ AI evaluation failed: %v", err)
		return heuristicVerdict(cleanResponse, autoSubmitted)
	}

	pass := passPattern.MatchString(raw)
	feedback := sanitize(verdictWords.ReplaceAllString(raw, ""), maxFeedbackLength)
	if len(feedback) < 5 {
		if pass {
			feedback = "Good creative thinking!"
		} else {
			feedback = "Needs a more clever approach."
		}
	}
	if autoSubmitted {
		feedback = "⏰ " + feedback
	}

	log.Printf("🔮 AI evaluation (%s): %v - %q", kind, pass, feedback)
	return Verdict{Pass: pass, Feedback: feedback}
}

func (s *OracleService) evaluationPrompt(content, response, kind string, shortcut, autoSubmitted bool) string {
	note := ""
	if autoSubmitted {
		note = " NOTE: Auto-submitted when time ran out."
	}

	switch kind {
	case KindNegotiator:
		if shortcut {
			return fmt.Sprintf("This negotiation attempt contains an oversmart shortcut: %q\n\nSituation: %s\n\nThis is clearly trying to avoid the actual negotiation challenge with lazy solutions like violence, magic, or ignoring the problem. Respond with FAIL and give a sharp comeback explaining why this approach completely misses the point. Keep under 350 characters.", response, content)
		}
		return fmt.Sprintf("Evaluate this negotiation attempt:\n\nSituation: %s\n\nPlayer's approach: %q\n\nDoes this show genuine creative thinking? Look for clever bribing, creative distractions, emotional appeals, logical compromises, or other inventive solutions. Answer PASS or FAIL with encouraging or constructive feedback. Keep under 350 characters.%s", content, response, note)
	case KindDanger:
		if shortcut {
			return fmt.Sprintf("This survival plan contains an oversmart shortcut: %q\n\nDanger: %s\n\nThis is clearly trying to avoid the actual survival challenge with unrealistic solutions. Respond with FAIL and a sharp, logical explanation of why this approach would lead to certain doom. Keep under 350 characters.", response, content)
		}
		return fmt.Sprintf("Evaluate this survival plan:\n\nDanger: %s\n\nPlayer's plan: %q\n\nDoes this show practical creativity and real problem-solving? Even unconventional approaches should pass if they demonstrate genuine thinking and could plausibly work. Answer PASS or FAIL with detailed reasoning. Keep under 350 characters.%s", content, response, note)
	default:
		return fmt.Sprintf("Evaluate this response:\n\nChallenge: %s\n\nResponse: %s\n\nDoes this show genuine effort and creative thinking? PASS or FAIL with reason. Keep under 350 characters.%s", content, response, note)
	}
}
