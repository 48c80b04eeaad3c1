// handlers/multiplayer.go - WebSocket transport: connection lifecycle, the
// read/write pumps and the event dispatch into the game service.
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"aioracle/middleware"
	"aioracle/services"
)

const (
	// WebSocket timeouts
	writeWait  = 10 * time.Second // Time allowed to write a message
	pingPeriod = 15 * time.Second // Send pings at this interval

	// Send channel buffer size
	sendBufferSize = 256
)

// Message is the wire envelope in both directions.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Player is one WebSocket session. It implements services.Client; the game
// service never touches the connection directly.
type Player struct {
	ID       string // session identity, changes on reconnect
	UserID   string // from JWT, empty for guests
	Username string
	IsGuest  bool
	Conn     *websocket.Conn
	Room     string // code of the joined room, empty in the lobby
	send     chan Message
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
}

func (p *Player) SessionID() string { return p.ID }

// Send queues an event for the write pump. Never blocks: a full buffer drops
// the message so one stuck client cannot stall a broadcast.
func (p *Player) Send(event string, payload any) {
	p.sendMessage(event, payload)
}

func (p *Player) setRoom(code string) {
	p.mu.Lock()
	p.Room = code
	p.mu.Unlock()
}

func (p *Player) roomCode() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Room
}

var (
	game      *services.GameService
	players   = make(map[*websocket.Conn]*Player)
	playersMu sync.RWMutex
)

// InitMultiplayer wires the transport to the game service.
func InitMultiplayer(g *services.GameService) {
	game = g
}

// ActiveConnections reports the number of live sessions.
func ActiveConnections() int {
	playersMu.RLock()
	defer playersMu.RUnlock()
	return len(players)
}

// WebSocketHandler is a pure net/http handler for WebSocket connections.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	identity := middleware.ParseWSIdentity(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // TODO: Add proper origin checking in production
	})
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	playerID := uuid.NewString()

	username := identity.Username
	if username == "" || identity.Guest {
		if q := r.URL.Query().Get("username"); q != "" {
			username = q
		}
	}
	if username == "" {
		username = "Guest" + playerID[:6]
	}

	playerCtx, cancel := context.WithCancel(r.Context())
	defer cancel()

	player := &Player{
		ID:       playerID,
		UserID:   identity.UserID,
		Username: username,
		IsGuest:  identity.Guest,
		Conn:     conn,
		send:     make(chan Message, sendBufferSize),
		ctx:      playerCtx,
		cancel:   cancel,
	}

	playersMu.Lock()
	players[conn] = player
	playersMu.Unlock()

	log.Printf("🎮 Player connected: %s (ID: %s, Guest: %v)", username, playerID, identity.Guest)

	player.sendMessage("connected", map[string]interface{}{
		"player_id": playerID,
		"username":  username,
		"is_guest":  identity.Guest,
	})

	go player.writePump()
	go player.pingPump()

	// Read pump blocks until the connection dies.
	player.readPump()

	playersMu.Lock()
	delete(players, conn)
	playersMu.Unlock()

	game.Disconnect(player)

	close(player.send)
	log.Printf("🔌 Player disconnected: %s (ID: %s)", player.Username, player.ID)
}

// readPump handles incoming messages from the WebSocket connection.
func (p *Player) readPump() {
	defer func() {
		p.cancel()
		p.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var msg Message
		err := wsjson.Read(p.ctx, p.Conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				log.Printf("WebSocket closed normally for player %s", p.ID)
			} else {
				log.Printf("WebSocket error for player %s: %v", p.ID, err)
			}
			break
		}

		handleMessage(p, msg)
	}
}

// writePump handles outgoing messages to the WebSocket connection.
func (p *Player) writePump() {
	defer func() {
		p.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case msg, ok := <-p.send:
			if !ok {
				return
			}

			ctx, cancel := context.WithTimeout(p.ctx, writeWait)
			err := wsjson.Write(ctx, p.Conn, msg)
			cancel()

			if err != nil {
				log.Printf("Write error for player %s: %v", p.ID, err)
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// pingPump sends periodic pings to keep the connection alive.
func (p *Player) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(p.ctx, writeWait)
			err := p.Conn.Ping(ctx)
			cancel()

			if err != nil {
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// sendMessage queues a message to be sent to the player via WebSocket.
func (p *Player) sendMessage(msgType string, payload interface{}) {
	msg := Message{Type: msgType, Payload: payload}

	select {
	case p.send <- msg:
		// Message queued successfully
	default:
		// Send buffer full - drop message and log warning
		log.Printf("⚠️ Send buffer full for player %s, dropping message type: %s", p.ID, msgType)
	}
}

func handleMessage(player *Player, msg Message) {
	payload := parsePayload(msg.Payload)

	switch msg.Type {
	case "create-room":
		if code := game.CreateRoom(player, getString(payload, "playerName")); code != "" {
			player.setRoom(code)
		}
	case "join-room":
		code := game.JoinRoom(player, getString(payload, "roomCode"), getString(payload, "playerName"))
		if code != "" {
			player.setRoom(code)
		}
	case "leave-room":
		game.Disconnect(player)
		player.setRoom("")
	case "start-game":
		game.StartGame(player, player.targetRoom(payload))
	case "submit-riddle-answer":
		game.SubmitRiddleAnswer(player, player.targetRoom(payload), riddleSubmission(payload))
	case "submit-challenge-response":
		game.SubmitChallengeResponse(player, player.targetRoom(payload), getString(payload, "response"))
	case "submit-tap-result":
		game.SubmitTapResult(player, player.targetRoom(payload), getInt(payload, "taps"))
	case "submit-trivia-answer":
		game.SubmitTriviaAnswer(player, player.targetRoom(payload), answerIndex(payload))
	case "submit-memory-answer":
		game.SubmitMemoryAnswer(player, player.targetRoom(payload), getString(payload, "answer"))
	case "ping":
		player.sendMessage("pong", map[string]interface{}{})
	default:
		log.Printf("⚠️ Unknown message type %q from player %s", msg.Type, player.ID)
	}
}

// targetRoom resolves which room an event addresses: an explicit roomCode in
// the payload wins, otherwise the session's joined room.
func (p *Player) targetRoom(payload map[string]interface{}) string {
	if code := getString(payload, "roomCode"); code != "" {
		return code
	}
	return p.roomCode()
}

// riddleSubmission parses the answer field, which is free text during the
// riddle phase but an option index during a detective challenge.
func riddleSubmission(payload map[string]interface{}) services.Submission {
	sub := services.Submission{Option: -1}
	switch v := payload["answer"].(type) {
	case float64:
		sub.Option = int(v)
		sub.Text = strconv.Itoa(int(v))
	case string:
		sub.Text = v
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			sub.Option = n
		}
	}
	return sub
}

// answerIndex reads a trivia option index from either key the clients use.
func answerIndex(payload map[string]interface{}) int {
	if _, ok := payload["answerIndex"]; ok {
		return getInt(payload, "answerIndex")
	}
	return getInt(payload, "answer")
}

// Payload helpers

func parsePayload(payload interface{}) map[string]interface{} {
	if m, ok := payload.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func getString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func getInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
