package ws

import (
	"fmt"
	"log"
	"sync"

	"chess/internal/chess"
	"chess/internal/server/storage"
)

// Role is what a session is to a game. Assigned on CONNECT by matching the
// username against the game's seats.
type Role int

const (
	RoleObserver Role = iota
	RoleWhitePlayer
	RoleBlackPlayer
)

func (r Role) phrase() string {
	switch r {
	case RoleWhitePlayer:
		return "the white player"
	case RoleBlackPlayer:
		return "the black player"
	default:
		return "an observer"
	}
}

func (r Role) color() (chess.Color, bool) {
	switch r {
	case RoleWhitePlayer:
		return chess.ColorWhite, true
	case RoleBlackPlayer:
		return chess.ColorBlack, true
	default:
		return chess.ColorWhite, false
	}
}

type participant struct {
	username string
	role     Role
}

// gameEntry holds one game's live participants. Its mutex is held for the
// whole of any command touching the game, so every participant observes
// command effects atomically.
type gameEntry struct {
	mu           sync.Mutex
	participants map[Sender]participant
}

// Both called with e.mu held.
func (e *gameEntry) broadcast(v any) {
	for sess := range e.participants {
		sess.Send(v)
	}
}

func (e *gameEntry) broadcastExcluding(v any, excluded Sender) {
	for sess := range e.participants {
		if sess != excluded {
			sess.Send(v)
		}
	}
}

// Coordinator routes live-game commands. The store stays the source of
// truth for board state; the coordinator only tracks who is watching which
// game and which session each token authenticated on.
type Coordinator struct {
	store storage.Store

	mu       sync.Mutex
	games    map[int]*gameEntry
	sessions map[string]Sender
}

func NewCoordinator(store storage.Store) *Coordinator {
	return &Coordinator{
		store:    store,
		games:    make(map[int]*gameEntry),
		sessions: make(map[string]Sender),
	}
}

func (c *Coordinator) entry(gameID int) *gameEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.games[gameID]
	if !ok {
		e = &gameEntry{participants: make(map[Sender]participant)}
		c.games[gameID] = e
	}
	return e
}

// Dispatch executes one decoded client frame. Command failures are
// delivered to the issuing session as ERROR frames and never close it.
func (c *Coordinator) Dispatch(sess Sender, cmd ClientCommand) {
	switch cmd.CommandType {
	case CommandConnect:
		c.Connect(sess, cmd.AuthToken, cmd.GameID)
	case CommandMakeMove:
		c.MakeMove(sess, cmd.AuthToken, cmd.GameID, cmd.Move)
	case CommandLeave:
		c.Leave(sess, cmd.AuthToken, cmd.GameID)
	case CommandResign:
		c.Resign(sess, cmd.AuthToken, cmd.GameID)
	default:
		sess.Send(errorFrame(fmt.Sprintf("Unknown command type %q.", cmd.CommandType)))
	}
}

// Connect registers the session with the game, replies with the current
// board, and announces the arrival to everyone else.
func (c *Coordinator) Connect(sess Sender, token string, gameID int) {
	user, err := c.store.GetUserFromToken(token)
	if err != nil {
		sess.Send(errorFrame("Auth token is not valid."))
		return
	}
	rec, err := c.store.GetGame(gameID)
	if err != nil {
		sess.Send(errorFrame("Game not found."))
		return
	}

	role := RoleObserver
	if color, ok := rec.SeatOf(user.Username); ok {
		if color == chess.ColorWhite {
			role = RoleWhitePlayer
		} else {
			role = RoleBlackPlayer
		}
	}

	e := c.entry(gameID)
	e.mu.Lock()
	defer e.mu.Unlock()

	c.mu.Lock()
	c.sessions[token] = sess
	c.mu.Unlock()

	e.participants[sess] = participant{username: user.Username, role: role}
	sess.Send(loadGame(rec))
	e.broadcastExcluding(notification(user.Username+" joined the game as "+role.phrase()+"."), sess)
}

// MakeMove validates, applies, and persists a move, then fans out the new
// board and the resulting announcements.
func (c *Coordinator) MakeMove(sess Sender, token string, gameID int, move *chess.Move) {
	e := c.entry(gameID)
	e.mu.Lock()
	defer e.mu.Unlock()

	c.mu.Lock()
	registered := c.sessions[token]
	c.mu.Unlock()
	if registered != sess {
		sess.Send(errorFrame("Auth token does not match session."))
		return
	}

	p, ok := e.participants[sess]
	color, isPlayer := chess.ColorWhite, false
	if ok {
		color, isPlayer = p.role.color()
	}
	if !isPlayer {
		sess.Send(errorFrame("Session is not connected as a player for this game."))
		return
	}

	rec, err := c.store.GetGame(gameID)
	if err != nil {
		sess.Send(errorFrame("Game not found."))
		return
	}
	game := rec.Game

	switch {
	case game.WinState() != chess.WinInProgress:
		sess.Send(errorFrame("Game has ended and no moves can be made."))
		return
	case game.Turn() != color:
		sess.Send(errorFrame("It is not your turn to make a move."))
		return
	case move == nil:
		sess.Send(errorFrame("Move is required."))
		return
	}

	if err := game.MakeMove(*move); err != nil {
		sess.Send(errorFrame(err.Error()))
		return
	}
	if err := c.store.UpdateGame(gameID, rec); err != nil {
		log.Printf("ws: persist game %d: %v", gameID, err)
		sess.Send(errorFrame("Failed to save the game."))
		return
	}

	e.broadcast(loadGame(rec))
	e.broadcastExcluding(notification(p.username+" has made their move!"), sess)
	c.announceGameState(e, sess, rec)
}

// announceGameState sends the post-move check/mate/stalemate notifications.
// Called with e.mu held; sess is the mover.
func (c *Coordinator) announceGameState(e *gameEntry, sess Sender, rec storage.GameRecord) {
	white := seatName(rec.WhiteUsername)
	black := seatName(rec.BlackUsername)
	game := rec.Game

	switch game.WinState() {
	case chess.WinWhiteBeatBlack:
		sess.Send(notification("You put " + black + " in checkmate. Congratulations, you win!"))
		e.broadcastExcluding(notification(white+" put "+black+" in checkmate. Game over, White wins!"), sess)
	case chess.WinBlackBeatWhite:
		sess.Send(notification("You put " + white + " in checkmate. Congratulations, you win!"))
		e.broadcastExcluding(notification(black+" put "+white+" in checkmate. Game over, Black wins!"), sess)
	case chess.WinStalemate:
		e.broadcast(notification(white + " and " + black + " are in stalemate. Game over!"))
	default:
		if game.IsInCheck(chess.ColorWhite) {
			e.broadcast(notification(white + " (White) is in check!"))
		} else if game.IsInCheck(chess.ColorBlack) {
			e.broadcast(notification(black + " (Black) is in check!"))
		}
	}
}

func seatName(username *string) string {
	if username == nil {
		return "(vacated)"
	}
	return *username
}

// Leave releases the user's seat, removes the session from the game, and
// tells the room. The connection itself stays open.
func (c *Coordinator) Leave(sess Sender, token string, gameID int) {
	user, err := c.store.GetUserFromToken(token)
	if err != nil {
		sess.Send(errorFrame("Auth token is not valid."))
		return
	}
	rec, err := c.store.GetGame(gameID)
	if err != nil {
		sess.Send(errorFrame("Game not found."))
		return
	}

	e := c.entry(gameID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if color, ok := rec.SeatOf(user.Username); ok {
		if color == chess.ColorWhite {
			rec.WhiteUsername = nil
		} else {
			rec.BlackUsername = nil
		}
		if err := c.store.UpdateGame(gameID, rec); err != nil {
			log.Printf("ws: clear seat in game %d: %v", gameID, err)
			sess.Send(errorFrame("Failed to save the game."))
			return
		}
	}

	delete(e.participants, sess)
	sess.Send(notification("You left the game."))
	e.broadcastExcluding(notification(user.Username+" left the game."), sess)
}

// Resign ends the game in the opponent's favor. The resigner stays in the
// participant set and keeps receiving broadcasts.
func (c *Coordinator) Resign(sess Sender, token string, gameID int) {
	e := c.entry(gameID)
	e.mu.Lock()
	defer e.mu.Unlock()

	c.mu.Lock()
	registered := c.sessions[token]
	c.mu.Unlock()
	if registered != sess {
		sess.Send(errorFrame("Auth token does not match session."))
		return
	}

	p, ok := e.participants[sess]
	color, isPlayer := chess.ColorWhite, false
	if ok {
		color, isPlayer = p.role.color()
	}
	if !isPlayer {
		sess.Send(errorFrame("Session is not connected as a player for this game."))
		return
	}

	rec, err := c.store.GetGame(gameID)
	if err != nil {
		sess.Send(errorFrame("Game not found."))
		return
	}
	if rec.Game.WinState() != chess.WinInProgress {
		sess.Send(errorFrame("Cannot resign because game has ended."))
		return
	}

	if err := rec.Game.Resign(color); err != nil {
		sess.Send(errorFrame(err.Error()))
		return
	}
	if err := c.store.UpdateGame(gameID, rec); err != nil {
		log.Printf("ws: persist game %d: %v", gameID, err)
		sess.Send(errorFrame("Failed to save the game."))
		return
	}

	sess.Send(notification("Successfully resigned from the game."))
	e.broadcastExcluding(notification(p.username+" resigned from the game."), sess)
}

// Disconnect forgets a closed session everywhere. Seats are not released;
// the player can reconnect and resume their side.
func (c *Coordinator) Disconnect(sess Sender) {
	c.mu.Lock()
	for token, s := range c.sessions {
		if s == sess {
			delete(c.sessions, token)
		}
	}
	entries := make([]*gameEntry, 0, len(c.games))
	for _, e := range c.games {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		delete(e.participants, sess)
		e.mu.Unlock()
	}
}
