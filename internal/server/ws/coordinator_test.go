package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"chess/internal/chess"
	"chess/internal/server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records outbound frames as JSON, like the real session
// marshals at enqueue time.
type fakeSession struct {
	mu     sync.Mutex
	frames []json.RawMessage
}

type frame struct {
	ServerMessageType string              `json:"serverMessageType"`
	Message           string              `json:"message"`
	ErrorMessage      string              `json:"errorMessage"`
	Game              *storage.GameRecord `json:"game"`
}

func (f *fakeSession) Send(v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.frames = append(f.frames, buf)
	f.mu.Unlock()
}

func (f *fakeSession) reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

func (f *fakeSession) decoded(t *testing.T) []frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]frame, 0, len(f.frames))
	for _, raw := range f.frames {
		var fr frame
		require.NoError(t, json.Unmarshal(raw, &fr))
		out = append(out, fr)
	}
	return out
}

func (f *fakeSession) byType(t *testing.T, messageType string) []frame {
	t.Helper()
	var out []frame
	for _, fr := range f.decoded(t) {
		if fr.ServerMessageType == messageType {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeSession) notifications(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, fr := range f.byType(t, messageNotification) {
		out = append(out, fr.Message)
	}
	return out
}

func (f *fakeSession) errors(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, fr := range f.byType(t, messageError) {
		out = append(out, fr.ErrorMessage)
	}
	return out
}

func (f *fakeSession) lastGame(t *testing.T) storage.GameRecord {
	t.Helper()
	loads := f.byType(t, messageLoadGame)
	require.NotEmpty(t, loads, "expected at least one LOAD_GAME frame")
	return *loads[len(loads)-1].Game
}

func mv(r1, c1, r2, c2 int) *chess.Move {
	return &chess.Move{
		Start: chess.Position{Row: r1, Col: c1},
		End:   chess.Position{Row: r2, Col: c2},
	}
}

// fixture wires a coordinator over a memory store with alice seated as
// white, bob as black, and carol unseated, all connected.
type fixture struct {
	coord  *Coordinator
	store  *storage.Memory
	gameID int

	alice, bob, carol *fakeSession
}

const (
	tokenAlice = "token-alice"
	tokenBob   = "token-bob"
	tokenCarol = "token-carol"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemory()

	for _, u := range []struct{ name, token string }{
		{"alice", tokenAlice},
		{"bob", tokenBob},
		{"carol", tokenCarol},
	} {
		require.NoError(t, store.InsertUser(u.name, u.name+"-pass", u.name+"@example.com"))
		require.NoError(t, store.InsertToken(storage.TokenRecord{Token: u.token, Username: u.name}))
	}

	id, err := store.CreateGame("match")
	require.NoError(t, err)
	rec, err := store.GetGame(id)
	require.NoError(t, err)
	white, black := "alice", "bob"
	rec.WhiteUsername = &white
	rec.BlackUsername = &black
	require.NoError(t, store.UpdateGame(id, rec))

	f := &fixture{
		coord:  NewCoordinator(store),
		store:  store,
		gameID: id,
		alice:  &fakeSession{},
		bob:    &fakeSession{},
		carol:  &fakeSession{},
	}
	f.coord.Connect(f.alice, tokenAlice, id)
	f.coord.Connect(f.bob, tokenBob, id)
	f.coord.Connect(f.carol, tokenCarol, id)
	f.alice.reset()
	f.bob.reset()
	f.carol.reset()
	return f
}

// setBoard replaces the stored game's position for endgame scenarios.
func (f *fixture) setBoard(t *testing.T, turn chess.Color, pieces map[chess.Position]chess.Piece) {
	t.Helper()
	rec, err := f.store.GetGame(f.gameID)
	require.NoError(t, err)
	var board chess.Board
	for pos, piece := range pieces {
		board.SetPiece(pos, piece)
	}
	rec.Game.SetBoard(board)
	rec.Game.SetTurn(turn)
	require.NoError(t, f.store.UpdateGame(f.gameID, rec))
}

func (f *fixture) storedGame(t *testing.T) *chess.Game {
	t.Helper()
	rec, err := f.store.GetGame(f.gameID)
	require.NoError(t, err)
	return rec.Game
}

func TestConnectRepliesAndAnnounces(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.InsertUser("alice", "pass1", "alice@example.com"))
	require.NoError(t, store.InsertUser("dave", "pass2", "dave@example.com"))
	require.NoError(t, store.InsertToken(storage.TokenRecord{Token: tokenAlice, Username: "alice"}))
	require.NoError(t, store.InsertToken(storage.TokenRecord{Token: "token-dave", Username: "dave"}))
	id, err := store.CreateGame("match")
	require.NoError(t, err)
	rec, err := store.GetGame(id)
	require.NoError(t, err)
	white := "alice"
	rec.WhiteUsername = &white
	require.NoError(t, store.UpdateGame(id, rec))

	coord := NewCoordinator(store)

	alice := &fakeSession{}
	coord.Connect(alice, tokenAlice, id)
	frames := alice.decoded(t)
	require.Len(t, frames, 1, "only the board reply, no echo of the join broadcast")
	assert.Equal(t, messageLoadGame, frames[0].ServerMessageType)
	assert.Equal(t, "match", frames[0].Game.GameName)

	dave := &fakeSession{}
	coord.Connect(dave, "token-dave", id)
	assert.Len(t, dave.byType(t, messageLoadGame), 1)
	assert.Equal(t, []string{"dave joined the game as an observer."}, alice.notifications(t))
}

func TestConnectFailures(t *testing.T) {
	f := newFixture(t)

	stranger := &fakeSession{}
	f.coord.Connect(stranger, "bogus", f.gameID)
	assert.Equal(t, []string{"Auth token is not valid."}, stranger.errors(t))

	stranger.reset()
	f.coord.Connect(stranger, tokenCarol, 9999)
	assert.Equal(t, []string{"Game not found."}, stranger.errors(t))
}

func TestOpeningMoveBroadcasts(t *testing.T) {
	f := newFixture(t)

	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, mv(2, 5, 4, 5))

	// Everyone sees the new board.
	for _, sess := range []*fakeSession{f.alice, f.bob, f.carol} {
		game := f.lastGameOf(t, sess)
		assert.Equal(t, chess.Piece{Color: chess.ColorWhite, Kind: chess.KindPawn},
			game.PieceAt(chess.Position{Row: 4, Col: 5}))
		assert.True(t, game.PieceAt(chess.Position{Row: 2, Col: 5}).IsEmpty())
		assert.Equal(t, chess.ColorBlack, game.Turn())
	}

	// The move notification skips the mover.
	assert.Empty(t, f.alice.notifications(t))
	assert.Equal(t, []string{"alice has made their move!"}, f.bob.notifications(t))
	assert.Equal(t, []string{"alice has made their move!"}, f.carol.notifications(t))

	assert.Equal(t, chess.ColorBlack, f.storedGame(t).Turn())
}

func (f *fixture) lastGameOf(t *testing.T, sess *fakeSession) *chess.Game {
	t.Helper()
	rec := sess.lastGame(t)
	require.NotNil(t, rec.Game)
	return rec.Game
}

func TestIllegalMoveRejectedStatePreserved(t *testing.T) {
	f := newFixture(t)

	// King onto its own bishop.
	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, mv(1, 5, 1, 6))

	require.Len(t, f.alice.errors(t), 1)
	assert.Empty(t, f.bob.decoded(t))
	assert.Empty(t, f.carol.decoded(t))

	game := f.storedGame(t)
	assert.Equal(t, chess.ColorWhite, game.Turn())
	assert.Equal(t, chess.Piece{Color: chess.ColorWhite, Kind: chess.KindKing},
		game.PieceAt(chess.Position{Row: 1, Col: 5}))
}

func TestMakeMoveAuthorization(t *testing.T) {
	f := newFixture(t)

	// Token registered to a different session.
	f.coord.MakeMove(f.bob, tokenAlice, f.gameID, mv(2, 5, 4, 5))
	assert.Equal(t, []string{"Auth token does not match session."}, f.bob.errors(t))

	// Observers cannot move.
	f.coord.MakeMove(f.carol, tokenCarol, f.gameID, mv(2, 5, 4, 5))
	assert.Equal(t, []string{"Session is not connected as a player for this game."}, f.carol.errors(t))

	// Out of turn.
	f.bob.reset()
	f.coord.MakeMove(f.bob, tokenBob, f.gameID, mv(7, 5, 5, 5))
	assert.Equal(t, []string{"It is not your turn to make a move."}, f.bob.errors(t))

	assert.Equal(t, chess.ColorWhite, f.storedGame(t).Turn())
}

func TestPromotionIntoCheckmate(t *testing.T) {
	f := newFixture(t)
	f.setBoard(t, chess.ColorWhite, map[chess.Position]chess.Piece{
		{Row: 7, Col: 1}: {Color: chess.ColorWhite, Kind: chess.KindPawn},
		{Row: 6, Col: 8}: {Color: chess.ColorWhite, Kind: chess.KindKing},
		{Row: 8, Col: 8}: {Color: chess.ColorBlack, Kind: chess.KindKing},
	})

	move := mv(7, 1, 8, 1)
	move.Promotion = chess.KindQueen
	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, move)

	game := f.lastGameOf(t, f.bob)
	assert.Equal(t, chess.Piece{Color: chess.ColorWhite, Kind: chess.KindQueen},
		game.PieceAt(chess.Position{Row: 8, Col: 1}))
	assert.Equal(t, chess.WinWhiteBeatBlack, game.WinState())

	assert.Equal(t,
		[]string{"You put bob in checkmate. Congratulations, you win!"},
		f.alice.notifications(t))
	assert.Equal(t,
		[]string{"alice has made their move!", "alice put bob in checkmate. Game over, White wins!"},
		f.bob.notifications(t))
}

func TestFoolsMateAnnouncements(t *testing.T) {
	f := newFixture(t)

	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, mv(2, 6, 3, 6))
	f.coord.MakeMove(f.bob, tokenBob, f.gameID, mv(7, 5, 6, 5))
	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, mv(2, 7, 4, 7))
	f.alice.reset()
	f.bob.reset()
	f.carol.reset()

	f.coord.MakeMove(f.bob, tokenBob, f.gameID, mv(8, 4, 4, 8))

	game := f.storedGame(t)
	assert.Equal(t, chess.WinBlackBeatWhite, game.WinState())
	assert.True(t, game.IsInCheckmate(chess.ColorWhite))

	assert.Len(t, f.alice.byType(t, messageLoadGame), 1)
	assert.Len(t, f.bob.byType(t, messageLoadGame), 1)

	assert.Equal(t,
		[]string{"You put alice in checkmate. Congratulations, you win!"},
		f.bob.notifications(t))
	assert.Equal(t,
		[]string{"bob has made their move!", "bob put alice in checkmate. Game over, Black wins!"},
		f.alice.notifications(t))
}

func TestStalemateAnnouncedToEveryone(t *testing.T) {
	f := newFixture(t)
	f.setBoard(t, chess.ColorWhite, map[chess.Position]chess.Piece{
		{Row: 8, Col: 1}: {Color: chess.ColorBlack, Kind: chess.KindKing},
		{Row: 6, Col: 2}: {Color: chess.ColorWhite, Kind: chess.KindKing},
		{Row: 5, Col: 3}: {Color: chess.ColorWhite, Kind: chess.KindQueen},
	})

	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, mv(5, 3, 7, 3))

	assert.Equal(t, chess.WinStalemate, f.storedGame(t).WinState())
	stalemate := "alice and bob are in stalemate. Game over!"
	assert.Equal(t, []string{stalemate}, f.alice.notifications(t))
	assert.Contains(t, f.bob.notifications(t), stalemate)
	assert.Contains(t, f.carol.notifications(t), stalemate)
}

func TestCheckAnnouncedToEveryone(t *testing.T) {
	f := newFixture(t)
	f.setBoard(t, chess.ColorWhite, map[chess.Position]chess.Piece{
		{Row: 1, Col: 1}: {Color: chess.ColorWhite, Kind: chess.KindKing},
		{Row: 4, Col: 4}: {Color: chess.ColorWhite, Kind: chess.KindQueen},
		{Row: 8, Col: 5}: {Color: chess.ColorBlack, Kind: chess.KindKing},
	})

	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, mv(4, 4, 4, 5))

	check := "bob (Black) is in check!"
	assert.Contains(t, f.alice.notifications(t), check)
	assert.Contains(t, f.bob.notifications(t), check)
	assert.Contains(t, f.carol.notifications(t), check)
	assert.Equal(t, chess.WinInProgress, f.storedGame(t).WinState())
}

func TestResignFlow(t *testing.T) {
	f := newFixture(t)

	f.coord.Resign(f.alice, tokenAlice, f.gameID)

	assert.Equal(t, chess.WinWhiteResigned, f.storedGame(t).WinState())
	assert.Equal(t, []string{"Successfully resigned from the game."}, f.alice.notifications(t))
	assert.Equal(t, []string{"alice resigned from the game."}, f.bob.notifications(t))

	// No moves after the game ends.
	f.bob.reset()
	f.coord.MakeMove(f.bob, tokenBob, f.gameID, mv(7, 5, 5, 5))
	assert.Equal(t, []string{"Game has ended and no moves can be made."}, f.bob.errors(t))

	// Resigning twice is rejected.
	f.alice.reset()
	f.coord.Resign(f.alice, tokenAlice, f.gameID)
	assert.Equal(t, []string{"Cannot resign because game has ended."}, f.alice.errors(t))

	// The resigner stays in the room and still receives broadcasts.
	f.alice.reset()
	require.NoError(t, f.store.InsertUser("dave", "pass", "dave@example.com"))
	require.NoError(t, f.store.InsertToken(storage.TokenRecord{Token: "token-dave", Username: "dave"}))
	f.coord.Connect(&fakeSession{}, "token-dave", f.gameID)
	assert.Equal(t, []string{"dave joined the game as an observer."}, f.alice.notifications(t))
}

func TestResignAuthorization(t *testing.T) {
	f := newFixture(t)

	f.coord.Resign(f.carol, tokenCarol, f.gameID)
	assert.Equal(t, []string{"Session is not connected as a player for this game."}, f.carol.errors(t))

	f.coord.Resign(f.bob, tokenAlice, f.gameID)
	assert.Equal(t, []string{"Auth token does not match session."}, f.bob.errors(t))

	assert.Equal(t, chess.WinInProgress, f.storedGame(t).WinState())
}

func TestLeaveClearsSeatAndRemovesSession(t *testing.T) {
	f := newFixture(t)

	f.coord.Leave(f.alice, tokenAlice, f.gameID)

	rec, err := f.store.GetGame(f.gameID)
	require.NoError(t, err)
	assert.Nil(t, rec.WhiteUsername)
	require.NotNil(t, rec.BlackUsername)

	assert.Equal(t, []string{"You left the game."}, f.alice.notifications(t))
	assert.Equal(t, []string{"alice left the game."}, f.bob.notifications(t))

	// The leaver is out of the room.
	f.alice.reset()
	f.bob.reset()
	f.coord.Leave(f.carol, tokenCarol, f.gameID)
	assert.Empty(t, f.alice.decoded(t))
	assert.Equal(t, []string{"carol left the game."}, f.bob.notifications(t))
}

func TestObserverLeaveKeepsSeats(t *testing.T) {
	f := newFixture(t)

	f.coord.Leave(f.carol, tokenCarol, f.gameID)

	rec, err := f.store.GetGame(f.gameID)
	require.NoError(t, err)
	assert.NotNil(t, rec.WhiteUsername)
	assert.NotNil(t, rec.BlackUsername)
	assert.Equal(t, []string{"You left the game."}, f.carol.notifications(t))
}

func TestDisconnectRetainsSeat(t *testing.T) {
	f := newFixture(t)

	f.coord.Disconnect(f.alice)

	// The seat survives for reconnects, but the session is gone.
	rec, err := f.store.GetGame(f.gameID)
	require.NoError(t, err)
	require.NotNil(t, rec.WhiteUsername)
	assert.Equal(t, "alice", *rec.WhiteUsername)

	f.coord.MakeMove(f.bob, tokenBob, f.gameID, mv(7, 5, 5, 5))
	assert.Empty(t, f.alice.decoded(t))

	// The stale token no longer authorizes any session.
	f.coord.MakeMove(f.alice, tokenAlice, f.gameID, mv(2, 5, 4, 5))
	assert.Equal(t, []string{"Auth token does not match session."}, f.alice.errors(t))

	// Reconnecting restores the white player role.
	reconnect := &fakeSession{}
	f.coord.Connect(reconnect, tokenAlice, f.gameID)
	assert.Equal(t, []string{"alice joined the game as the white player."}, f.bob.notifications(t))
	f.coord.MakeMove(reconnect, tokenAlice, f.gameID, mv(2, 5, 4, 5))
	assert.Empty(t, reconnect.errors(t))
	assert.Equal(t, chess.ColorBlack, f.storedGame(t).Turn())
}

func TestDispatchUnknownCommand(t *testing.T) {
	f := newFixture(t)

	f.coord.Dispatch(f.alice, ClientCommand{CommandType: "DANCE"})
	require.Len(t, f.alice.errors(t), 1)
	assert.Contains(t, f.alice.errors(t)[0], "DANCE")
}
