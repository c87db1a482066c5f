// Package ws is the live-game message plane: a websocket adapter decoding
// tagged command frames and a coordinator that routes them to games.
package ws

import (
	"chess/internal/chess"
	"chess/internal/server/storage"
)

// Client command tags.
const (
	CommandConnect  = "CONNECT"
	CommandMakeMove = "MAKE_MOVE"
	CommandLeave    = "LEAVE"
	CommandResign   = "RESIGN"
)

// ClientCommand is an inbound frame. Move is set only for MAKE_MOVE.
type ClientCommand struct {
	CommandType string      `json:"commandType"`
	AuthToken   string      `json:"authToken"`
	GameID      int         `json:"gameID"`
	Move        *chess.Move `json:"move,omitempty"`
}

// Server message tags.
const (
	messageLoadGame     = "LOAD_GAME"
	messageError        = "ERROR"
	messageNotification = "NOTIFICATION"
)

type loadGameMessage struct {
	ServerMessageType string             `json:"serverMessageType"`
	Game              storage.GameRecord `json:"game"`
}

type errorMessage struct {
	ServerMessageType string `json:"serverMessageType"`
	ErrorMessage      string `json:"errorMessage"`
}

type notificationMessage struct {
	ServerMessageType string `json:"serverMessageType"`
	Message           string `json:"message"`
}

func loadGame(rec storage.GameRecord) loadGameMessage {
	return loadGameMessage{ServerMessageType: messageLoadGame, Game: rec}
}

func errorFrame(message string) errorMessage {
	return errorMessage{ServerMessageType: messageError, ErrorMessage: message}
}

func notification(message string) notificationMessage {
	return notificationMessage{ServerMessageType: messageNotification, Message: message}
}
