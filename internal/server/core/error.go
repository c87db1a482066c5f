package core

import "errors"

// Internal error taxonomy. Services return these (usually wrapped with
// context); the transport adapters map them to status codes and error
// frames.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrEntryNotFound = errors.New("entry not found")
	ErrEntryExists   = errors.New("entry already exists")
	ErrAlreadyTaken  = errors.New("already taken")
)

// ErrorResponse is the control-plane error body: {"message":"Error: <phrase>"}.
type ErrorResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(phrase string) ErrorResponse {
	return ErrorResponse{Message: "Error: " + phrase}
}
