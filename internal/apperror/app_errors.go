package apperror

import "errors"

var (
	ErrUsernameTaken      = errors.New("username is already in use")
	ErrUsernameEmpty      = errors.New("username is empty")
	ErrNotHandshaken      = errors.New("connection has not completed the handshake")
	ErrAlreadyHandshaken  = errors.New("connection already completed the handshake")
	ErrOutOfState         = errors.New("packet is not legal in the current state")
	ErrAlreadyInLobby     = errors.New("player is already in a lobby")
	ErrAlreadyInGame      = errors.New("player is already in a game")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrGameFinished       = errors.New("game is already finished")
	ErrIllegalMove        = errors.New("move rejected by the game rules")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrExtensionNotActive = errors.New("extension was not negotiated")
)
