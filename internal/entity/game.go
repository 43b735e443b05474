package entity

import (
	"errors"
	"fmt"
)

const (
	StatusStarting = "starting"
	StatusOngoing  = "ongoing"
	StatusEnded    = "ended"
	StatusAborted  = "aborted"
)

var ErrNoActiveSeat = errors.New("no seat can move")

// Move is one piece placement as submitted over the wire. Kind and Color
// hold the protocol token values; Field is the board position.
type Move struct {
	Kind  string `json:"kind"`
	Field int    `json:"field"`
	Color string `json:"color,omitempty"`
}

func (that Move) String() string {
	return fmt.Sprintf("%s@%d/%s", that.Kind, that.Field, that.Color)
}

// Game is one live session: the finalized seat order, the turn pointer
// into it, the accepted move log and the terminal status.
type Game struct {
	ID         string
	Players    []*Player
	Turn       int
	MoveLog    []Move
	Status     string
	Eliminated map[string]bool
}

func NewGame(id string, players []*Player) *Game {
	return &Game{
		ID:         id,
		Players:    players,
		Status:     StatusStarting,
		Eliminated: make(map[string]bool),
	}
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsTerminal() bool {
	return that.Status == StatusEnded || that.Status == StatusAborted
}

// ActivePlayer returns the seat currently expected to move.
func (that *Game) ActivePlayer() *Player {
	return that.Players[that.Turn]
}

// HasPlayer reports whether the username occupies a seat in this game.
func (that *Game) HasPlayer(username string) bool {
	for _, player := range that.Players {
		if player.Username == username {
			return true
		}
	}
	return false
}

// Eliminate marks a seat as out of the game. Eliminated seats keep their
// index so the seat order stays stable, but the turn pointer skips them.
func (that *Game) Eliminate(username string) {
	that.Eliminated[username] = true
}

// RemainingSeats counts the seats not yet eliminated.
func (that *Game) RemainingSeats() int {
	remaining := 0
	for _, player := range that.Players {
		if !that.Eliminated[player.Username] {
			remaining++
		}
	}
	return remaining
}

// Advance moves the turn pointer to the next seat that is still in the
// game, wrapping modulo the participant count. It fails only when every
// seat has been eliminated, which the oracle reports as game over first.
func (that *Game) Advance() error {
	for step := 1; step <= len(that.Players); step++ {
		next := (that.Turn + step) % len(that.Players)
		if !that.Eliminated[that.Players[next].Username] {
			that.Turn = next
			return nil
		}
	}
	return ErrNoActiveSeat
}

// AppendMove records an accepted move in submission order.
func (that *Game) AppendMove(move Move) {
	that.MoveLog = append(that.MoveLog, move)
}
