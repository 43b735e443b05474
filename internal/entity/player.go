package entity

import (
	"fmt"
	"slices"
)

const (
	KindHuman    = "human"
	KindComputer = "computer"
)

type Player struct {
	Username   string   `json:"username"`
	Kind       string   `json:"kind"`
	Extensions []string `json:"extensions,omitempty"`
}

func NewPlayer(username string, extensions []string) *Player {
	return &Player{
		Username:   username,
		Kind:       KindHuman,
		Extensions: extensions,
	}
}

// NewBotPlayer creates the internal AI participant that fills a computer
// seat. Bot usernames carry the lobby they were created for, keeping
// them unique across concurrent games.
func NewBotPlayer(lobbyID string, seat int) *Player {
	return &Player{
		Username: fmt.Sprintf("bot-%s-%d", lobbyID, seat),
		Kind:     KindComputer,
	}
}

func (that *Player) IsBot() bool {
	return that.Kind == KindComputer
}

// HasExtension reports whether the extension token was negotiated for
// this player during the handshake.
func (that *Player) HasExtension(token string) bool {
	return slices.Contains(that.Extensions, token)
}
