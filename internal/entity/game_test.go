package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seats(usernames ...string) []*Player {
	players := make([]*Player, 0, len(usernames))
	for _, username := range usernames {
		players = append(players, NewPlayer(username, nil))
	}
	return players
}

func TestGameStatusMethods(t *testing.T) {
	t.Run("IsOngoing returns true when game status is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// Then: it should report ongoing and not terminal
		assert.True(t, game.IsOngoing())
		assert.False(t, game.IsTerminal())
	})

	t.Run("IsTerminal returns true for ended and aborted games", func(t *testing.T) {
		assert.True(t, (&Game{Status: StatusEnded}).IsTerminal())
		assert.True(t, (&Game{Status: StatusAborted}).IsTerminal())
	})

	t.Run("A new game starts in StatusStarting with the first seat active", func(t *testing.T) {
		game := NewGame("1", seats("Alice", "Bob"))

		assert.Equal(t, StatusStarting, game.Status)
		assert.Equal(t, "Alice", game.ActivePlayer().Username)
	})
}

func TestGame_Advance(t *testing.T) {
	t.Run("Moves the turn to the next seat, wrapping around", func(t *testing.T) {
		// Given: a three-player game on its last seat
		game := NewGame("1", seats("Alice", "Bob", "Carol"))
		game.Turn = 2

		// When: the turn advances
		err := game.Advance()

		// Then: it wraps back to the first seat
		require.NoError(t, err)
		assert.Equal(t, "Alice", game.ActivePlayer().Username)
	})

	t.Run("Skips eliminated seats", func(t *testing.T) {
		// Given: the middle seat has been eliminated
		game := NewGame("1", seats("Alice", "Bob", "Carol"))
		game.Eliminate("Bob")

		err := game.Advance()

		// Then: the turn lands on Carol, not Bob
		require.NoError(t, err)
		assert.Equal(t, "Carol", game.ActivePlayer().Username)
	})

	t.Run("Fails when every seat is eliminated", func(t *testing.T) {
		game := NewGame("1", seats("Alice", "Bob"))
		game.Eliminate("Alice")
		game.Eliminate("Bob")

		err := game.Advance()

		assert.ErrorIs(t, err, ErrNoActiveSeat)
	})
}

func TestGame_Elimination(t *testing.T) {
	t.Run("RemainingSeats counts only seats still in the game", func(t *testing.T) {
		game := NewGame("1", seats("Alice", "Bob", "Carol"))
		game.Eliminate("Bob")

		assert.Equal(t, 2, game.RemainingSeats())
	})

	t.Run("HasPlayer finds seated usernames only", func(t *testing.T) {
		game := NewGame("1", seats("Alice", "Bob"))

		assert.True(t, game.HasPlayer("Bob"))
		assert.False(t, game.HasPlayer("Mallory"))
	})
}

func TestGame_AppendMove(t *testing.T) {
	t.Run("Records accepted moves in submission order", func(t *testing.T) {
		game := NewGame("1", seats("Alice", "Bob"))

		game.AppendMove(Move{Kind: "0", Field: 12})
		game.AppendMove(Move{Kind: "2", Field: 7, Color: "0"})

		require.Len(t, game.MoveLog, 2)
		assert.Equal(t, 12, game.MoveLog[0].Field)
		assert.Equal(t, "2", game.MoveLog[1].Kind)
	})
}
