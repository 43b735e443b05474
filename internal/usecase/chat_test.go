package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
)

func TestHub_Chat(t *testing.T) {
	t.Run("A global message reaches every chat-capable peer", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, aliceConn := connect(t, hub, "Alice", protocol.ExtensionChatting)
		_, bobConn := connect(t, hub, "Bob", protocol.ExtensionChatting)
		_, carolConn := connect(t, hub, "Carol")

		// When: Alice says hello to everyone
		err := handle(hub, alice, protocol.TypeMessage, protocol.ScopeGlobal, "hello")

		// Then: Bob hears it with the sender attached, Carol opted out
		require.NoError(t, err)
		assert.Equal(t, []string{"ms;0;Alice;hello"}, bobConn.sent())
		assert.Empty(t, carolConn.sent())
		assert.Empty(t, aliceConn.sent())
	})

	t.Run("A lobby message reaches only the lobby mates", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, _ := connect(t, hub, "Alice", protocol.ExtensionChatting)
		bob, bobConn := connect(t, hub, "Bob", protocol.ExtensionChatting)
		_, carolConn := connect(t, hub, "Carol", protocol.ExtensionChatting)

		require.NoError(t, handle(hub, alice, protocol.TypeGameRequest, "2", protocol.HumanPlayer))
		require.NoError(t, handle(hub, bob, protocol.TypeGameRequest, "2", protocol.HumanPlayer))
		bobConn.reset()

		err := handle(hub, alice, protocol.TypeMessage, protocol.ScopeLobby, "ready?")

		require.NoError(t, err)
		assert.Equal(t, []string{"ms;1;Alice;ready?"}, bobConn.sent())
		assert.Empty(t, carolConn.sent())
	})

	t.Run("A lobby message keeps working once the game started", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, _, _, bobConn := startTwoPlayerGame(t, hub)

		err := handle(hub, alice, protocol.TypeMessage, protocol.ScopeLobby, "good luck")

		require.NoError(t, err)
		assert.Equal(t, []string{"ms;1;Alice;good luck"}, bobConn.sent())
	})

	t.Run("A lobby message without a lobby is declined", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, conn := connect(t, hub, "Alice", protocol.ExtensionChatting)

		err := handle(hub, alice, protocol.TypeMessage, protocol.ScopeLobby, "anyone?")

		require.Error(t, err)
		assert.Equal(t, []string{"cr;1"}, conn.sent())
	})

	t.Run("A private message reaches exactly its target", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, _ := connect(t, hub, "Alice", protocol.ExtensionChatting)
		_, bobConn := connect(t, hub, "Bob", protocol.ExtensionChatting)
		_, carolConn := connect(t, hub, "Carol", protocol.ExtensionChatting)

		err := handle(hub, alice, protocol.TypeMessage, protocol.ScopePrivate, "Bob", "psst")

		require.NoError(t, err)
		assert.Equal(t, []string{"ms;2;Alice;psst"}, bobConn.sent())
		assert.Empty(t, carolConn.sent())
	})

	t.Run("A private message to an unknown player is declined", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, conn := connect(t, hub, "Alice", protocol.ExtensionChatting)

		err := handle(hub, alice, protocol.TypeMessage, protocol.ScopePrivate, "Nobody", "psst")

		require.ErrorIs(t, err, apperror.ErrPlayerNotFound)
		assert.Equal(t, []string{"cr;1"}, conn.sent())
	})

	t.Run("Chatting requires the chat extension", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, _ := connect(t, hub, "Alice")

		err := handle(hub, alice, protocol.TypeMessage, protocol.ScopeGlobal, "hello")

		assert.ErrorIs(t, err, apperror.ErrExtensionNotActive)
	})

	t.Run("A bad scope token is declined", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, _ := connect(t, hub, "Alice", protocol.ExtensionChatting)

		err := handle(hub, alice, protocol.TypeMessage, "9", "hello")

		assert.Error(t, err)
	})
}
