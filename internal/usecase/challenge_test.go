package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
)

func TestHub_PlayerList(t *testing.T) {
	t.Run("Lists every connected username", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, conn := connect(t, hub, "Alice", protocol.ExtensionChallenging)
		connect(t, hub, "Bob", protocol.ExtensionChallenging)

		require.NoError(t, handle(hub, alice, protocol.TypePlayerList))

		sent := conn.sent()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0], "Alice")
		assert.Contains(t, sent[0], "Bob")
	})

	t.Run("Requires the challenge extension", func(t *testing.T) {
		hub, _ := newTestHub(t)
		alice, _ := connect(t, hub, "Alice")

		err := handle(hub, alice, protocol.TypePlayerList)

		assert.ErrorIs(t, err, apperror.ErrExtensionNotActive)
	})
}

func TestHub_Challenge(t *testing.T) {
	t.Run("An accepted challenge starts the game challenger first", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, bobConn := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		carol, carolConn := connect(t, hub, "Carol", protocol.ExtensionChallenging)

		// When: Bob challenges Carol
		require.NoError(t, handle(hub, bob, protocol.TypeChallenge, "Carol"))

		// Then: Carol is told who is asking
		assert.Equal(t, []string{"cl;Bob"}, carolConn.sent())
		carolConn.reset()

		// When: Carol accepts
		require.NoError(t, handle(hub, carol, protocol.TypeChallengeReply, protocol.Accept))

		// Then: the game starts with Bob in the first seat
		assert.Equal(t, []string{"gs;Bob;Carol", "sp;Bob", "mm"}, bobConn.sent())
		assert.Equal(t, []string{"gs;Bob;Carol", "sp;Bob"}, carolConn.sent())
	})

	t.Run("A refused challenge names the refuser", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, bobConn := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		carol, _ := connect(t, hub, "Carol", protocol.ExtensionChallenging)

		require.NoError(t, handle(hub, bob, protocol.TypeChallenge, "Carol"))

		// When: Carol declines
		require.NoError(t, handle(hub, carol, protocol.TypeChallengeReply, protocol.Decline))

		// Then: Bob hears the refusal and both are free again
		assert.Equal(t, []string{"cr;Carol"}, bobConn.sent())
		assert.Nil(t, hub.challenges["Bob"])
		assert.Nil(t, hub.challenges["Carol"])
	})

	t.Run("One decline refuses a group challenge eagerly", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, bobConn := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		carol, _ := connect(t, hub, "Carol", protocol.ExtensionChallenging)
		dave, _ := connect(t, hub, "Dave", protocol.ExtensionChallenging)

		require.NoError(t, handle(hub, bob, protocol.TypeChallenge, "Carol", "Dave"))
		require.NoError(t, handle(hub, carol, protocol.TypeChallengeReply, protocol.Accept))

		// When: Dave declines after Carol accepted
		require.NoError(t, handle(hub, dave, protocol.TypeChallengeReply, protocol.Decline))

		// Then: Bob hears Dave refused, nobody is booked and no game started
		assert.Equal(t, []string{"cr;Dave"}, bobConn.sent())
		assert.Nil(t, hub.challenges["Carol"])
		assert.Empty(t, hub.sessions)
	})

	t.Run("Rejects a challenge to an unknown player", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, conn := connect(t, hub, "Bob", protocol.ExtensionChallenging)

		err := handle(hub, bob, protocol.TypeChallenge, "Nobody")

		require.ErrorIs(t, err, apperror.ErrPlayerNotFound)
		assert.Equal(t, []string{"cr;1"}, conn.sent())
	})

	t.Run("Rejects challenging a seated player", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, conn := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		carol, _ := connect(t, hub, "Carol", protocol.ExtensionChallenging)
		require.NoError(t, handle(hub, carol, protocol.TypeGameRequest, "2", protocol.HumanPlayer))

		err := handle(hub, bob, protocol.TypeChallenge, "Carol")

		require.Error(t, err)
		assert.Equal(t, []string{"cr;1"}, conn.sent())
	})

	t.Run("A booked participant cannot request a lobby game", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, _ := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		carol, carolConn := connect(t, hub, "Carol", protocol.ExtensionChallenging)

		require.NoError(t, handle(hub, bob, protocol.TypeChallenge, "Carol"))
		carolConn.reset()

		// When: Carol tries to queue for a lobby game while challenged
		err := handle(hub, carol, protocol.TypeGameRequest, "2", protocol.HumanPlayer)

		// Then: the request is declined and no lobby was opened
		require.ErrorIs(t, err, apperror.ErrOutOfState)
		assert.Equal(t, []string{"cr;1"}, carolConn.sent())
		assert.Empty(t, hub.lobbies)
	})

	t.Run("Acceptance refuses a challenge whose participant got occupied", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, bobConn := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		carol, _ := connect(t, hub, "Carol", protocol.ExtensionChallenging)

		require.NoError(t, handle(hub, bob, protocol.TypeChallenge, "Carol"))

		// Given: Bob landed in a game between invitation and answer
		running := &session{}
		bob.session = running

		// When: Carol accepts anyway
		err := handle(hub, carol, protocol.TypeChallengeReply, protocol.Accept)

		// Then: the challenge is refused naming Bob and his game survives
		require.Error(t, err)
		assert.Equal(t, []string{"cr;Bob"}, bobConn.sent())
		assert.Same(t, running, bob.session)
		assert.Empty(t, hub.sessions)
		assert.Nil(t, hub.challenges["Carol"])
	})

	t.Run("Rejects challenging yourself", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, _ := connect(t, hub, "Bob", protocol.ExtensionChallenging)

		err := handle(hub, bob, protocol.TypeChallenge, "Bob")

		assert.Error(t, err)
	})

	t.Run("A reply without a pending challenge is out of state", func(t *testing.T) {
		hub, _ := newTestHub(t)
		carol, _ := connect(t, hub, "Carol", protocol.ExtensionChallenging)

		err := handle(hub, carol, protocol.TypeChallengeReply, protocol.Accept)

		assert.ErrorIs(t, err, apperror.ErrOutOfState)
	})

	t.Run("A target disconnect refuses the challenge", func(t *testing.T) {
		hub, _ := newTestHub(t)
		bob, bobConn := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		carol, _ := connect(t, hub, "Carol", protocol.ExtensionChallenging)

		require.NoError(t, handle(hub, bob, protocol.TypeChallenge, "Carol"))

		// When: Carol drops before answering
		hub.Disconnect(carol)

		// Then: Bob hears the refusal
		assert.Equal(t, []string{"cr;Carol"}, bobConn.sent())
	})

	t.Run("An unanswered challenge expires as a refusal", func(t *testing.T) {
		hub, _ := newTestHub(t)
		hub.conf.ChallengeTimeout = 20 * time.Millisecond

		bob, bobConn := connect(t, hub, "Bob", protocol.ExtensionChallenging)
		connect(t, hub, "Carol", protocol.ExtensionChallenging)

		require.NoError(t, handle(hub, bob, protocol.TypeChallenge, "Carol"))

		assert.Eventually(t, func() bool {
			sent := bobConn.sent()
			return len(sent) == 1 && sent[0] == "cr;Carol"
		}, time.Second, 5*time.Millisecond)
	})
}
