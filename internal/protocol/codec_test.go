package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("Encodes a connect packet with extensions", func(t *testing.T) {
		// Given: a username and two extension tokens
		line, err := Encode(TypeConnect, "Alice", ExtensionChatting, ExtensionChallenging)

		// Then: the fields join on the delimiter without a newline
		require.NoError(t, err)
		assert.Equal(t, "cn;Alice;chat;chal", line)
	})

	t.Run("Encodes a packet without fields as the bare type code", func(t *testing.T) {
		line, err := Encode(TypeMakeMove)

		require.NoError(t, err)
		assert.Equal(t, "mm", line)
	})

	t.Run("Rejects an unknown packet type", func(t *testing.T) {
		_, err := Encode("xx", "field")

		assert.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("Rejects a field count outside the packet arity", func(t *testing.T) {
		// Given: GAME_REQUEST takes exactly two fields
		_, err := Encode(TypeGameRequest, "2")

		assert.ErrorIs(t, err, ErrBadFieldCount)
	})

	t.Run("Rejects a field containing the delimiter", func(t *testing.T) {
		// Given: the protocol has no escaping, so embedded delimiters are banned
		_, err := Encode(TypeConnect, "Ali;ce")

		assert.ErrorIs(t, err, ErrFieldHasDelim)
	})

	t.Run("Rejects a field containing a line break", func(t *testing.T) {
		_, err := Encode(TypeMessage, ScopeGlobal, "hello\nworld")

		assert.ErrorIs(t, err, ErrFieldHasNewline)
	})
}

func TestDecode(t *testing.T) {
	t.Run("Decodes a connect packet", func(t *testing.T) {
		// When: decoding a handshake line with a trailing newline
		packet, err := Decode("cn;Bob;chat\n")

		// Then: the type and fields come apart cleanly
		require.NoError(t, err)
		assert.Equal(t, TypeConnect, packet.Type)
		assert.Equal(t, []string{"Bob", "chat"}, packet.Fields)
	})

	t.Run("Decodes a field-less packet", func(t *testing.T) {
		packet, err := Decode("jl")

		require.NoError(t, err)
		assert.Equal(t, TypeJoinedLobby, packet.Type)
		assert.Empty(t, packet.Fields)
	})

	t.Run("Rejects an empty line", func(t *testing.T) {
		_, err := Decode("\r\n")

		assert.ErrorIs(t, err, ErrEmptyPacket)
	})

	t.Run("Rejects an unknown type code", func(t *testing.T) {
		_, err := Decode("zz;stuff")

		assert.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("Rejects a move packet with too many fields", func(t *testing.T) {
		_, err := Decode("mv;1;12;0;extra")

		assert.ErrorIs(t, err, ErrBadFieldCount)
	})

	t.Run("Rejects a game request with a missing field", func(t *testing.T) {
		_, err := Decode("gr;2")

		assert.ErrorIs(t, err, ErrBadFieldCount)
	})

	t.Run("Round-trips every packet of a full game opening", func(t *testing.T) {
		// Given: the wire exchange of two players meeting in a lobby
		lines := []string{
			"cn;Alice;chat",
			"cr;0;chat;chal;lead;secu",
			"gr;2;1",
			"jl",
			"ap",
			"ps;0",
			"gs;Alice;Bob",
			"sp;Alice",
			"mm",
			"mv;0;12",
			"mv;1;7;0",
			"ge;Alice;10;Bob;8",
		}

		for _, line := range lines {
			packet, err := Decode(line)
			require.NoError(t, err, line)

			encoded, err := Encode(packet.Type, packet.Fields...)
			require.NoError(t, err, line)
			assert.Equal(t, line, encoded)
		}
	})
}

func TestIsMalformed(t *testing.T) {
	t.Run("Classifies decode failures as malformed", func(t *testing.T) {
		_, err := Decode("zz")

		assert.True(t, IsMalformed(err))
	})

	t.Run("Leaves unrelated errors alone", func(t *testing.T) {
		assert.False(t, IsMalformed(assert.AnError))
	})
}
