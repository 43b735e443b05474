package usecase

import (
	"context"
	"fmt"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
)

// handleMessage relays a chat message. Inbound, the optional middle
// field is the private target; outbound it always carries the sender,
// so a receiver knows who is talking regardless of scope.
func (that *Hub) handleMessage(_ context.Context, client *Client, packet *protocol.Packet) error {
	if !client.player.HasExtension(protocol.ExtensionChatting) {
		that.recordViolation(client, "chat without the chat extension")
		return fmt.Errorf("message from %s: %w", client.Username(), apperror.ErrExtensionNotActive)
	}

	scope := packet.Fields[0]

	switch scope {
	case protocol.ScopeGlobal, protocol.ScopeLobby:
		if len(packet.Fields) != 2 {
			that.sendDecline(client)
			return fmt.Errorf("message from %s: scope %s takes exactly one text field", client.Username(), scope)
		}
		return that.relayMessage(client, scope, packet.Fields[1])

	case protocol.ScopePrivate:
		if len(packet.Fields) != 3 {
			that.sendDecline(client)
			return fmt.Errorf("message from %s: private scope needs a target", client.Username())
		}
		return that.relayPrivate(client, packet.Fields[1], packet.Fields[2])

	default:
		that.sendDecline(client)
		return fmt.Errorf("message from %s: bad scope %q", client.Username(), scope)
	}
}

// relayMessage fans a global or lobby message out. Global reaches every
// chat-capable connection but the sender; lobby reaches the sender's
// current lobby mates or game opponents.
func (that *Hub) relayMessage(client *Client, scope, text string) error {
	receivers, err := that.chatReceivers(client, scope)
	if err != nil {
		that.sendDecline(client)
		return err
	}

	for _, receiver := range receivers {
		that.send(receiver, protocol.TypeMessage, scope, client.Username(), text)
	}

	return nil
}

func (that *Hub) relayPrivate(client *Client, target, text string) error {
	peer := that.lookupClient(target)
	if peer == nil || peer == client {
		that.sendDecline(client)
		return fmt.Errorf("message from %s to %q: %w", client.Username(), target, apperror.ErrPlayerNotFound)
	}

	if !peer.player.HasExtension(protocol.ExtensionChatting) {
		that.sendDecline(client)
		return fmt.Errorf("message from %s: player %q does not chat", client.Username(), target)
	}

	that.send(peer, protocol.TypeMessage, protocol.ScopePrivate, client.Username(), text)

	return nil
}

func (that *Hub) chatReceivers(client *Client, scope string) ([]*Client, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var receivers []*Client

	switch scope {
	case protocol.ScopeGlobal:
		for _, peer := range that.clients {
			if peer != client && peer.player.HasExtension(protocol.ExtensionChatting) {
				receivers = append(receivers, peer)
			}
		}

	case protocol.ScopeLobby:
		var peers []string
		switch {
		case client.lobby != nil:
			for _, player := range client.lobby.Seats {
				peers = append(peers, player.Username)
			}
		case client.session != nil:
			for _, player := range client.session.game.Players {
				peers = append(peers, player.Username)
			}
		default:
			return nil, fmt.Errorf("message from %s: not in a lobby or game", client.Username())
		}

		for _, username := range peers {
			peer := that.clients[username]
			if peer != nil && peer != client && peer.player.HasExtension(protocol.ExtensionChatting) {
				receivers = append(receivers, peer)
			}
		}
	}

	return receivers, nil
}
