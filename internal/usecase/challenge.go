package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
)

// challenge is one pending direct invitation: a challenger waiting for
// every named target to accept. A single decline, timeout or disconnect
// cancels the whole thing; the first refuser is named in the refusal.
type challenge struct {
	challenger string
	targets    []string          // in the order they were named
	answers    map[string]string // target username -> pending/accepted/declined
	generation int
}

func (that *challenge) allAccepted() bool {
	for _, state := range that.answers {
		if state != entity.ReadyAccepted {
			return false
		}
	}
	return true
}

func (that *challenge) participants() []string {
	return append([]string{that.challenger}, that.targets...)
}

// handlePlayerList answers with the usernames of everyone currently
// handshaken, the challenger's own included.
func (that *Hub) handlePlayerList(_ context.Context, client *Client, _ *protocol.Packet) error {
	if !client.player.HasExtension(protocol.ExtensionChallenging) {
		that.recordViolation(client, "player list without the challenge extension")
		return fmt.Errorf("player list from %s: %w", client.Username(), apperror.ErrExtensionNotActive)
	}

	that.mu.Lock()
	usernames := make([]string, 0, len(that.clients))
	for username := range that.clients {
		usernames = append(usernames, username)
	}
	that.mu.Unlock()

	that.send(client, protocol.TypePlayerList, usernames...)

	return nil
}

// handleChallenge opens a direct invitation to the named targets. Every
// target must be connected, free and challenge-capable; the invitation
// is relayed as a CHALLENGE naming the challenger, and expires after
// the configured timeout.
func (that *Hub) handleChallenge(_ context.Context, client *Client, packet *protocol.Packet) error {
	log := that.logger.With("method", "handleChallenge", "username", client.Username())

	if !client.player.HasExtension(protocol.ExtensionChallenging) {
		that.recordViolation(client, "challenge without the challenge extension")
		return fmt.Errorf("challenge from %s: %w", client.Username(), apperror.ErrExtensionNotActive)
	}

	targets := packet.Fields
	if len(targets) > entity.MaxLobbySize-1 {
		that.sendDecline(client)
		return fmt.Errorf("challenge from %s: too many targets (%d)", client.Username(), len(targets))
	}

	that.mu.Lock()

	if client.lobby != nil || client.session != nil || that.challenges[client.Username()] != nil {
		that.mu.Unlock()
		that.recordViolation(client, "challenge while occupied")
		return fmt.Errorf("challenge from %s while in a lobby, game or challenge: %w", client.Username(), apperror.ErrOutOfState)
	}

	for _, target := range targets {
		if target == client.Username() {
			that.mu.Unlock()
			that.sendDecline(client)
			return fmt.Errorf("challenge from %s: cannot challenge yourself", client.Username())
		}

		peer := that.clients[target]
		if peer == nil {
			that.mu.Unlock()
			that.sendDecline(client)
			return fmt.Errorf("challenge from %s: target %q: %w", client.Username(), target, apperror.ErrPlayerNotFound)
		}

		if peer.lobby != nil || peer.session != nil || that.challenges[target] != nil {
			that.mu.Unlock()
			that.sendDecline(client)
			return fmt.Errorf("challenge from %s: target %q unavailable", client.Username(), target)
		}

		if !peer.player.HasExtension(protocol.ExtensionChallenging) {
			that.mu.Unlock()
			that.sendDecline(client)
			return fmt.Errorf("challenge from %s: target %q lacks the challenge extension", client.Username(), target)
		}
	}

	chal := &challenge{
		challenger: client.Username(),
		targets:    targets,
		answers:    make(map[string]string, len(targets)),
		generation: that.challengeSeq(),
	}
	for _, target := range targets {
		chal.answers[target] = entity.ReadyPending
	}

	// Everyone involved is booked under the same record, so a second
	// challenge touching any of them bounces.
	for _, name := range chal.participants() {
		that.challenges[name] = chal
	}

	for _, target := range targets {
		that.send(that.clients[target], protocol.TypeChallenge, client.Username())
	}

	generation := chal.generation
	time.AfterFunc(that.conf.ChallengeTimeout, func() {
		that.challengeDeadline(chal, generation)
	})

	that.mu.Unlock()

	log.Info("challenge issued", "targets", targets)

	return nil
}

// handleChallengeReply records one target's answer. The first decline
// refuses the whole challenge eagerly; unanimous acceptance starts the
// game with the challenger in the first seat.
func (that *Hub) handleChallengeReply(ctx context.Context, client *Client, packet *protocol.Packet) error {
	answer := packet.Fields[0]
	if answer != protocol.Accept && answer != protocol.Decline {
		that.sendDecline(client)
		return fmt.Errorf("challenge reply: bad answer %q", answer)
	}

	that.mu.Lock()

	chal := that.challenges[client.Username()]
	if chal == nil || chal.answers[client.Username()] != entity.ReadyPending {
		that.mu.Unlock()
		that.recordViolation(client, "challenge reply without a pending challenge")
		return fmt.Errorf("challenge reply from %s: %w", client.Username(), apperror.ErrOutOfState)
	}

	if answer == protocol.Decline {
		that.refuseChallengeLocked(chal, client.Username())
		that.mu.Unlock()
		return nil
	}

	chal.answers[client.Username()] = entity.ReadyAccepted

	if !chal.allAccepted() {
		that.mu.Unlock()
		return nil
	}

	// The booking keeps participants out of lobbies and other games, but
	// verify that held before seating anyone: whoever slipped into a game
	// anyway refuses the challenge rather than joining a second one.
	for _, name := range chal.participants() {
		peer := that.clients[name]
		if peer == nil || peer.lobby != nil || peer.session != nil {
			that.refuseChallengeLocked(chal, name)
			that.mu.Unlock()
			return fmt.Errorf("challenge reply from %s: participant %q is no longer free", client.Username(), name)
		}
	}

	that.dropChallengeLocked(chal)

	seats := make([]*entity.Player, 0, len(chal.targets)+1)
	seats = append(seats, that.clients[chal.challenger].player)
	for _, target := range chal.targets {
		seats = append(seats, that.clients[target].player)
	}

	sess := that.createSessionLocked(seats)
	that.mu.Unlock()

	sess.begin(ctx)

	return nil
}

// challengeDeadline expires a challenge nobody resolved in time. The
// timeout counts as a refusal by every target still pending.
func (that *Hub) challengeDeadline(chal *challenge, generation int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.challenges[chal.challenger] != chal || chal.generation != generation {
		return
	}

	for _, target := range chal.targets {
		if chal.answers[target] == entity.ReadyPending {
			that.refuseChallengeLocked(chal, target)
			return
		}
	}
}

// refuseChallengeLocked tears a challenge down and tells the challenger
// who refused, via the refusal form of the "cr" code.
func (that *Hub) refuseChallengeLocked(chal *challenge, refuser string) {
	that.dropChallengeLocked(chal)
	that.send(that.clients[chal.challenger], protocol.TypeChallengeRefused, refuser)
	that.logger.Info("challenge refused", "challenger", chal.challenger, "refuser", refuser)
}

// cancelChallengesLocked resolves a disconnect against the challenge
// table: a vanished challenger silently voids the invitation, a
// vanished target refuses it. Returns nil; the signature mirrors the
// lobby teardown so Disconnect treats both uniformly.
func (that *Hub) cancelChallengesLocked(username string) func() {
	chal := that.challenges[username]
	if chal == nil {
		return nil
	}

	if chal.challenger == username {
		that.dropChallengeLocked(chal)
		return nil
	}

	that.refuseChallengeLocked(chal, username)

	return nil
}

func (that *Hub) dropChallengeLocked(chal *challenge) {
	for _, name := range chal.participants() {
		if that.challenges[name] == chal {
			delete(that.challenges, name)
		}
	}
}

func (that *Hub) challengeSeq() int {
	that.chalSeq++
	return that.chalSeq
}
