package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
)

// handleGameRequest places a handshaken connection into a shape-matching
// lobby, first-fit by creation order, creating one when nothing matches.
// Computer seats are filled synchronously, so a bot game starts its
// readiness poll immediately.
func (that *Hub) handleGameRequest(ctx context.Context, client *Client, packet *protocol.Packet) error {
	log := that.logger.With("method", "handleGameRequest", "username", client.Username())

	size, err := strconv.Atoi(packet.Fields[0])
	if err != nil || size < entity.MinLobbySize || size > entity.MaxLobbySize {
		that.sendDecline(client)
		return fmt.Errorf("game request: bad player count %q", packet.Fields[0])
	}

	opponentType := packet.Fields[1]
	if opponentType != protocol.ComputerPlayer && opponentType != protocol.HumanPlayer {
		that.sendDecline(client)
		return fmt.Errorf("game request: bad opponent type %q", packet.Fields[1])
	}

	that.mu.Lock()

	if client.lobby != nil {
		that.mu.Unlock()
		that.recordViolation(client, "game request while in a lobby")
		return fmt.Errorf("game request from %s: %w", client.Username(), apperror.ErrAlreadyInLobby)
	}

	if client.session != nil {
		that.mu.Unlock()
		that.recordViolation(client, "game request while in a game")
		return fmt.Errorf("game request from %s: %w", client.Username(), apperror.ErrAlreadyInGame)
	}

	// A connection sits in at most one lobby, game or challenge at a
	// time; a booked challenge participant answers or waits it out first.
	if that.challenges[client.Username()] != nil {
		that.mu.Unlock()
		that.recordViolation(client, "game request during a pending challenge")
		return fmt.Errorf("game request from %s during a pending challenge: %w", client.Username(), apperror.ErrOutOfState)
	}

	lobby := that.matchLobbyLocked(size, opponentType)
	if lobby == nil {
		lobby = entity.NewLobby(that.nextLobbyID(), size, opponentType)
		that.lobbies = append(that.lobbies, lobby)
		log.Info("lobby created", "lobbyID", lobby.ID, "size", size, "opponentType", opponentType)
	}

	lobby.AddSeat(client.player)
	client.lobby = lobby
	that.send(client, protocol.TypeJoinedLobby)

	if opponentType == protocol.ComputerPlayer {
		for seat := len(lobby.Seats); seat < lobby.Size; seat++ {
			lobby.AddSeat(entity.NewBotPlayer(lobby.ID, seat))
		}
	}

	if lobby.IsFull() {
		that.startPollLocked(lobby)
	}

	that.mu.Unlock()

	return nil
}

// handlePlayerStatus records one ACCEPT/DECLINE answer of a readiness
// poll and resolves the poll once nobody is pending anymore.
func (that *Hub) handlePlayerStatus(ctx context.Context, client *Client, packet *protocol.Packet) error {
	answer := packet.Fields[0]
	if answer != protocol.Accept && answer != protocol.Decline {
		that.sendDecline(client)
		return fmt.Errorf("player status: bad answer %q", answer)
	}

	that.mu.Lock()

	lobby := client.lobby
	if lobby == nil || !lobby.Polling || lobby.Readiness[client.Username()] != entity.ReadyPending {
		that.mu.Unlock()
		that.recordViolation(client, "player status without a pending poll")
		return fmt.Errorf("player status from %s: %w", client.Username(), apperror.ErrOutOfState)
	}

	if answer == protocol.Accept {
		lobby.Readiness[client.Username()] = entity.ReadyAccepted
	} else {
		lobby.Readiness[client.Username()] = entity.ReadyDeclined
	}

	var promoted *session
	if lobby.AllResolved() {
		promoted = that.resolvePollLocked(lobby)
	}

	that.mu.Unlock()

	if promoted != nil {
		promoted.begin(ctx)
	}

	return nil
}

// matchLobbyLocked finds the oldest open lobby of the requested shape.
func (that *Hub) matchLobbyLocked(size int, opponentType string) *entity.Lobby {
	for _, lobby := range that.lobbies {
		if lobby.Size == size && lobby.OpponentType == opponentType && !lobby.IsFull() {
			return lobby
		}
	}
	return nil
}

// startPollLocked broadcasts ALL_PLAYERS_CONNECTED and opens the
// readiness collection with its configured deadline. Bot seats count as
// accepted from the start; only humans are polled.
func (that *Hub) startPollLocked(lobby *entity.Lobby) {
	lobby.StartPoll()

	for _, player := range lobby.Seats {
		if !player.IsBot() {
			that.send(that.clients[player.Username], protocol.TypeAllPlayersConnected)
		}
	}

	generation := lobby.Generation
	time.AfterFunc(that.conf.ReadyTimeout, func() {
		that.pollDeadline(lobby, generation)
	})
}

// pollDeadline fires when a readiness collection ran out of time. Seats
// still pending resolve as declined; a stale generation means the poll
// already resolved and the timer is a no-op.
func (that *Hub) pollDeadline(lobby *entity.Lobby, generation int) {
	that.mu.Lock()

	if !lobby.Polling || lobby.Generation != generation {
		that.mu.Unlock()
		return
	}

	for username, state := range lobby.Readiness {
		if state == entity.ReadyPending {
			lobby.Readiness[username] = entity.ReadyDeclined
		}
	}

	promoted := that.resolvePollLocked(lobby)
	that.mu.Unlock()

	if promoted != nil {
		promoted.begin(context.Background())
	}
}

// resolvePollLocked applies the resolution rule: unanimous acceptance
// promotes the lobby into a session; otherwise the declining and silent
// seats are evicted and the survivors go back to waiting with a fresh
// JOINED_LOBBY.
func (that *Hub) resolvePollLocked(lobby *entity.Lobby) *session {
	log := that.logger.With("method", "resolvePoll", "lobbyID", lobby.ID)

	lobby.Polling = false

	// A lobby that lost seats mid-poll is not promotable even when
	// everyone left in it accepted; it goes back to waiting instead.
	if lobby.IsFull() && lobby.AllAccepted() {
		that.removeLobbyLocked(lobby)
		log.Info("lobby promoted to game")
		return that.createSessionLocked(lobby.Seats)
	}

	for _, username := range lobby.Unresolved() {
		lobby.RemoveSeat(username)
		if evicted := that.clients[username]; evicted != nil {
			evicted.lobby = nil
		}
		log.Info("seat evicted from lobby", "username", username)
	}

	humans := 0
	for _, player := range lobby.Seats {
		if !player.IsBot() {
			humans++
			that.send(that.clients[player.Username], protocol.TypeJoinedLobby)
		}
	}

	// A lobby holding only bots has nobody left to wait for.
	if humans == 0 {
		that.removeLobbyLocked(lobby)
	}

	return nil
}

// leaveLobbyLocked handles a disconnect while seated in a lobby. During
// a poll the lost seat counts as resolved, which may finish the poll;
// the returned follow-up must run after hub.mu is released.
func (that *Hub) leaveLobbyLocked(lobby *entity.Lobby, username string) func() {
	lobby.RemoveSeat(username)

	humans := 0
	for _, player := range lobby.Seats {
		if !player.IsBot() {
			humans++
		}
	}

	if humans == 0 {
		that.removeLobbyLocked(lobby)
		return nil
	}

	if lobby.Polling && lobby.AllResolved() {
		promoted := that.resolvePollLocked(lobby)
		if promoted != nil {
			return func() { promoted.begin(context.Background()) }
		}
	}

	return nil
}

func (that *Hub) removeLobbyLocked(lobby *entity.Lobby) {
	for i, candidate := range that.lobbies {
		if candidate == lobby {
			that.lobbies = append(that.lobbies[:i], that.lobbies[i+1:]...)
			return
		}
	}
}

// createSessionLocked turns a finalized seat list into a live session
// and announces GAME_STARTED with the seat assignment. The caller must
// invoke begin on the returned session once hub.mu is released.
func (that *Hub) createSessionLocked(seats []*entity.Player) *session {
	game := entity.NewGame(that.nextGameID(), seats)
	sess := newSession(that, game, that.newOracle(len(seats)))
	that.sessions[game.ID] = sess

	usernames := make([]string, 0, len(seats))
	for _, player := range seats {
		usernames = append(usernames, player.Username)
	}

	for _, player := range seats {
		if player.IsBot() {
			continue
		}
		seated := that.clients[player.Username]
		if seated == nil {
			continue
		}
		seated.lobby = nil
		seated.session = sess
		that.send(seated, protocol.TypeGameStarted, usernames...)
	}

	return sess
}
