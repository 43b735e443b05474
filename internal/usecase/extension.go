package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
	"github.com/Vulcanostrol/ringgzprotocol/internal/repository"
	"github.com/Vulcanostrol/ringgzprotocol/internal/service"
)

// handleLeaderboard answers with the ranked standings, flattened into
// username and score pairs, best first.
func (that *Hub) handleLeaderboard(ctx context.Context, client *Client, _ *protocol.Packet) error {
	if !client.player.HasExtension(protocol.ExtensionLeaderboard) {
		that.recordViolation(client, "leaderboard without the leaderboard extension")
		return fmt.Errorf("leaderboard from %s: %w", client.Username(), apperror.ErrExtensionNotActive)
	}

	entries, err := that.leaderboard.Snapshot(ctx)
	if err != nil {
		that.sendDecline(client)
		return fmt.Errorf("leaderboard from %s: %w", client.Username(), err)
	}

	fields := make([]string, 0, 2*len(entries))
	for _, entry := range entries {
		fields = append(fields, entry.Username, strconv.Itoa(entry.Score))
	}

	that.send(client, protocol.TypeLeaderboard, fields...)

	return nil
}

// handleScoreLog answers with a player's score history: the username
// followed by one "timestamp,points" field per finished game, oldest
// first. Timestamps are unix seconds.
func (that *Hub) handleScoreLog(ctx context.Context, client *Client, packet *protocol.Packet) error {
	if !client.player.HasExtension(protocol.ExtensionLeaderboard) {
		that.recordViolation(client, "score log without the leaderboard extension")
		return fmt.Errorf("score log from %s: %w", client.Username(), apperror.ErrExtensionNotActive)
	}

	username := packet.Fields[0]

	deltas, err := that.leaderboard.History(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNoScores) {
		that.sendDecline(client)
		return fmt.Errorf("score log from %s: %w", client.Username(), err)
	}

	fields := make([]string, 0, len(deltas)+1)
	fields = append(fields, username)
	for _, delta := range deltas {
		fields = append(fields, fmt.Sprintf("%d,%d", delta.Timestamp.Unix(), delta.Points))
	}

	that.send(client, protocol.TypeScoreLog, fields...)

	return nil
}

// handleLoginRegister runs the security extension's credential exchange.
// The request mode picks login or registration; either way the reply is
// a bare accept or decline, never a reason.
func (that *Hub) handleLoginRegister(ctx context.Context, client *Client, packet *protocol.Packet) error {
	log := that.logger.With("method", "handleLoginRegister", "username", client.Username())

	if !client.player.HasExtension(protocol.ExtensionSecurity) {
		that.recordViolation(client, "login without the security extension")
		return fmt.Errorf("login from %s: %w", client.Username(), apperror.ErrExtensionNotActive)
	}

	if len(packet.Fields) != 3 {
		that.sendDecline(client)
		return fmt.Errorf("login from %s: want mode, username and password", client.Username())
	}

	mode, username, password := packet.Fields[0], packet.Fields[1], packet.Fields[2]
	if username == "" || password == "" {
		that.sendDecline(client)
		return fmt.Errorf("login from %s: empty username or password", client.Username())
	}

	var err error
	switch mode {
	case protocol.ModeLogin:
		err = that.auth.Login(ctx, username, password)
	case protocol.ModeRegister:
		err = that.auth.Register(ctx, username, password)
	default:
		that.sendDecline(client)
		return fmt.Errorf("login from %s: bad mode %q", client.Username(), mode)
	}

	switch {
	case err == nil:
		that.send(client, protocol.TypeLoginRegister, protocol.Accept)
		log.Info("credential exchange accepted", "mode", mode, "account", username)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, repository.ErrCredentialExists):
		that.send(client, protocol.TypeLoginRegister, protocol.Decline)
	default:
		that.send(client, protocol.TypeLoginRegister, protocol.Decline)
		return fmt.Errorf("login from %s: %w", client.Username(), err)
	}

	return nil
}
