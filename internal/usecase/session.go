package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
	"github.com/Vulcanostrol/ringgzprotocol/internal/ringgz"
)

// session drives one game from GAME_STARTED to GAME_ENDED. All move
// handling is serialized on sess.mu, so moves apply strictly in
// submission order and sessions never block each other. Lock order:
// sess.mu may take hub.mu (for lookups and cleanup), never the reverse.
type session struct {
	hub    *Hub
	mu     sync.Mutex
	game   *entity.Game
	oracle Oracle
}

func newSession(hub *Hub, game *entity.Game, oracle Oracle) *session {
	return &session{
		hub:    hub,
		game:   game,
		oracle: oracle,
	}
}

// begin announces the starting player and solicits the first move. Must
// be called without hub.mu held.
func (that *session) begin(ctx context.Context) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.game.Status = entity.StatusOngoing
	that.broadcast(protocol.TypeStartingPlayer, that.game.ActivePlayer().Username)
	that.solicitMove(ctx)
}

// handleMove routes a MOVE packet from the hub into this session.
func (that *Hub) handleMove(ctx context.Context, client *Client, packet *protocol.Packet) error {
	that.mu.Lock()
	sess := client.session
	that.mu.Unlock()

	if sess == nil {
		that.recordViolation(client, "move outside a game")
		return fmt.Errorf("move from %s: %w", client.Username(), apperror.ErrOutOfState)
	}

	move, err := parseMove(packet)
	if err != nil {
		that.sendDecline(client)
		return fmt.Errorf("move from %s: %w", client.Username(), err)
	}

	return sess.handleMove(ctx, client, move)
}

func (that *session) handleMove(ctx context.Context, client *Client, move entity.Move) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.game.IsOngoing() {
		that.hub.recordViolation(client, "move in a finished game")
		return fmt.Errorf("move from %s in game %s: %w", client.Username(), that.game.ID, apperror.ErrGameFinished)
	}

	active := that.game.ActivePlayer()
	if active.Username != client.Username() {
		that.hub.recordViolation(client, "move out of turn")
		return fmt.Errorf("move from %s during %s's turn: %w", client.Username(), active.Username, apperror.ErrNotYourTurn)
	}

	if err := that.oracle.Apply(that.game.Turn, move); err != nil {
		if errors.Is(err, ringgz.ErrIllegalMove) {
			// A retry, not an error: re-solicit the same seat.
			that.hub.send(client, protocol.TypeMakeMove)
			return nil
		}
		return fmt.Errorf("move from %s: %w", client.Username(), err)
	}

	that.applyAccepted(move)
	that.continueGame(ctx)

	return nil
}

// applyAccepted logs a legal move and broadcasts the realized move to
// every participant in acceptance order.
func (that *session) applyAccepted(move entity.Move) {
	that.game.AppendMove(move)

	fields := []string{move.Kind, strconv.Itoa(move.Field)}
	if move.Color != "" {
		fields = append(fields, move.Color)
	}
	that.broadcast(protocol.TypeMove, fields...)
}

// continueGame runs the turn cycle after an accepted move: eliminate
// stuck seats, finish when the oracle says so, advance, and let bots
// play through their turns synchronously.
func (that *session) continueGame(ctx context.Context) {
	for {
		for seat, player := range that.game.Players {
			if !that.game.Eliminated[player.Username] && !that.oracle.HasLegalMove(seat) {
				that.game.Eliminate(player.Username)
			}
		}

		if that.oracle.IsOver() || that.game.RemainingSeats() == 0 {
			that.finish(ctx)
			return
		}

		if err := that.game.Advance(); err != nil {
			that.finish(ctx)
			return
		}

		active := that.game.ActivePlayer()
		if !active.IsBot() {
			that.solicitMove(ctx)
			return
		}

		move, err := that.hub.bot.ChooseMove(that.oracle.LegalMoves(that.game.Turn))
		if err != nil {
			// HasLegalMove above guarantees a move exists.
			that.hub.logger.Error("bot has no move", "gameID", that.game.ID, "error", err)
			that.finish(ctx)
			return
		}

		if err = that.oracle.Apply(that.game.Turn, move); err != nil {
			that.hub.logger.Error("bot move rejected", "gameID", that.game.ID, "error", err)
			that.finish(ctx)
			return
		}

		that.applyAccepted(move)
	}
}

// solicitMove asks the active seat for its move.
func (that *session) solicitMove(_ context.Context) {
	active := that.hub.lookupClient(that.game.ActivePlayer().Username)
	that.hub.send(active, protocol.TypeMakeMove)
}

// finish computes final scores, broadcasts GAME_ENDED and records the
// result on the leaderboard. Bots play but never enter the leaderboard.
func (that *session) finish(ctx context.Context) {
	log := that.hub.logger.With("method", "finish", "gameID", that.game.ID)

	scores := that.oracle.Scores()

	fields := make([]string, 0, 2*len(that.game.Players))
	results := make([]*entity.ScoreEntry, 0, len(that.game.Players))
	for seat, player := range that.game.Players {
		fields = append(fields, player.Username, strconv.Itoa(scores[seat]))
		if !player.IsBot() {
			results = append(results, &entity.ScoreEntry{Username: player.Username, Score: scores[seat]})
		}
	}

	that.broadcast(protocol.TypeGameEnded, fields...)
	that.game.Status = entity.StatusEnded
	that.hub.removeSession(that)

	if err := that.hub.leaderboard.RecordResult(ctx, results); err != nil {
		log.Error("failed to record game result", "error", err)
	}

	log.Info("game ended")
}

// abort ends the session without scores after a participant dropped.
// Partial games never award partial scores.
func (that *session) abort(username string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game.IsTerminal() {
		return
	}

	that.game.Status = entity.StatusAborted
	that.broadcast(protocol.TypePlayerDisconnected, username)
	that.hub.removeSession(that)

	that.hub.logger.Info("game aborted", "gameID", that.game.ID, "username", username)
}

// broadcast sends one packet to every human participant, in seat order.
func (that *session) broadcast(packetType string, fields ...string) {
	for _, player := range that.game.Players {
		if player.IsBot() {
			continue
		}
		that.hub.send(that.hub.lookupClient(player.Username), packetType, fields...)
	}
}

// removeSession unlinks a terminal session from the hub registry.
func (that *Hub) removeSession(sess *session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, sess.game.ID)
	for _, player := range sess.game.Players {
		if client := that.clients[player.Username]; client != nil && client.session == sess {
			client.session = nil
		}
	}
}

// parseMove validates the MOVE fields: kind token, board field index
// and, for every kind but the starting base, the color token.
func parseMove(packet *protocol.Packet) (entity.Move, error) {
	kind := packet.Fields[0]

	field, err := strconv.Atoi(packet.Fields[1])
	if err != nil {
		return entity.Move{}, fmt.Errorf("%w: bad field index %q", apperror.ErrIllegalMove, packet.Fields[1])
	}

	move := entity.Move{Kind: kind, Field: field}

	switch kind {
	case protocol.MoveStartingBase:
		if len(packet.Fields) != 2 {
			return entity.Move{}, fmt.Errorf("%w: starting base takes no color", apperror.ErrIllegalMove)
		}
	case protocol.MoveBase, protocol.MoveRingSmallest, protocol.MoveRingSmall,
		protocol.MoveRingMedium, protocol.MoveRingLarge:
		if len(packet.Fields) != 3 {
			return entity.Move{}, fmt.Errorf("%w: move kind %q needs a color", apperror.ErrIllegalMove, kind)
		}
		if packet.Fields[2] != protocol.ColorPrimary && packet.Fields[2] != protocol.ColorSecondary {
			return entity.Move{}, fmt.Errorf("%w: bad color %q", apperror.ErrIllegalMove, packet.Fields[2])
		}
		move.Color = packet.Fields[2]
	default:
		return entity.Move{}, fmt.Errorf("%w: bad move kind %q", apperror.ErrIllegalMove, kind)
	}

	return move, nil
}
