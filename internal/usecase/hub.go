package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Vulcanostrol/ringgzprotocol/internal/apperror"
	"github.com/Vulcanostrol/ringgzprotocol/internal/config"
	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
	"github.com/Vulcanostrol/ringgzprotocol/internal/ringgz"
)

// Conn is the transport-side handle of one live connection. Send must
// not block on a slow peer; the transport queues outbound lines and
// evicts clients that stop draining them.
type Conn interface {
	Send(packetType string, fields ...string) error
	Close() error
}

// Oracle judges move legality, elimination and game termination for one
// session. The hub never looks at board state itself.
type Oracle interface {
	Apply(seat int, move entity.Move) error
	LegalMoves(seat int) []entity.Move
	HasLegalMove(seat int) bool
	IsOver() bool
	Scores() []int
}

type botService interface {
	ChooseMove(moves []entity.Move) (entity.Move, error)
}

type leaderboardService interface {
	RecordResult(ctx context.Context, results []*entity.ScoreEntry) error
	Snapshot(ctx context.Context) ([]*entity.ScoreEntry, error)
	History(ctx context.Context, username string) ([]*entity.ScoreDelta, error)
}

type authService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
}

// Client is the hub's view of one connection: nothing before the
// handshake, afterwards a player with at most one lobby or session.
type Client struct {
	conn       Conn
	player     *entity.Player
	lobby      *entity.Lobby
	session    *session
	violations int
}

// Username returns the handshaken username, or "" before the handshake.
func (that *Client) Username() string {
	if that.player == nil {
		return ""
	}
	return that.player.Username
}

type handlerFunc func(ctx context.Context, client *Client, packet *protocol.Packet) error

// Hub owns all shared protocol state: the directory of handshaken
// connections, the open lobbies, the live sessions and the pending
// challenges. Every mutation of those goes through hub.mu; each session
// additionally serializes its own moves.
type Hub struct {
	logger *slog.Logger
	conf   config.Game

	bot         botService
	leaderboard leaderboardService
	auth        authService
	newOracle   func(players int) Oracle

	handlers map[string]handlerFunc

	mu         sync.Mutex
	clients    map[string]*Client
	lobbies    []*entity.Lobby
	sessions   map[string]*session
	challenges map[string]*challenge // keyed by target and challenger usernames
	lobbySeq   int
	gameSeq    int
	chalSeq    int
}

func NewHub(logger *slog.Logger, conf config.Game, bot botService, leaderboard leaderboardService, auth authService) *Hub {
	hub := &Hub{
		logger: logger,
		conf:   conf,

		bot:         bot,
		leaderboard: leaderboard,
		auth:        auth,
		newOracle: func(players int) Oracle {
			return ringgz.NewGame(players)
		},

		clients:    make(map[string]*Client),
		sessions:   make(map[string]*session),
		challenges: make(map[string]*challenge),
	}

	hub.handlers = map[string]handlerFunc{
		protocol.TypeConnect:        hub.handleConnect,
		protocol.TypeGameRequest:    hub.handleGameRequest,
		protocol.TypePlayerStatus:   hub.handlePlayerStatus,
		protocol.TypeMove:           hub.handleMove,
		protocol.TypeMessage:        hub.handleMessage,
		protocol.TypePlayerList:     hub.handlePlayerList,
		protocol.TypeChallenge:      hub.handleChallenge,
		protocol.TypeChallengeReply: hub.handleChallengeReply,
		protocol.TypeLeaderboard:    hub.handleLeaderboard,
		protocol.TypeScoreLog:       hub.handleScoreLog,
		protocol.TypeLoginRegister:  hub.handleLoginRegister,
	}

	return hub
}

// NewClient wraps a fresh transport connection. The client stays
// anonymous until its CONNECT packet passes the handshake.
func (that *Hub) NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

// Handle routes one decoded packet. Before the handshake only CONNECT
// is legal; afterwards the packet type picks its handler. Server-only
// packet types decode fine but have no handler, which makes them
// out-of-state violations like any other misplaced packet.
func (that *Hub) Handle(ctx context.Context, client *Client, packet *protocol.Packet) error {
	if client.player == nil && packet.Type != protocol.TypeConnect {
		that.recordViolation(client, "packet before handshake: "+packet.Type)
		return fmt.Errorf("%s: %w", packet.Type, apperror.ErrNotHandshaken)
	}

	handler, ok := that.handlers[packet.Type]
	if !ok {
		that.recordViolation(client, "server-only packet type: "+packet.Type)
		return fmt.Errorf("%s is not a client packet: %w", packet.Type, apperror.ErrOutOfState)
	}

	return handler(ctx, client, packet)
}

// ReportMalformed is called by the transport when a line failed to
// decode. recordViolation answers with the decline indication; repeated
// offenses drop the connection as a protocol violation.
func (that *Hub) ReportMalformed(client *Client) {
	that.recordViolation(client, "malformed packet")
}

// handleConnect runs the handshake: the username must be non-empty and
// unused, the reply carries the server's extension set, and a declined
// connection is closed after the reply.
func (that *Hub) handleConnect(_ context.Context, client *Client, packet *protocol.Packet) error {
	log := that.logger.With("method", "handleConnect")

	if client.player != nil {
		that.recordViolation(client, "repeated CONNECT")
		return fmt.Errorf("connect from %s: %w", client.player.Username, apperror.ErrAlreadyHandshaken)
	}

	username := packet.Fields[0]
	requested := packet.Fields[1:]

	if username == "" {
		that.sendDecline(client)
		_ = client.conn.Close()
		return fmt.Errorf("connect: %w", apperror.ErrUsernameEmpty)
	}

	that.mu.Lock()
	if _, taken := that.clients[username]; taken {
		that.mu.Unlock()
		that.sendDecline(client)
		_ = client.conn.Close()
		return fmt.Errorf("connect: %q: %w", username, apperror.ErrUsernameTaken)
	}

	client.player = entity.NewPlayer(username, intersect(requested, protocol.ServerExtensions))
	that.clients[username] = client
	that.mu.Unlock()

	reply := append([]string{protocol.Accept}, protocol.ServerExtensions...)
	that.send(client, protocol.TypeConnectReply, reply...)

	log.Info("player connected", "username", username, "extensions", client.player.Extensions)

	return nil
}

// Disconnect tears down everything tied to a dropped connection: its
// lobby seat, its session (aborted, no scores) and any challenge it was
// part of. Safe to call for connections that never finished handshaking.
func (that *Hub) Disconnect(client *Client) {
	log := that.logger.With("method", "Disconnect")

	if client.player == nil {
		return
	}

	username := client.player.Username

	that.mu.Lock()
	delete(that.clients, username)

	lobby := client.lobby
	sess := client.session
	client.lobby = nil

	var lobbyFollowUp func()
	if lobby != nil {
		lobbyFollowUp = that.leaveLobbyLocked(lobby, username)
	}

	challengeFollowUp := that.cancelChallengesLocked(username)
	that.mu.Unlock()

	if lobbyFollowUp != nil {
		lobbyFollowUp()
	}
	if challengeFollowUp != nil {
		challengeFollowUp()
	}

	if sess != nil {
		sess.abort(username)
	}

	log.Info("player disconnected", "username", username)
}

// send pushes one packet to a client, logging failures. A dead peer is
// cleaned up by its own read loop; nothing here should escalate.
func (that *Hub) send(client *Client, packetType string, fields ...string) {
	if client == nil {
		return
	}

	if err := client.conn.Send(packetType, fields...); err != nil {
		that.logger.Error("failed to send packet", "type", packetType, "username", client.Username(), "error", err)
	}
}

// sendDecline is the generic decline/error indication of the protocol:
// a CONNECT_REPLY carrying DECLINE. The vocabulary has no dedicated
// error packet, so this doubles as the rejection signal after the
// handshake as well.
func (that *Hub) sendDecline(client *Client) {
	that.send(client, protocol.TypeConnectReply, protocol.Decline)
}

// recordViolation counts an abuse-class offense. One occurrence is
// tolerated and answered with a decline indication; past the configured
// limit the connection is dropped.
func (that *Hub) recordViolation(client *Client, reason string) {
	that.sendDecline(client)

	client.violations++
	if client.violations >= that.conf.ViolationLimit {
		that.logger.Warn("dropping connection after repeated violations",
			"username", client.Username(), "reason", reason, "violations", client.violations)
		_ = client.conn.Close()
		return
	}

	that.logger.Info("protocol violation", "username", client.Username(), "reason", reason)
}

// lookupClient resolves a username to its live connection.
func (that *Hub) lookupClient(username string) *Client {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.clients[username]
}

func (that *Hub) nextLobbyID() string {
	that.lobbySeq++
	return strconv.Itoa(that.lobbySeq)
}

func (that *Hub) nextGameID() string {
	that.gameSeq++
	return strconv.Itoa(that.gameSeq)
}

// intersect keeps the requested tokens the server supports, preserving
// the order they were requested in.
func intersect(requested, supported []string) []string {
	var negotiated []string
	for _, token := range requested {
		for _, have := range supported {
			if token == have {
				negotiated = append(negotiated, token)
				break
			}
		}
	}
	return negotiated
}
