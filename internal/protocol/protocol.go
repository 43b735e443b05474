package protocol

// Delimiter separates the information blocks of a packet on the wire.
// A full packet is one UTF-8 text line: TYPE;field1;field2...
const Delimiter = ";"

// General acceptance and denial tokens, reused across packet types.
const (
	Accept  = "0"
	Decline = "1"
)

// Player types, used in GAME_REQUEST to pick the kind of opponent.
const (
	ComputerPlayer = "0"
	HumanPlayer    = "1"
)

// Move kinds, used in MOVE packets.
const (
	MoveStartingBase = "0"
	MoveBase         = "1"
	MoveRingSmallest = "2"
	MoveRingSmall    = "3"
	MoveRingMedium   = "4"
	MoveRingLarge    = "5"
)

// Colors of a player's pieces.
const (
	ColorPrimary   = "0"
	ColorSecondary = "1"
)

// Chat message scopes.
const (
	ScopeGlobal  = "0"
	ScopeLobby   = "1"
	ScopePrivate = "2"
)

// Modes of the LOGIN_REGISTER request.
const (
	ModeLogin    = "0"
	ModeRegister = "1"
)

// Extension tokens, negotiated during the handshake.
const (
	ExtensionChatting    = "chat"
	ExtensionChallenging = "chal"
	ExtensionLeaderboard = "lead"
	ExtensionSecurity    = "secu"
)

// Packet type codes. Two letters, case-sensitive.
const (
	TypeConnect             = "cn"
	TypeConnectReply        = "cr"
	TypeGameRequest         = "gr"
	TypeJoinedLobby         = "jl"
	TypeAllPlayersConnected = "ap"
	TypePlayerStatus        = "ps"
	TypeGameStarted         = "gs"
	TypeStartingPlayer      = "sp"
	TypeMakeMove            = "mm"
	TypeMove                = "mv"
	TypeGameEnded           = "ge"
	TypePlayerDisconnected  = "pc"
	TypeMessage             = "ms"
	TypePlayerList          = "pl"
	TypeChallenge           = "cl"
	TypeChallengeReply      = "ch"
	TypeLeaderboard         = "lb"
	TypeScoreLog            = "sl"
	TypeLoginRegister       = "lr"
)

// TypeChallengeRefused shares the wire code "cr" with TypeConnectReply.
// Both are only ever sent by the server, so the server never has to tell
// them apart on decode; a client disambiguates by its pending state
// (a connect reply can only arrive before the handshake completed).
const TypeChallengeRefused = TypeConnectReply

// ServerExtensions is the set of extensions this server supports.
var ServerExtensions = []string{
	ExtensionChatting,
	ExtensionChallenging,
	ExtensionLeaderboard,
	ExtensionSecurity,
}

// unbounded marks an arity with no upper limit on field count.
const unbounded = -1

type arity struct {
	min int
	max int
}

// arities maps every known packet type to the number of fields it may
// carry. Decode rejects anything outside these bounds.
var arities = map[string]arity{
	TypeConnect:             {1, unbounded}, // username, extension tokens...
	TypeConnectReply:        {1, unbounded}, // accept/decline + extensions, or refusing usernames
	TypeGameRequest:         {2, 2},         // player count, opponent type
	TypeJoinedLobby:         {0, 0},
	TypeAllPlayersConnected: {0, 0},
	TypePlayerStatus:        {1, 1}, // accept/decline
	TypeGameStarted:         {2, 4}, // usernames in seat order
	TypeStartingPlayer:      {1, 1}, // username
	TypeMakeMove:            {0, 0},
	TypeMove:                {2, 3},         // kind, field, [color]
	TypeGameEnded:           {2, unbounded}, // username, score pairs
	TypePlayerDisconnected:  {1, 1},         // username
	TypeMessage:             {2, 3},         // scope, [target], text
	TypePlayerList:          {0, unbounded}, // request empty, reply lists usernames
	TypeChallenge:           {1, unbounded}, // target or challenger usernames
	TypeChallengeReply:      {1, 1},         // accept/decline
	TypeLeaderboard:         {0, unbounded}, // request empty, reply ranked pairs
	TypeScoreLog:            {1, unbounded}, // username, then timestamped scores
	TypeLoginRegister:       {1, 3},         // mode+username+password, or accept/decline
}
