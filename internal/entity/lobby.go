package entity

const (
	ReadyPending  = "pending"
	ReadyAccepted = "accepted"
	ReadyDeclined = "declined"
)

const (
	MinLobbySize = 2
	MaxLobbySize = 4
)

// Lobby groups connected players awaiting a game of a requested shape.
// A lobby is identified by its size and the opponent type of its open
// seats; matching is first-fit by creation order.
type Lobby struct {
	ID           string
	Size         int
	OpponentType string // protocol.ComputerPlayer or protocol.HumanPlayer
	Seats        []*Player
	Readiness    map[string]string // username -> pending/accepted/declined
	Polling      bool              // readiness collection in progress
	Generation   int               // bumped per poll so stale timers no-op
}

func NewLobby(id string, size int, opponentType string) *Lobby {
	return &Lobby{
		ID:           id,
		Size:         size,
		OpponentType: opponentType,
		Readiness:    make(map[string]string),
	}
}

func (that *Lobby) IsFull() bool {
	return len(that.Seats) == that.Size
}

func (that *Lobby) AddSeat(player *Player) {
	that.Seats = append(that.Seats, player)
}

// RemoveSeat evicts a player, preserving the order of the remaining
// seats. It reports whether the player held a seat at all.
func (that *Lobby) RemoveSeat(username string) bool {
	for i, player := range that.Seats {
		if player.Username == username {
			that.Seats = append(that.Seats[:i], that.Seats[i+1:]...)
			delete(that.Readiness, username)
			return true
		}
	}
	return false
}

// StartPoll resets the readiness map for a fresh collection round. Bots
// accept immediately; they are never polled.
func (that *Lobby) StartPoll() {
	that.Polling = true
	that.Generation++
	that.Readiness = make(map[string]string, len(that.Seats))
	for _, player := range that.Seats {
		if player.IsBot() {
			that.Readiness[player.Username] = ReadyAccepted
		} else {
			that.Readiness[player.Username] = ReadyPending
		}
	}
}

// AllResolved reports whether no seat is still pending.
func (that *Lobby) AllResolved() bool {
	for _, state := range that.Readiness {
		if state == ReadyPending {
			return false
		}
	}
	return true
}

// AllAccepted reports whether every seat accepted the readiness poll.
func (that *Lobby) AllAccepted() bool {
	for _, state := range that.Readiness {
		if state != ReadyAccepted {
			return false
		}
	}
	return true
}

// Unresolved returns the usernames that declined or never answered.
func (that *Lobby) Unresolved() []string {
	var evicted []string
	for _, player := range that.Seats {
		if that.Readiness[player.Username] != ReadyAccepted {
			evicted = append(evicted, player.Username)
		}
	}
	return evicted
}
