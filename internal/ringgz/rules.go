// Package ringgz implements the board rules the session state machine
// consults as its move-legality oracle. The session never inspects the
// board itself; it only asks whether a move applies, whether seats can
// still move, and what the final scores are.
package ringgz

import (
	"errors"
	"fmt"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
)

const (
	BoardWidth = 5
	BoardSize  = BoardWidth * BoardWidth

	ringSizes     = 4
	basesPerColor = 3
	ringsPerSize  = 3

	noColor        = -1
	startingMarker = -2
)

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrBadField          = errors.New("field is outside the board")
	ErrBadMoveKind       = errors.New("unknown move kind")
	ErrBadColor          = errors.New("color does not belong to this seat")
	ErrWrongPhase        = errors.New("starting base placement is over")
	ErrFieldOccupied     = errors.New("field is occupied")
	ErrRingSlotTaken     = errors.New("ring slot is taken")
	ErrColorRepeated     = errors.New("field already holds a ring of this color")
	ErrNotAdjacent       = errors.New("field is not adjacent to an own piece")
	ErrBaseNextToBase    = errors.New("base may not touch a base of the same color")
	ErrOutOfPieces       = errors.New("no pieces of that kind left")
	ErrStartingOffCenter = errors.New("starting base must go on a center field")
)

// field is one board position: either a base (by color, or the neutral
// starting base) or up to one ring per size, each with a color.
type field struct {
	base  int
	rings [ringSizes]int
}

// Game tracks the full board state for one session. Seats own one color
// each; in a two-player game each seat additionally plays a secondary
// color, the way the physical game deals out the four sets.
type Game struct {
	players   int
	fields    [BoardSize]field
	bases     [2 * ringSizes]int // per color
	rings     [2 * ringSizes][ringSizes]int
	started   bool
	moveCount int
}

func NewGame(players int) *Game {
	game := &Game{players: players}

	for i := range game.fields {
		game.fields[i].base = noColor
		for s := range game.fields[i].rings {
			game.fields[i].rings[s] = noColor
		}
	}

	for color := range game.bases {
		game.bases[color] = basesPerColor
		for s := range game.rings[color] {
			game.rings[color][s] = ringsPerSize
		}
	}

	return game
}

// colors returns the colors a seat plays with.
func (that *Game) colors(seat int) []int {
	if that.players == 2 {
		return []int{seat, seat + 2}
	}
	return []int{seat}
}

// colorFor resolves the wire color token for a seat, or -1 when the
// token names a color the seat does not own.
func (that *Game) colorFor(seat int, token string) int {
	switch token {
	case protocol.ColorPrimary, "":
		return seat
	case protocol.ColorSecondary:
		if that.players == 2 {
			return seat + 2
		}
	}
	return noColor
}

// Apply validates and executes one move for a seat. A nil return means
// the move was placed and consumed a piece; any error wraps
// ErrIllegalMove so the session can distinguish a retry from a failure.
func (that *Game) Apply(seat int, move entity.Move) error {
	if err := that.check(seat, move); err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}

	target := &that.fields[move.Field]

	switch move.Kind {
	case protocol.MoveStartingBase:
		target.base = startingMarker
		that.started = true
	case protocol.MoveBase:
		color := that.colorFor(seat, move.Color)
		target.base = color
		that.bases[color]--
	default:
		color := that.colorFor(seat, move.Color)
		size := ringSize(move.Kind)
		target.rings[size] = color
		that.rings[color][size]--
	}

	that.moveCount++

	return nil
}

func (that *Game) check(seat int, move entity.Move) error {
	if move.Field < 0 || move.Field >= BoardSize {
		return fmt.Errorf("%w: %d", ErrBadField, move.Field)
	}

	if move.Kind == protocol.MoveStartingBase {
		if that.started {
			return ErrWrongPhase
		}
		if !isCenter(move.Field) {
			return ErrStartingOffCenter
		}
		if that.fields[move.Field].base != noColor {
			return ErrFieldOccupied
		}
		return nil
	}

	if !that.started {
		return ErrWrongPhase
	}

	color := that.colorFor(seat, move.Color)
	if color == noColor {
		return ErrBadColor
	}

	target := that.fields[move.Field]

	switch move.Kind {
	case protocol.MoveBase:
		if that.bases[color] == 0 {
			return ErrOutOfPieces
		}
		if target.base != noColor || target.occupied() {
			return ErrFieldOccupied
		}
		if that.touchesBase(move.Field, color) {
			return ErrBaseNextToBase
		}
	case protocol.MoveRingSmallest, protocol.MoveRingSmall, protocol.MoveRingMedium, protocol.MoveRingLarge:
		size := ringSize(move.Kind)
		if that.rings[color][size] == 0 {
			return ErrOutOfPieces
		}
		if target.base != noColor {
			return ErrFieldOccupied
		}
		if target.rings[size] != noColor {
			return ErrRingSlotTaken
		}
		if target.holdsColor(color) {
			return ErrColorRepeated
		}
	default:
		return fmt.Errorf("%w: %q", ErrBadMoveKind, move.Kind)
	}

	if !that.adjacentToColor(move.Field, color) {
		return ErrNotAdjacent
	}

	return nil
}

// HasLegalMove reports whether the seat can place any piece at all.
func (that *Game) HasLegalMove(seat int) bool {
	return len(that.LegalMoves(seat)) > 0
}

// LegalMoves enumerates every placement the seat could make right now.
// The bot plays from this list; the session uses it for elimination.
func (that *Game) LegalMoves(seat int) []entity.Move {
	var moves []entity.Move

	if !that.started {
		if seat != 0 {
			return nil
		}
		for f := 0; f < BoardSize; f++ {
			move := entity.Move{Kind: protocol.MoveStartingBase, Field: f}
			if that.check(seat, move) == nil {
				moves = append(moves, move)
			}
		}
		return moves
	}

	kinds := []string{
		protocol.MoveBase,
		protocol.MoveRingSmallest,
		protocol.MoveRingSmall,
		protocol.MoveRingMedium,
		protocol.MoveRingLarge,
	}

	tokens := []string{protocol.ColorPrimary}
	if that.players == 2 {
		tokens = append(tokens, protocol.ColorSecondary)
	}

	for f := 0; f < BoardSize; f++ {
		for _, kind := range kinds {
			for _, token := range tokens {
				move := entity.Move{Kind: kind, Field: f, Color: token}
				if that.check(seat, move) == nil {
					moves = append(moves, move)
				}
			}
		}
	}

	return moves
}

// IsOver reports whether no seat has a legal move left.
func (that *Game) IsOver() bool {
	for seat := 0; seat < that.players; seat++ {
		if that.HasLegalMove(seat) {
			return false
		}
	}
	return true
}

// Scores computes the territory count per seat: a field is won by the
// color holding the most rings on it, ties score for nobody.
func (that *Game) Scores() []int {
	scores := make([]int, that.players)

	for f := range that.fields {
		winner := that.fields[f].majority()
		if winner == noColor {
			continue
		}
		for seat := 0; seat < that.players; seat++ {
			for _, color := range that.colors(seat) {
				if color == winner {
					scores[seat]++
				}
			}
		}
	}

	return scores
}

func (that *field) occupied() bool {
	for _, color := range that.rings {
		if color != noColor {
			return true
		}
	}
	return false
}

func (that *field) holdsColor(color int) bool {
	for _, ringColor := range that.rings {
		if ringColor == color {
			return true
		}
	}
	return false
}

// majority returns the color with the most rings on the field, or
// noColor on an empty field or a tie.
func (that *field) majority() int {
	counts := make(map[int]int)
	for _, color := range that.rings {
		if color != noColor {
			counts[color]++
		}
	}

	winner, best, tied := noColor, 0, false
	for color, n := range counts {
		switch {
		case n > best:
			winner, best, tied = color, n, false
		case n == best:
			tied = true
		}
	}

	if tied {
		return noColor
	}
	return winner
}

func (that *Game) adjacentToColor(f, color int) bool {
	for _, n := range neighbors(f) {
		target := that.fields[n]
		if target.base == startingMarker || target.base == color || target.holdsColor(color) {
			return true
		}
	}
	return false
}

func (that *Game) touchesBase(f, color int) bool {
	for _, n := range neighbors(f) {
		if that.fields[n].base == color {
			return true
		}
	}
	return false
}

func neighbors(f int) []int {
	row, col := f/BoardWidth, f%BoardWidth
	var result []int
	if row > 0 {
		result = append(result, f-BoardWidth)
	}
	if row < BoardWidth-1 {
		result = append(result, f+BoardWidth)
	}
	if col > 0 {
		result = append(result, f-1)
	}
	if col < BoardWidth-1 {
		result = append(result, f+1)
	}
	return result
}

func isCenter(f int) bool {
	row, col := f/BoardWidth, f%BoardWidth
	return row >= 1 && row <= 3 && col >= 1 && col <= 3
}

func ringSize(kind string) int {
	switch kind {
	case protocol.MoveRingSmallest:
		return 0
	case protocol.MoveRingSmall:
		return 1
	case protocol.MoveRingMedium:
		return 2
	default:
		return 3
	}
}
