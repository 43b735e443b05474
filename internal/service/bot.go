package service

import (
	"errors"
	"math/rand"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotService picks moves for the internal AI participants that fill
// computer seats. The session hands it the oracle's legal-move list, so
// the bot can never submit an illegal move.
type BotService interface {
	ChooseMove(moves []entity.Move) (entity.Move, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

func (that *botService) ChooseMove(moves []entity.Move) (entity.Move, error) {
	if len(moves) == 0 {
		return entity.Move{}, ErrNoAvailableMoves
	}

	return moves[rand.Intn(len(moves))], nil //nolint: gosec // it's ok
}
