package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
)

// GamePublisher sends every stored game to one topic.
type GamePublisher struct {
	client Client
	topic  string
	log    logger.Logger
	now    func() time.Time
}

// NewGamePublisher returns a publisher writing to topic through client.
func NewGamePublisher(client Client, topic string, log logger.Logger) *GamePublisher {
	if log == nil {
		log = logger.Global().Module("mqtt")
	}
	return &GamePublisher{client: client, topic: topic, log: log, now: time.Now}
}

// NotifyGame publishes game as JSON.
func (p *GamePublisher) NotifyGame(ctx context.Context, game datastore.Game) error {
	payload, err := json.Marshal(NewGameEventDTO(game, p.now()))
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("game_id", game.ID).
			Build()
	}

	if err := p.client.Publish(ctx, p.topic, payload); err != nil {
		return err
	}

	p.log.Debug("Game published",
		logger.String("topic", p.topic),
		logger.Uint64("id", uint64(game.ID)))
	return nil
}
