package mqtt

import (
	"time"

	"github.com/courtside/wintracker/internal/datastore"
)

// GameEventDTO is the JSON payload published for each stored game.
// Field names are part of the topic's contract with subscribers.
type GameEventDTO struct {
	ID         uint      `json:"id"`
	Date       string    `json:"date"`
	Opponent   string    `json:"opponent"`
	Score      string    `json:"score"`
	Result     string    `json:"result"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// NewGameEventDTO converts a stored game into its published form.
func NewGameEventDTO(game datastore.Game, recordedAt time.Time) GameEventDTO {
	return GameEventDTO{
		ID:         game.ID,
		Date:       game.Date,
		Opponent:   game.Opponent,
		Score:      game.Score,
		Result:     string(game.Result),
		Notes:      game.Notes,
		RecordedAt: recordedAt.UTC(),
	}
}
