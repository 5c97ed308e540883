package datastore

// Result is the outcome of a single game.
type Result string

const (
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
)

// Valid reports whether r is one of the two recognised outcomes.
func (r Result) Valid() bool {
	return r == ResultWin || r == ResultLoss
}

// DateLayout is the layout used for the stored game date.
const DateLayout = "2006-01-02"

// Game is one played game as stored in the games table.
type Game struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Date     string `gorm:"type:varchar(10);not null;index:idx_games_date" json:"date"` // YYYY-MM-DD
	Opponent string `gorm:"type:varchar(255);not null" json:"opponent"`
	Score    string `gorm:"type:varchar(50);not null" json:"score"`
	Result   Result `gorm:"type:varchar(4);not null" json:"result"`
	Notes    string `gorm:"type:text" json:"notes"`
}

// TableName pins the table name regardless of naming strategy.
func (Game) TableName() string {
	return "games"
}
