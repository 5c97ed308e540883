// Package tracker implements the two user actions of the wins tracker:
// recording a game and producing the win/loss report.
package tracker

import (
	"context"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/observability/metrics"
)

const (
	// MissingFieldsMessage is shown when opponent or score is left empty.
	MissingFieldsMessage = "Please fill in all required fields."
	// SuccessMessage confirms a stored game.
	SuccessMessage = "Game added successfully!"
	// EmptyMessage replaces the history table when no games exist.
	EmptyMessage = "No games recorded yet. Add your first game using the sidebar!"
)

var (
	// ErrMissingFields is wrapped by the validation error Submit returns
	// when opponent or score is empty.
	ErrMissingFields = errors.NewStd(MissingFieldsMessage)
	// ErrInvalidDate is wrapped when the date is not YYYY-MM-DD.
	ErrInvalidDate = errors.NewStd("Please enter the date as YYYY-MM-DD.")
	// ErrInvalidResult is wrapped when the result is neither Win nor Loss.
	ErrInvalidResult = errors.NewStd("Result must be Win or Loss.")
)

// Store is the part of the datastore the tracker needs.
type Store interface {
	SaveGame(ctx context.Context, game *datastore.Game) error
	GetAllGames(ctx context.Context) ([]datastore.Game, error)
}

// Notifier is told about every stored game.
type Notifier interface {
	NotifyGame(ctx context.Context, game datastore.Game) error
}

// Submission holds the raw values of the input form.
type Submission struct {
	Date     string `json:"date" form:"date"`
	Opponent string `json:"opponent" form:"opponent"`
	Score    string `json:"score" form:"score"`
	Result   string `json:"result" form:"result"`
	Notes    string `json:"notes" form:"notes"`
}

// Service records games and builds reports over an explicitly passed store.
type Service struct {
	store    Store
	log      logger.Logger
	metrics  *metrics.TrackerMetrics
	notifier Notifier
	cache    *gocache.Cache
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records submissions and report figures.
func WithMetrics(m *metrics.TrackerMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNotifier publishes every stored game.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the clock used for an empty date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReportCache serves Report from memory for up to ttl.
// Submit clears the cached report; writes from other processes show up once it expires.
func WithReportCache(ttl time.Duration) Option {
	return func(s *Service) {
		// no janitor goroutine; the single entry expires on read
		s.cache = gocache.New(ttl, 0)
	}
}

// NewService returns a Service backed by store.
func NewService(store Store, log logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Global().Module("tracker")
	}
	s := &Service{
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub and stores it as a new game.
// Opponent and score must be non-empty; every value is stored as entered.
func (s *Service) Submit(ctx context.Context, sub Submission) (datastore.Game, error) {
	if sub.Opponent == "" || sub.Score == "" {
		s.reject("missing_fields")
		return datastore.Game{}, s.validation(ErrMissingFields, "opponent,score")
	}

	date := sub.Date
	if date == "" {
		date = s.now().Format(datastore.DateLayout)
	} else if _, err := time.Parse(datastore.DateLayout, date); err != nil {
		s.reject("invalid_date")
		return datastore.Game{}, s.validation(ErrInvalidDate, "date")
	}

	result, err := ParseResult(sub.Result)
	if err != nil {
		s.reject("invalid_result")
		return datastore.Game{}, s.validation(err, "result")
	}

	game := datastore.Game{
		Date:     date,
		Opponent: sub.Opponent,
		Score:    sub.Score,
		Result:   result,
		Notes:    sub.Notes,
	}
	if err := s.store.SaveGame(ctx, &game); err != nil {
		return datastore.Game{}, err
	}
	if s.cache != nil {
		s.cache.Delete(reportCacheKey)
	}

	if s.metrics != nil {
		s.metrics.RecordGame(string(game.Result))
	}
	s.log.Info("Game recorded",
		logger.Uint64("id", uint64(game.ID)),
		logger.String("date", game.Date),
		logger.String("opponent", game.Opponent),
		logger.String("result", string(game.Result)))

	if s.notifier != nil {
		if err := s.notifier.NotifyGame(ctx, game); err != nil {
			s.log.Warn("Failed to publish game", logger.Uint64("id", uint64(game.ID)), logger.Error(err))
		}
	}

	return game, nil
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RecordRejected(reason)
	}
	s.log.Debug("Submission rejected", logger.String("reason", reason))
}

func (s *Service) validation(err error, field string) error {
	return errors.New(err).
		Component("tracker").
		Category(errors.CategoryValidation).
		Context("field", field).
		Build()
}

// ParseResult maps user input such as "win" or " LOSS " to a Result.
func ParseResult(value string) (datastore.Result, error) {
	// A Caser is stateful, so one is made per call.
	normalized := cases.Title(language.English).String(strings.TrimSpace(value))
	result := datastore.Result(normalized)
	if !result.Valid() {
		return "", ErrInvalidResult
	}
	return result, nil
}

// Report is the aggregated game history.
type Report struct {
	Games         []datastore.Game `json:"-"`
	Total         int              `json:"total_games"`
	Wins          int              `json:"wins"`
	Losses        int              `json:"losses"`
	WinPercentage float64          `json:"win_percentage"`
}

// Empty reports whether no games have been recorded.
func (r Report) Empty() bool {
	return r.Total == 0
}

const reportCacheKey = "report"

// Report reads every game and computes the totals.
func (s *Service) Report(ctx context.Context) (Report, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(reportCacheKey); ok {
			return cached.(Report), nil
		}
	}

	games, err := s.store.GetAllGames(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Summarize(games)
	if s.metrics != nil {
		s.metrics.UpdateReport(report.Total, report.WinPercentage)
	}
	if s.cache != nil {
		s.cache.SetDefault(reportCacheKey, report)
	}
	return report, nil
}

// Summarize computes the report figures for games, keeping their order.
func Summarize(games []datastore.Game) Report {
	report := Report{Games: games, Total: len(games)}
	for i := range games {
		switch games[i].Result {
		case datastore.ResultWin:
			report.Wins++
		case datastore.ResultLoss:
			report.Losses++
		}
	}
	report.WinPercentage = WinPercentage(report.Wins, report.Total)
	return report
}

// WinPercentage returns wins/total*100 rounded to one decimal, 0 when total is 0.
func WinPercentage(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(wins) / float64(total) * 100
	// Round through the decimal text so the figure matches what "%.1f" prints.
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 1, 64), 64)
	return rounded
}

// FormatPercentage renders a win percentage as shown to users, e.g. "50.0%".
func FormatPercentage(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}
