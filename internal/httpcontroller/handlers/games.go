package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/tracker"
)

// CSRFContextKey is where the CSRF middleware stores the form token.
const CSRFContextKey = "wintracker-csrf"

// PageData is everything the index template renders.
type PageData struct {
	Title        string
	Report       tracker.Report
	Form         tracker.Submission
	Success      string
	Error        string
	EmptyMessage string
	CSRFToken    string
	Results      []datastore.Result
}

func (h *Handlers) pageData(c echo.Context, report tracker.Report) PageData {
	token, _ := c.Get(CSRFContextKey).(string)
	return PageData{
		Title:        h.Settings.Main.Name,
		Report:       report,
		Form:         h.blankForm(),
		EmptyMessage: tracker.EmptyMessage,
		CSRFToken:    token,
		Results:      []datastore.Result{datastore.ResultWin, datastore.ResultLoss},
	}
}

func (h *Handlers) blankForm() tracker.Submission {
	return tracker.Submission{
		Date:   h.now().Format(datastore.DateLayout),
		Result: string(datastore.ResultWin),
	}
}

// Index renders the entry form and the game history.
func (h *Handlers) Index(c echo.Context) error {
	report, err := h.Service.Report(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index", h.pageData(c, report))
}

// CreateGame handles the form submission and re-renders the page.
// A rejected submission keeps the entered values and responds 422.
func (h *Handlers) CreateGame(c echo.Context) error {
	ctx := c.Request().Context()

	sub := tracker.Submission{
		Date:     c.FormValue("date"),
		Opponent: c.FormValue("opponent"),
		Score:    c.FormValue("score"),
		Result:   c.FormValue("result"),
		Notes:    c.FormValue("notes"),
	}

	_, submitErr := h.Service.Submit(ctx, sub)
	if submitErr != nil && !errors.IsValidation(submitErr) {
		return submitErr
	}

	report, err := h.Service.Report(ctx)
	if err != nil {
		return err
	}

	data := h.pageData(c, report)
	if submitErr != nil {
		data.Form = sub
		data.Error = submitErr.Error()
		return c.Render(http.StatusUnprocessableEntity, "index", data)
	}

	data.Success = tracker.SuccessMessage
	return c.Render(http.StatusOK, "index", data)
}

// GamesResponse wraps the game list returned by the API.
type GamesResponse struct {
	Games []datastore.Game `json:"games"`
}

// ListGames returns every game, newest date first.
func (h *Handlers) ListGames(c echo.Context) error {
	report, err := h.Service.Report(c.Request().Context())
	if err != nil {
		return err
	}

	games := report.Games
	if games == nil {
		games = []datastore.Game{}
	}
	return c.JSON(http.StatusOK, GamesResponse{Games: games})
}

// CreateGameAPI stores a game posted as JSON.
func (h *Handlers) CreateGameAPI(c echo.Context) error {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Content-Type must be application/json")
	}

	var sub tracker.Submission
	if err := (&echo.DefaultBinder{}).BindBody(c, &sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body must be a JSON object")
	}

	game, err := h.Service.Submit(c.Request().Context(), sub)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, game)
}

// GetReport returns the aggregate figures.
func (h *Handlers) GetReport(c echo.Context) error {
	report, err := h.Service.Report(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// Health reports whether the database answers a ping.
func (h *Handlers) Health(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.DB.Ping(ctx); err != nil {
		h.log.WithContext(ctx).Warn("Health check failed", logger.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
