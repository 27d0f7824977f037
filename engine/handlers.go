package engine

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contest-gateway/engine/application"
	"contest-gateway/engine/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

const serviceName = "contest-gateway"

// maxUserIDLen acompanha a coluna user_id de win_records.
const maxUserIDLen = 255

// HTTPHandler liga as rotas públicas ao gate, ao coordinator e aos relatórios.
type HTTPHandler struct {
	gate    application.Gate
	coord   application.Coordinator
	stats   application.Stats
	catalog domain.Catalog
	config  domain.ConfigSource
	clock   domain.Clock

	Version string
	// Health é chamado pelo /healthz (ex.: ping no banco ou no Redis).
	Health func(ctx context.Context) error
	// RetryAfter vai no header das respostas 503.
	RetryAfter time.Duration
}

func NewHTTPHandler(
	catalog domain.Catalog, coord application.Coordinator, wins domain.WinReader, requests domain.OutcomeReader,
) *HTTPHandler {
	return &HTTPHandler{
		gate:       application.Gate{Catalog: catalog, Config: coord.Config},
		coord:      coord,
		stats:      application.Stats{Wins: wins, Requests: requests, Config: coord.Config, Clock: coord.Clock},
		catalog:    catalog,
		config:     coord.Config,
		clock:      coord.Clock,
		Version:    "dev",
		RetryAfter: time.Second,
	}
}

// RegisterRoutes registra as rotas. playMiddleware roda só antes do /play
// (limite de taxa e de concorrência).
func (h *HTTPHandler) RegisterRoutes(router gin.IRouter, playMiddleware ...gin.HandlerFunc) {
	router.GET("/", h.Index)
	router.GET("/healthz", h.Healthz)
	router.GET("/stats", h.Stats)
	router.GET("/play", append(playMiddleware, h.Play)...)
}

type playResponse struct {
	Win       bool              `json:"win"`
	Prize     *domain.PrizeInfo `json:"prize"`
	Contest   string            `json:"contest"`
	Timestamp string            `json:"timestamp"`
	Debug     *debugInfo        `json:"debug_info,omitempty"`
}

type debugInfo struct {
	DailyLimit  int     `json:"daily_limit"`
	WinsToday   int     `json:"wins_today"`
	UserWins    int     `json:"user_wins"`
	UserCapped  bool    `json:"user_capped"`
	Probability float64 `json:"probability"`
	Base        float64 `json:"base"`
	Factor      float64 `json:"factor"`
	Deficit     float64 `json:"deficit"`
	Fraction    float64 `json:"day_fraction"`
}

// Play avalia uma jogada: GET /play?contest=CODE[&user=ID][&debug=true].
func (h *HTTPHandler) Play(c *gin.Context) {
	code := strings.TrimSpace(c.Query("contest"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing contest parameter"})
		return
	}
	userID := strings.TrimSpace(c.Query("user"))
	if len(userID) > maxUserIDLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user parameter longer than " + strconv.Itoa(maxUserIDLen) + " bytes"})
		return
	}
	debug, _ := strconv.ParseBool(c.Query("debug"))

	ctx := c.Request.Context()
	now := h.now()

	adm, err := h.gate.Admit(ctx, code, now)
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.coord.Evaluate(ctx, application.EvaluateRequest{
		Prize:  adm.Prize,
		UserID: userID,
		Now:    now,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	out := playResponse{
		Win:       res.Win,
		Contest:   adm.Contest.Code,
		Timestamp: now.In(h.location()).Format(time.RFC3339),
	}
	if res.Win {
		out.Prize = res.Prize
	}
	if debug {
		d := res.Decision
		wins := d.WinsSoFar
		if res.Win {
			wins++
		}
		out.Debug = &debugInfo{
			DailyLimit:  adm.Prize.PerDay,
			WinsToday:   wins,
			UserWins:    d.UserWins,
			UserCapped:  d.UserCapped,
			Probability: d.Probability,
			Base:        d.Base,
			Factor:      d.Factor,
			Deficit:     d.Deficit,
			Fraction:    d.Fraction,
		}
	}
	c.JSON(http.StatusOK, out)
}

type statsResponse struct {
	Contest string                    `json:"contest"`
	State   domain.ContestState       `json:"state"`
	Day     domain.Day                `json:"day"`
	Prizes  []application.DailyReport `json:"prizes"`
}

// Stats devolve o relatório diário: GET /stats?contest=CODE[&day=2006-01-02].
func (h *HTTPHandler) Stats(c *gin.Context) {
	code := strings.TrimSpace(c.Query("contest"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing contest parameter"})
		return
	}

	ctx := c.Request.Context()
	now := h.now()
	day := domain.DayOf(now, h.location())
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		d, err := domain.ParseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		day = d
	}

	reports, state, err := ContestReport(ctx, h.catalog, h.stats, code, day)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{Contest: code, State: state, Day: day, Prizes: reports})
}

// Index descreve o serviço.
func (h *HTTPHandler) Index(c *gin.Context) {
	day := domain.DayOf(h.now(), h.location())
	active, err := h.catalog.CountActive(c.Request.Context(), day)
	if err != nil {
		logger.Errorf("count active contests: %v", err)
		active = -1
	}
	c.JSON(http.StatusOK, gin.H{
		"name":            serviceName,
		"version":         h.Version,
		"day":             day,
		"active_contests": active,
		"endpoints": []string{
			"GET /play?contest=CODE&user=ID&debug=true",
			"GET /stats?contest=CODE&day=YYYY-MM-DD",
			"GET /healthz",
		},
	})
}

func (h *HTTPHandler) Healthz(c *gin.Context) {
	if h.Health != nil {
		if err := h.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ContestReport monta o relatório diário de todos os prêmios do concurso.
func ContestReport(
	ctx context.Context, catalog domain.Catalog, stats application.Stats, code string, day domain.Day,
) ([]application.DailyReport, domain.ContestState, error) {
	contest, err := catalog.GetContest(ctx, code)
	if err != nil {
		return nil, "", err
	}
	prizes, err := catalog.PrizesOf(ctx, contest.Code)
	if err != nil {
		return nil, "", err
	}

	reports := make([]application.DailyReport, 0, len(prizes))
	for _, p := range prizes {
		r, err := stats.Daily(ctx, p, day)
		if err != nil {
			return nil, "", err
		}
		reports = append(reports, r)
	}
	return reports, contest.StateOn(day), nil
}

// fail traduz erros do domínio para status HTTP.
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	switch {
	case status == http.StatusServiceUnavailable:
		secs := max(1, int(h.RetryAfter/time.Second))
		c.Header("Retry-After", strconv.Itoa(secs))
		logger.Warningf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	case status >= http.StatusInternalServerError:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrContestNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrContestInactive):
		return http.StatusUnprocessableEntity
	case domain.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) now() time.Time {
	if h.clock == nil {
		return time.Now()
	}
	return h.clock.Now()
}

func (h *HTTPHandler) location() *time.Location {
	if h.config == nil {
		return time.UTC
	}
	if loc := h.config.Load().Location; loc != nil {
		return loc
	}
	return time.UTC
}
