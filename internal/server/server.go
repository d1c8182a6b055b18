package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wiki-race/internal/config"
	"wiki-race/internal/game"
	"wiki-race/internal/wiki"

	"github.com/gin-gonic/gin"
)

// PageSource renders articles for the in-game browser.
type PageSource interface {
	Parse(ctx context.Context, title string) (wiki.Page, error)
}

type Server struct {
	engine   *game.Engine
	pages    PageSource
	ws       *wsHub
	cfg      config.Config
	identity *identity
	timersMu sync.Mutex
	timers   map[string]roundTimer
}

func New(engine *game.Engine, pages PageSource, cfg config.Config) *Server {
	registerValidators()
	return &Server{
		engine:   engine,
		pages:    pages,
		ws:       newWSHub(),
		cfg:      cfg,
		identity: newIdentity(cfg.CookieSecret),
		timers:   make(map[string]roundTimer),
	}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleHome)
	router.GET("/new", s.handleNewPartyView)
	router.GET("/join/:id", s.handleJoinView)
	router.GET("/game/:id", s.handleGameView)
	router.GET("/wiki/:article", s.handleWikiPage)
	router.GET("/api/create", s.handleCreateParty)
	router.GET("/api/enter", s.handleEnterParty)
	router.GET("/api/parties/:id/leaderboard", s.handleLeaderboard)
	router.GET("/ws/games/:id", s.handleWebsocket)
	router.GET("/health", s.handleHealth)
	return router
}

func (s *Server) roundDeadline(party game.Party, round game.Round) time.Time {
	return round.StartTime.Add(time.Duration(party.TimeLimit) * time.Second)
}
