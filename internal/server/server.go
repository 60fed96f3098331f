package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arcanaland/corvid/internal/archive"
	"github.com/arcanaland/corvid/internal/spread"
	"github.com/arcanaland/corvid/internal/validator"
)

const (
	ServiceName = "Murder of Crows Tarot"
	Version     = "1.0.0"
)

// Endpoints is advertised by GET /
var Endpoints = []string{
	"/counting-crow",
	"/three-card",
	"/ai-interpret",
	"/translate",
	"/archive-session",
	"/history",
}

// Deck is the read-only card lookup table
type Deck interface {
	spread.Lookup
	Len() int
}

// Interpreter turns reading text into an interpretation
type Interpreter interface {
	Interpret(ctx context.Context, text string) (string, error)
}

// SessionStore persists and lists archived sessions
type SessionStore interface {
	Archive(entries []map[string]json.RawMessage) (archive.Receipt, error)
	List() (archive.Listing, error)
}

// Options configures the HTTP layer
type Options struct {
	AllowedOrigins []string
}

// Server exposes the readings API over gin
type Server struct {
	deck   Deck
	oracle Interpreter
	store  SessionStore
	log    *zap.Logger
	engine *gin.Engine
}

var (
	registerOnce sync.Once
	registerErr  error
)

// registerRules installs the request rules on gin's shared validator
func registerRules() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		registerErr = validator.Register(v)
	})
	return registerErr
}

// New wires the handlers, middleware and routes
func New(deck Deck, oracle Interpreter, store SessionStore, log *zap.Logger, opts Options) (*Server, error) {
	if err := registerRules(); err != nil {
		return nil, err
	}

	s := &Server{
		deck:   deck,
		oracle: oracle,
		store:  store,
		log:    log.Named("http"),
		engine: gin.New(),
	}

	s.engine.Use(requestID())
	s.engine.Use(accessLog(s.log))
	s.engine.Use(recovery(s.log))
	s.engine.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s.routes(s.engine)
	return s, nil
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.root)
	r.GET("/health", s.health)

	// Spreads
	r.POST("/counting-crow", s.countingCrow)
	r.POST("/three-card", s.threeCard)

	// Text
	r.POST("/ai-interpret", s.interpret)
	r.POST("/translate", s.translate)

	// Sessions
	r.POST("/archive-session", s.archiveSession)
	r.GET("/history", s.history)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
