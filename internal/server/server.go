package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/forPelevin/vidsub/internal/config"
	"github.com/forPelevin/vidsub/internal/pipeline"
	"github.com/forPelevin/vidsub/internal/ports"
	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/usecase"
)

// DepsFunc builds the external adapters a request needs, using the
// credentials that apply to the session.
type DepsFunc func(keys pipeline.Keys, need pipeline.Need) (usecase.Deps, error)

type Options struct {
	Settings *config.Config
	Store    session.Store
	// Keys are the process-wide credentials from the environment. A key set on
	// a session takes precedence over Keys.OpenAI.
	Keys      pipeline.Keys
	Extractor ports.AudioExtractor
	Deps      DepsFunc
	Logger    hclog.Logger
}

type Server struct {
	settings  *config.Config
	store     session.Store
	keyring   *session.Keyring
	guard     *session.Guard
	events    *Hub
	keys      pipeline.Keys
	extractor ports.AudioExtractor
	deps      DepsFunc
	log       hclog.Logger
	engine    *gin.Engine
}

func New(o Options) *Server {
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	if o.Store == nil {
		o.Store = session.NewMemoryStore()
	}
	if o.Deps == nil {
		settings := o.Settings
		o.Deps = func(keys pipeline.Keys, need pipeline.Need) (usecase.Deps, error) {
			return pipeline.BuildDepsFor(settings, keys, need)
		}
	}
	if o.Extractor == nil {
		o.Extractor = pipeline.NewExtractor(o.Settings)
	}

	s := &Server{
		settings:  o.Settings,
		store:     o.Store,
		keyring:   session.NewKeyring(),
		guard:     session.NewGuard(),
		events:    NewHub(),
		keys:      o.Keys,
		extractor: o.Extractor,
		deps:      o.Deps,
		log:       o.Logger,
	}

	e := gin.New()
	e.Use(gin.Recovery(), RequestLogger(o.Logger))
	s.routes(e)
	s.engine = e
	return s
}

func (s *Server) routes(e *gin.Engine) {
	api := e.Group("/api")
	api.GET("/health", s.health)

	sessions := api.Group("/sessions")
	{
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.PUT("/:id/credential", s.setCredential)

		sessions.POST("/:id/video", s.uploadVideo)
		sessions.POST("/:id/audio", s.extractAudio)
		sessions.POST("/:id/transcription", s.transcribe)
		sessions.POST("/:id/summary", s.summarize)
		sessions.PUT("/:id/transcript", s.editTranscript)
		sessions.POST("/:id/subtitles", s.generateSubtitles)
		sessions.POST("/:id/translation", s.translate)
		sessions.PUT("/:id/view", s.selectView)

		sessions.GET("/:id/files/:kind", s.download)
		sessions.GET("/:id/events", s.streamEvents)
	}
}

func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.events.Close()
		return srv.Shutdown(shutdownCtx)
	}
}
