// Package restserver serves timeline reports over HTTP.
package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/shiftline/internal/ingest"
	"github.com/chrissnell/shiftline/internal/log"
	"github.com/chrissnell/shiftline/internal/timeline"
	"github.com/chrissnell/shiftline/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultListenAddr = "0.0.0.0"
	defaultPort       = 8080
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	serverConf config.ServerData
	Server     http.Server
	source     ingest.Source
	pipeline   *timeline.Pipeline
	logger     *zap.SugaredLogger
	metrics    *Metrics
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, source ingest.Source, pipeline *timeline.Pipeline, sd config.ServerData, logger *zap.SugaredLogger) (*Controller, error) {
	if source == nil {
		return nil, errors.New("REST server needs an activity source")
	}
	if pipeline == nil {
		return nil, errors.New("REST server needs a timeline pipeline")
	}
	if logger == nil {
		logger = log.GetSugaredLogger()
	}

	if sd.ListenAddr == "" {
		logger.Info("server.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		sd.ListenAddr = defaultListenAddr
	}
	if sd.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		sd.Port = defaultPort
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		serverConf: sd,
		source:     source,
		pipeline:   pipeline,
		logger:     logger,
		metrics:    NewMetrics(),
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sd.ListenAddr, sd.Port)
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infow("starting REST server", "addr", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.serverConf.Cert != "" && c.serverConf.Key != "" {
			err = c.Server.ListenAndServeTLS(c.serverConf.Cert, c.serverConf.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the router wrapped in the standard middleware chain.
func (c *Controller) Handler() http.Handler {
	var h http.Handler = c.setupRouter()
	h = handlers.CompressHandler(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log.GetZapLogger())),
	)(h)
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware, c.metrics.Middleware)

	router.HandleFunc("/subjects", c.handlers.GetSubjects).Methods(http.MethodGet)
	router.HandleFunc("/timeline", c.handlers.GetFleetTimeline).Methods(http.MethodGet)
	router.HandleFunc("/timeline/{subject}/dates", c.handlers.GetDates).Methods(http.MethodGet)
	router.HandleFunc("/timeline/{subject}", c.handlers.GetTimeline).Methods(http.MethodGet)
	router.Handle("/metrics", c.metrics.Handler()).Methods(http.MethodGet)

	return router
}
