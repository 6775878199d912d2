// Package server exposes the image tools over HTTP for the browser front end.
//
// Routes:
//
//	GET    /healthz
//	GET    /api/tools
//	POST   /api/tools/:name
//	PUT    /api/credential
//	DELETE /api/credential
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/logging"
)

// DefaultAddr is the listen address used when Options.Addr is empty.
const DefaultAddr = "127.0.0.1:8787"

// RequestIDHeader carries the per-request id in responses.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds request bodies; images arrive base64 encoded.
const maxBodyBytes = 64 << 20

const shutdownTimeout = 10 * time.Second

// releaseMode sets gin's global mode once.
var releaseMode sync.Once

// KeyStore persists the user-supplied API key.
type KeyStore interface {
	Set(key, value string) error
	Unset(key string) error
}

// Options configures a Server.
type Options struct {
	Addr string
	// AllowedOrigins for CORS. Empty means loopback origins only; "*" allows
	// any origin and disables the credential routes.
	AllowedOrigins []string
	Generator      imagegen.Generator
	// Keys and StoreKey back the credential routes. Nil Keys disables them.
	Keys     KeyStore
	StoreKey string
	Logger   logging.Logger
	// Debug enables gin debug mode.
	Debug bool
}

// Server is the HTTP front for the tool catalog.
type Server struct {
	engine  *gin.Engine
	handler http.Handler
	gen     imagegen.Generator
	keys    KeyStore
	key     string
	addr    string
	logger  logging.Logger
	// anyOrigin is set when AllowedOrigins contains "*".
	anyOrigin bool
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	if !opts.Debug {
		releaseMode.Do(func() { gin.SetMode(gin.ReleaseMode) })
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	addr := opts.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID(logger))

	allow, anyOrigin := originPolicy(opts.AllowedOrigins)
	engine.Use(originGuard(allow))

	s := &Server{
		engine:    engine,
		gen:       opts.Generator,
		keys:      opts.Keys,
		key:       opts.StoreKey,
		addr:      addr,
		logger:    logger,
		anyOrigin: anyOrigin,
	}
	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowOriginFunc: allow,
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:  []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:  []string{RequestIDHeader, "Content-Type"},
	})
	s.handler = c.Handler(engine)
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/tools", s.handleListTools)
	api.POST("/tools/:name", s.handleRunTool)
	switch {
	case s.keys == nil:
	case s.anyOrigin:
		s.logger.Warnf("credential routes disabled: any origin is allowed")
	default:
		api.PUT("/credential", s.handleSetCredential)
		api.DELETE("/credential", s.handleDeleteCredential)
	}
}

// Handler returns the http.Handler including CORS.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on http://%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Infof("server stopped")
	return nil
}

// requestID tags each request with a uuid and logs its outcome.
func requestID(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()
		logger.Debugf("%s %s %d %s request_id=%s", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), id)
	}
}

// originPolicy returns the CORS origin check for the configured origins and
// whether any origin is allowed. No origins means loopback pages only.
func originPolicy(origins []string) (allow func(string) bool, anyOrigin bool) {
	if len(origins) == 0 {
		return isLoopbackOrigin, false
	}
	set := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(string) bool { return true }, true
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(origin string) bool { return set[strings.ToLower(origin)] }, false
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// originGuard rejects browser requests from origins outside the policy.
// Simple requests skip the CORS preflight, so the check happens here too.
// Requests without an Origin header (curl, scripts) pass.
func originGuard(allow func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && !allow(origin) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error:     "Origin not allowed. Start the server with --origin " + origin + " to permit it.",
				RequestID: c.GetString("requestID"),
			})
			return
		}
		c.Next()
	}
}
