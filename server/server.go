package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/internal/config"
	"github.com/jrsteele09/go-hr-portal/internal/metrics"
	"github.com/jrsteele09/go-hr-portal/server/loginsession"
	"github.com/jrsteele09/go-hr-portal/token"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/rs/zerolog/log"
)

// StoreFactory opens the credential store client for one browser. key is the
// browser's session id and stays the same for as long as its cookie does.
type StoreFactory func(key string) credentials.Store

type Dependencies struct {
	Users    users.Repo
	NewStore StoreFactory

	// Sessions defaults to an in-memory repo
	Sessions loginsession.Repo
	NowTime  func() time.Time
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	users    users.Repo
	newStore StoreFactory
	sessions loginsession.Repo
	nowTime  func() time.Time

	cookieSigner token.Signer
	openMu       sync.Mutex
}

func New(config config.Config, deps Dependencies) (*Server, error) {
	if deps.Users == nil {
		return nil, errors.New("[Server New] a users repo is required")
	}
	if deps.NewStore == nil {
		return nil, errors.New("[Server New] a credential store factory is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		users:    deps.Users,
		newStore: deps.NewStore,
		sessions: deps.Sessions,
		nowTime:  deps.NowTime,
	}
	if s.sessions == nil {
		s.sessions = loginsession.NewInMemoryLoginSessionRepo()
	}
	if s.nowTime == nil {
		s.nowTime = time.Now
	}
	secret := config.GetCookieSecret()
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("[Server New] cookie secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		log.Warn().Msg("SESSION_COOKIE_SECRET not set, browser sessions will not survive a restart")
	}
	s.cookieSigner = token.NewHMACSigner(secret)
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// ExpireIdleSessions closes every browser session that has not been used for
// longer than the configured session age and returns how many it closed.
func (s *Server) ExpireIdleSessions() int {
	expired := s.sessions.ExpireIdle(s.nowTime().Add(-s.config.GetMaxSessionAge()))
	for _, session := range expired {
		session.Close()
	}
	metrics.ActiveBrowsers.Set(float64(s.sessions.Count()))
	if len(expired) > 0 {
		log.Debug().Int("expired", len(expired)).Msg("Closed idle browser sessions")
	}
	return len(expired)
}

// RunJanitor expires idle sessions every interval until ctx is done
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.ExpireIdleSessions()
		}
	}
}

// Close closes every open browser session
func (s *Server) Close() {
	// a cutoff in the future makes every session idle
	for _, session := range s.sessions.ExpireIdle(s.nowTime().AddDate(1, 0, 0)) {
		session.Close()
	}
	metrics.ActiveBrowsers.Set(0)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
