package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-portal/auth"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/internal/metrics"
	"github.com/jrsteele09/go-hr-portal/server/loginsession"
	"github.com/jrsteele09/go-hr-portal/token"
	"github.com/rs/zerolog/log"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	value, err := token.SignBrowserID(s.cookieSigner, sessionID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign session cookie")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetCookieName(),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetCookieSecure() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// browser returns the login session for the request's cookie, opening one
// when the cookie is missing or its session has been closed. Only ids this
// server signed are honoured. A signed id whose session was closed is reopened
// under the same key so a persisted credential session can be picked up again.
func (s *Server) browser(w http.ResponseWriter, r *http.Request) *loginsession.Session {
	if cookie, err := r.Cookie(s.config.GetCookieName()); err == nil && cookie.Value != "" {
		id, err := token.ParseBrowserID(s.cookieSigner, cookie.Value)
		if err == nil {
			if session, err := s.sessions.Get(id); err == nil {
				_ = s.sessions.Touch(id, s.nowTime())
				return session
			}
			return s.openBrowser(w, r, id)
		}
		log.Debug().Err(err).Msg("Ignoring session cookie the server did not issue")
	}
	return s.openBrowser(w, r, uuid.NewString())
}

func (s *Server) openBrowser(w http.ResponseWriter, r *http.Request, sessionID string) *loginsession.Session {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	// a concurrent request may have opened it already
	if session, err := s.sessions.Get(sessionID); err == nil {
		return session
	}

	nav := &loginsession.Navigation{}
	store := s.newStore(sessionID)
	session := &loginsession.Session{
		ID:         sessionID,
		Store:      store,
		Controller: auth.NewController(store, s.users, auth.WithNavigator(nav)),
		Navigation: nav,
		CreatedAt:  s.nowTime(),
	}
	if err := s.sessions.Upsert(session); err != nil {
		log.Error().Err(err).Msg("Failed to store browser session")
	}
	metrics.ActiveBrowsers.Set(float64(s.sessions.Count()))
	s.setSessionCookie(w, r, sessionID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.GetCredentialsTimeout())
		defer cancel()
		session.Controller.Start(ctx)
	}()
	return session
}

// rotateBrowser moves session to a fresh id once someone has signed in on it,
// so an id handed out before authentication no longer reaches the account.
// The old id is dropped and the persisted credential session follows the new one.
func (s *Server) rotateBrowser(w http.ResponseWriter, r *http.Request, session *loginsession.Session) {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	newID := uuid.NewString()
	if rekeyer, ok := session.Store.(credentials.Rekeyer); ok {
		if err := rekeyer.Rekey(r.Context(), newID); err != nil {
			log.Warn().Err(err).Msg("Failed to move persisted session to the new browser id")
		}
	}

	rotated := *session
	rotated.ID = newID
	rotated.CreatedAt = s.nowTime()
	if err := s.sessions.Upsert(&rotated); err != nil {
		log.Error().Err(err).Msg("Failed to store rotated browser session")
		return
	}
	if err := s.sessions.Delete(session.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to drop the previous browser session id")
	}
	s.setSessionCookie(w, r, newID)
}

// navigation returns where the last operation asked the browser to go, or fallback
func navigation(session *loginsession.Session, fallback string) string {
	if path, ok := session.Navigation.Take(); ok {
		return path
	}
	return fallback
}
