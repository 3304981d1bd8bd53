package httpadapter

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/flood-alert-dashboard/internal/console"
	"github.com/couchcryptid/flood-alert-dashboard/internal/session"
)

const sessionCookie = "flood_session"

type consoleHandler func(w http.ResponseWriter, r *http.Request, c *console.Console)

// page gates an HTML route: visitors without a live session are sent back to
// the gate with a 303, before any console is looked up.
func (s *Server) page(next consoleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.consoleFor(w, r)
		if !ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r, c)
	}
}

// api gates a JSON route: visitors without a live session get a 401.
func (s *Server) api(next consoleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.consoleFor(w, r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "subscription required"})
			return
		}
		next(w, r, c)
	}
}

// consoleFor resolves the session cookie to the visitor's console. Stale or
// malformed cookies are cleared.
func (s *Server) consoleFor(w http.ResponseWriter, r *http.Request) (*console.Console, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}

	sess, err := s.deps.Sessions.Resolve(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.deps.Consoles.Release(session.ID(cookie.Value))
		} else if !errors.Is(err, session.ErrBadToken) {
			s.logger.Error("resolve session failed", "error", err)
		}
		s.clearCookie(w)
		return nil, false
	}

	c, err := s.deps.Consoles.Acquire(sess.ID, sess.Identity)
	if err != nil {
		// The stored identity is unusable; end the session.
		s.logger.Error("open console failed", "error", err)
		if err := s.deps.Sessions.Revoke(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("revoke session failed", "error", err)
		}
		s.clearCookie(w)
		return nil, false
	}
	return c, true
}

func (s *Server) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.deps.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
