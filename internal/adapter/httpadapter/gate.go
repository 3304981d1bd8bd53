package httpadapter

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/session"
)

const subscriptionFailed = "Subscription failed"

type gatePage struct {
	Name   string
	Mail   string
	Notice string
	Errors []domain.FieldError
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if _, err := s.deps.Sessions.Resolve(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/map", http.StatusSeeOther)
			return
		}
	}
	s.render(w, http.StatusOK, "gate.html", gatePage{})
}

// handleSubscribe validates the form locally, makes exactly one call to the
// Subscription Service, and on success starts a session for the identity the
// service returned.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "gate.html", gatePage{Notice: "Invalid form submission"})
		return
	}

	form := domain.SubscriptionForm{
		Name: r.PostForm.Get("name"),
		Mail: r.PostForm.Get("mail"),
		IP:   s.originIP(r),
	}.Normalize()
	page := gatePage{Name: form.Name, Mail: form.Mail}

	if err := form.Validate(); err != nil {
		s.deps.Metrics.Subscriptions.WithLabelValues("invalid").Inc()
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			page.Errors = verr.Fields
		} else {
			page.Notice = subscriptionFailed
		}
		s.render(w, http.StatusUnprocessableEntity, "gate.html", page)
		return
	}

	identity, err := s.deps.Subscriber.Subscribe(r.Context(), form)
	if err != nil {
		s.deps.Metrics.Subscriptions.WithLabelValues("failed").Inc()
		s.logger.Warn("subscription failed",
			"kind", domain.FailureKind(err),
			"error", err,
		)
		page.Notice = subscriptionFailed
		s.render(w, http.StatusBadGateway, "gate.html", page)
		return
	}

	token, sess, err := s.deps.Sessions.Issue(r.Context(), identity)
	if err != nil {
		s.deps.Metrics.Subscriptions.WithLabelValues("failed").Inc()
		s.logger.Error("issue session failed", "error", err)
		page.Notice = subscriptionFailed
		s.render(w, http.StatusInternalServerError, "gate.html", page)
		return
	}

	s.deps.Metrics.Subscriptions.WithLabelValues("success").Inc()
	s.deps.Metrics.SessionsIssued.Inc()
	s.logger.Info("visitor subscribed", "mail", identity.Mail, "expires_at", sess.ExpiresAt)

	s.setCookie(w, token)
	http.Redirect(w, r, "/map", http.StatusSeeOther)
}

// handleLogout ends the session and tears down its console, cancelling any
// dispatch still in flight.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.deps.Sessions.Revoke(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("revoke session failed", "error", err)
		}
		s.deps.Consoles.Release(session.ID(cookie.Value))
	}
	s.clearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// originIP is the network-origin tag sent with a subscription: the configured
// override, else the first X-Forwarded-For hop, else the peer address.
func (s *Server) originIP(r *http.Request) string {
	if s.deps.OriginIP != "" {
		return s.deps.OriginIP
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
