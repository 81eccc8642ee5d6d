// Package handler exposes the user lookup over HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/naka-gawa/github-trophy/internal/domain"
	"github.com/naka-gawa/github-trophy/internal/errorpage"
	"github.com/sirupsen/logrus"
)

// UserInfoRequester fetches the aggregated data of a user.
type UserInfoRequester interface {
	RequestUserInfo(ctx context.Context, username string) (*domain.UserInfo, error)
}

// Response is the body returned for a successful lookup.
type Response struct {
	Username string           `json:"username"`
	Summary  *domain.Summary  `json:"summary"`
	Info     *domain.UserInfo `json:"info"`
}

// Handler serves GET /?username=NAME.
type Handler struct {
	requester UserInfoRequester
	logger    logrus.FieldLogger
	now       func() time.Time
}

// New creates a Handler.
func New(requester UserInfoRequester, logger logrus.FieldLogger) *Handler {
	return &Handler{
		requester: requester,
		logger:    logger.WithField("component", "handler"),
		now:       time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		h.writePage(w, r, errorpage.Classify(nil))
		return
	}

	info, err := h.requester.RequestUserInfo(r.Context(), username)
	if err != nil {
		svcErr, ok := domain.AsServiceError(err)
		if !ok {
			svcErr = domain.NewServiceError(err.Error(), domain.KindNotFound)
		}
		h.writePage(w, r, errorpage.Classify(svcErr))
		return
	}

	body, err := json.Marshal(Response{
		Username: username,
		Summary:  domain.Summarize(info, h.now()),
		Info:     info,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, page errorpage.Page) {
	var buf bytes.Buffer
	if err := errorpage.Render(&buf, page, origin(r)); err != nil {
		h.logger.WithError(err).Error("Failed to render error page")
		http.Error(w, page.Message, page.Status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(page.Status)
	_, _ = w.Write(buf.Bytes())
}

func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
