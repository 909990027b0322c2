package serve

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	domainerr "slipstream/internal/domain/errors"
	"slipstream/internal/publish"
)

const maxPayloadBytes = 10 << 20

// draftPayload is what Draft posts, JSON encoded in the "payload" form field.
type draftPayload struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Content     string          `json:"content"`
	ContentHTML string          `json:"content_html"`
	User        struct {
		ID    json.RawMessage `json:"id"`
		Email string          `json:"email"`
	} `json:"user"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// limitWebhook throttles webhook calls before the key is checked, so guessing
// keys costs the same as publishing.
func (s *Server) limitWebhook(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDraftWebhook(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "apiKey")
	if s.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	payload, err := readDraftPayload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger := log.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		RawJSON("document_id", rawOrNull(payload.ID)).
		Logger()

	s.self.begin()
	out, err := s.publisher.Publish(r.Context(), publish.Request{
		Title:   payload.Name,
		Author:  payload.User.Email,
		Content: payload.Content,
	})
	saved := ""
	if err == nil && out != nil {
		saved = out.Path
	}
	s.self.end(saved, time.Now())
	switch {
	case errors.Is(err, domainerr.ErrInvalid):
		logger.Info().Err(err).Msg("draft rejected")
		http.Error(w, strings.TrimSpace(err.Error()), http.StatusBadRequest)
		return
	case err != nil:
		logger.Error().Err(err).Msg("publish failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Str("slug", out.Slug).Msg("draft published")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// readDraftPayload accepts the form-encoded payload field Draft sends, or the
// same JSON as the raw request body.
func readDraftPayload(r *http.Request) (draftPayload, error) {
	var p draftPayload

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var raw []byte
	if ct == "application/json" {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return p, fmt.Errorf("read body: %w", err)
		}
		raw = b
	} else {
		if err := r.ParseForm(); err != nil {
			return p, fmt.Errorf("parse form: %w", err)
		}
		raw = []byte(r.PostFormValue("payload"))
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return p, errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid payload: %w", err)
	}
	return p, nil
}

func rawOrNull(b json.RawMessage) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
