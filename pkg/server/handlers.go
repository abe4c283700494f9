package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/abyan-ai/askme/pkg/chat"
	"github.com/abyan-ai/askme/pkg/models"
	"github.com/abyan-ai/askme/pkg/scraper"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) keyFunc(r *http.Request) chat.KeyFunc {
	return func() (string, error) {
		return clientKey(r, s.cfg.RateLimit.KeyHeaders)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Chat.MaxBodyBytes)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res := s.chat.Dispatch(r.Context(), req, s.keyFunc(r))
	if res.Code == models.CodeRateLimited {
		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
	}
	writeJSON(w, statusFor(res.Code), res)
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.chat.RemainingQuota(r.Context(), s.keyFunc(r)))
}

// statusFor maps a dispatcher outcome to its HTTP status.
func statusFor(code models.ErrorCode) int {
	switch code {
	case "":
		return http.StatusOK
	case models.CodeInvalidRequest:
		return http.StatusBadRequest
	case models.CodeRateLimited:
		return http.StatusTooManyRequests
	case models.CodeNotConfigured, models.CodeLimiterUnavailable:
		return http.StatusServiceUnavailable
	case models.CodeBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var sourceNames = map[string]string{
	scraper.SourceWikipedia:  "Wikipedia",
	scraper.SourceGitHub:     "GitHub",
	scraper.SourceReddit:     "Reddit",
	scraper.SourceHackerNews: "Hacker News",
}

// limitParam parses ?limit=; absent means zero, which the scraper replaces
// with its per-source default.
func limitParam(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// writeScrape reports a scrape outcome in the UI's {success, data, error} shape.
func (s *Server) writeScrape(w http.ResponseWriter, r *http.Request, source, subject string, data any, err error) {
	outcome := "ok"
	defer func() {
		if s.metrics != nil {
			s.metrics.ScrapeResult(source, outcome)
		}
	}()

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.ScrapeResult{Success: true, Data: data})
	case errors.Is(err, scraper.ErrNotFound):
		outcome = "not_found"
		writeJSON(w, http.StatusNotFound, models.ScrapeResult{Error: s.catalog.NotFound(subject)})
	default:
		outcome = "error"
		log.WithError(err).WithFields(log.Fields{
			"request_id": RequestIDFrom(r.Context()),
			"source":     source,
		}).Warn("scrape failed")
		writeJSON(w, http.StatusBadGateway, models.ScrapeResult{Error: s.catalog.FetchFailed(sourceNames[source])})
	}
}

func (s *Server) handleWikipedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSONError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	data, err := s.scraper.Wikipedia(r.Context(), q)
	s.writeScrape(w, r, scraper.SourceWikipedia, q, data, err)
}

func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	user := chi.URLParam(r, "user")
	data, err := s.scraper.GitHub(r.Context(), user, limit)
	s.writeScrape(w, r, scraper.SourceGitHub, user, data, err)
}

func (s *Server) handleReddit(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	sub := chi.URLParam(r, "subreddit")
	data, err := s.scraper.Reddit(r.Context(), sub, limit)
	s.writeScrape(w, r, scraper.SourceReddit, "r/"+sub, data, err)
}

func (s *Server) handleHackerNews(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	data, err := s.scraper.HackerNews(r.Context(), limit)
	s.writeScrape(w, r, scraper.SourceHackerNews, "Hacker News", data, err)
}
