// Package server provides the HTTP server and routing.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xxxbrian/ruleset-converter/internal/cache"
	"github.com/xxxbrian/ruleset-converter/internal/converter"
	"github.com/xxxbrian/ruleset-converter/internal/output"
)

// Fetcher supplies source text and the validator of its last fetch.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (string, error)
	ETag(source string) string
}

// Server represents the HTTP server
type Server struct {
	fetcher     Fetcher
	resultCache *cache.ResultCache
	opts        converter.Options
	sources     map[string]string // rule-set name -> source
}

// NewServer creates a new Server that converts the given manifest sources on
// request. Sources sharing a name are served from the first one listed.
func NewServer(f Fetcher, rc *cache.ResultCache, opts converter.Options, sources []string) *Server {
	for name, group := range output.Collisions(sources) {
		slog.Warn("ruleset name shared by several sources", "name", name, "serving", group[0], "ignored", group[1:])
	}
	byName := make(map[string]string, len(sources))
	for _, source := range sources {
		if _, ok := byName[RulesetName(source)]; !ok {
			byName[RulesetName(source)] = source
		}
	}
	return &Server{
		fetcher:     f,
		resultCache: rc,
		opts:        opts,
		sources:     byName,
	}
}

// RulesetName is the name a source is served under.
func RulesetName(source string) string {
	return strings.TrimSuffix(output.FileName(source), ".json")
}

// SetupRoutes configures the HTTP routes
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/sources", s.handleSources)
	mux.HandleFunc("/ruleset/", s.handleRuleset)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ruleset-converter: %d sources, see /sources\n", len(s.sources))
}

// handleSources returns the JSON index of available rule sets
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	body, err := s.buildIndex(buildBaseURL(r))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate index: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=1800")
	_, _ = w.Write(body)
}

// handleRuleset handles /ruleset/:name requests
func (s *Server) handleRuleset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/ruleset/")
	name = strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if name == "" {
		http.Error(w, "Invalid name parameter", http.StatusBadRequest)
		return
	}

	source, ok := s.sources[name]
	if !ok {
		http.Error(w, "Unknown ruleset: "+name, http.StatusNotFound)
		return
	}

	raw, err := s.fetcher.Fetch(r.Context(), source)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch upstream: %v", err), http.StatusBadGateway)
		return
	}

	etag := s.fetcher.ETag(source)
	if result, ok := s.resultCache.Get(name, etag); ok {
		slog.Debug("cache hit", "ruleset", name, "etag", truncateETag(etag))
		writeJSON(w, result)
		return
	}

	opts := s.opts
	if opts.Warn == nil {
		opts.Warn = func(err error) { slog.Warn("recovered conversion problem", "source", source, "err", err) }
	}
	result, err := converter.NewConverter(opts).Convert(source, raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to convert: %v", err), http.StatusInternalServerError)
		return
	}

	s.resultCache.Set(name, result, etag)
	slog.Info("generated and cached result", "ruleset", name, "etag", truncateETag(etag))

	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=1800")
	_, _ = w.Write(body)
}

// LoggingMiddleware logs all HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// truncateETag truncates ETag for logging
func truncateETag(etag string) string {
	if len(etag) > 8 {
		return etag[:8]
	}
	return etag
}

func buildBaseURL(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		if r.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	return proto + "://" + host + "/ruleset"
}

func (s *Server) buildIndex(rulesetBaseURL string) ([]byte, error) {
	// encoding/json emits map keys in sorted order
	index := make(map[string]string, len(s.sources))
	for name := range s.sources {
		index[name] = strings.TrimRight(rulesetBaseURL, "/") + "/" + name + ".json"
	}
	return json.MarshalIndent(index, "", "  ")
}
