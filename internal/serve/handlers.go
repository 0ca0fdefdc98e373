package serve

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/Dicklesworthstone/redactd/internal/engine"
	"github.com/Dicklesworthstone/redactd/internal/filter"
	"github.com/Dicklesworthstone/redactd/internal/token"
)

type ctxKey int

const requestIDKey ctxKey = 0

// requestID tags every request with a UUID, echoed in the X-Request-ID
// header and available to handlers for log correlation.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func reqID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// rateLimit rejects clients over the per-IP budget with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if !s.limiter.Allow(ip) {
			s.metrics.IncRateLimited()
			s.logger.Warn("rate limited", "ip", ip, "request_id", reqID(r))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

// redactRequest is the POST /api/redact payload. Threshold is optional and
// defaults to the standard cutoff; word lists extend any server-side lists.
type redactRequest struct {
	Text         string   `json:"text"`
	Threshold    *float64 `json:"threshold,omitempty"`
	AlwaysRedact []string `json:"always_redact,omitempty"`
	AlwaysIgnore []string `json:"always_ignore,omitempty"`
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.metrics.IncRequest("redact")

	var req redactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	threshold := filter.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	alwaysRedact, alwaysIgnore := req.AlwaysRedact, req.AlwaysIgnore
	if s.wordlists != nil {
		baseRedact, baseIgnore := s.wordlists.Lists()
		alwaysRedact = append(baseRedact, alwaysRedact...)
		alwaysIgnore = append(baseIgnore, alwaysIgnore...)
	}

	engReq := engine.Request{
		Text:         req.Text,
		Threshold:    threshold,
		AlwaysRedact: alwaysRedact,
		AlwaysIgnore: alwaysIgnore,
	}

	var key cacheKey
	if s.cache != nil {
		key = keyFor(engReq)
		if res, ok := s.cache.Get(key); ok {
			s.metrics.IncCacheHit()
			s.respondRedact(w, r, res, start)
			return
		}
		s.metrics.IncCacheMiss()
	}

	res, err := s.engine.Redact(r.Context(), engReq)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.logger.Error("redact failed", "request_id", reqID(r), "err", err)
		writeError(w, http.StatusInternalServerError, "redaction failed")
		return
	}

	if s.cache != nil {
		s.cache.Put(key, res)
	}
	s.respondRedact(w, r, res, start)
}

func (s *Server) respondRedact(w http.ResponseWriter, r *http.Request, res engine.Result, start time.Time) {
	s.metrics.ObserveLatency("redact", time.Since(start))
	s.logger.Info("redacted",
		"request_id", reqID(r), "entities", res.EntityCount, "dur", time.Since(start))

	tokens := res.Tokens
	if tokens == nil {
		tokens = []token.Token{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"request_id":    reqID(r),
		"redacted_text": res.RedactedText,
		"tokens":        tokens,
		"entity_count":  res.EntityCount,
	})
}

// restoreRequest is the POST /api/restore payload.
type restoreRequest struct {
	Text   string        `json:"text"`
	Tokens []token.Token `json:"tokens"`
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.metrics.IncRequest("restore")

	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	restored := s.engine.Restore(req.Text, req.Tokens)
	s.metrics.ObserveLatency("restore", time.Since(start))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"request_id":    reqID(r),
		"restored_text": restored,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := s.modelLoaded != nil && s.modelLoaded()
	msg := "all detectors available"
	if s.modelLoaded == nil {
		msg = "pattern detection only; no models configured"
	} else if !loaded {
		msg = "models not loaded yet; pattern detection available"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": loaded,
		"message":      msg,
	})
}

func (s *Server) handleHealthDetail(w http.ResponseWriter, r *http.Request) {
	detectors := map[string]bool{}
	for _, name := range s.engine.Detectors() {
		available := true
		if name != "pattern" && s.modelLoaded != nil {
			available = s.modelLoaded()
		}
		detectors[name] = available
	}

	proc := map[string]any{
		"pid":        os.Getpid(),
		"goroutines": runtime.NumGoroutine(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			proc["rss_bytes"] = mem.RSS
		}
		if pct, err := p.CPUPercent(); err == nil {
			proc["cpu_percent"] = pct
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": time.Since(s.started).Seconds(),
		"detectors":      detectors,
		"process":        proc,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	rep := s.metrics.Snapshot()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(rep.ExportPrometheus()))
}
