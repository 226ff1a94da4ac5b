package visualization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nvandessel/snowball/internal/discovery"
	"github.com/nvandessel/snowball/internal/progress"
	"github.com/nvandessel/snowball/internal/render"
	"github.com/nvandessel/snowball/internal/session"
)

type stateResponse struct {
	Session session.Snapshot  `json:"session"`
	Samples []progress.Sample `json:"samples"`
}

type seedRequest struct {
	Keyword string `json:"keyword"`
}

type seedResponse struct {
	Keyword string           `json:"keyword"`
	Added   bool             `json:"added"`
	Session session.Snapshot `json:"session"`
}

type roundResponse struct {
	Round      int              `json:"round"`
	Discovered []string         `json:"discovered"`
	Draws      []discovery.Draw `json:"draws"`
	Session    session.Snapshot `json:"session"`
}

type speedRequest struct {
	Seconds float64 `json:"seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps session errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoSeeds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrUnknownKeyword):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidSpeed):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSamplingStarted),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrSamplingComplete),
		errors.Is(err, session.ErrNotStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) state() stateResponse {
	return stateResponse{Session: s.session.Snapshot(), Samples: s.session.Samples()}
}

// handleIndex serves the demo page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html, err := RenderPage(s.session)
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

// handleAddSeed accepts {"keyword": "..."} or a "keyword" form value.
func (s *Server) handleAddSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	} else {
		req.Keyword = r.FormValue("keyword")
	}
	if strings.TrimSpace(req.Keyword) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("keyword is required"))
		return
	}

	id, added := s.session.AddSeed(req.Keyword)
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, seedResponse{Keyword: id, Added: added, Session: s.session.Snapshot()})
}

// keywordParam returns the decoded {keyword} path segment. chi leaves
// escaped slashes encoded in route params.
func keywordParam(r *http.Request) string {
	raw := chi.URLParam(r, "keyword")
	if k, err := url.PathUnescape(raw); err == nil {
		return k
	}
	return raw
}

func (s *Server) handleRemoveSeed(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RemoveSeed(keywordParam(r)); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Start()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeRound(w, res)
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.AdvanceRound()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeRound(w, res)
}

func (s *Server) writeRound(w http.ResponseWriter, res discovery.RoundResult) {
	discovered := res.Discovered
	if discovered == nil {
		discovered = []string{}
	}
	writeJSON(w, http.StatusOK, roundResponse{
		Round:      res.Round,
		Discovered: discovered,
		Draws:      res.Draws,
		Session:    s.session.Snapshot(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleToggleAutoplay(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.ToggleAutoplay(); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleAutoplaySpeed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := s.session.SetAutoplaySpeed(req.Seconds); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

// handleExportJSON buffers the export so a failure can still become a 500.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.session.ExportJSON(&buf); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("export json: %w", err))
		return
	}
	writeAttachment(w, "application/json", session.JSONFileName, buf.Bytes())
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.session.ExportCSV(&buf); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("export csv: %w", err))
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", session.CSVFileName, buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(body)
}

func writeSVG(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(doc))
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	writeSVG(w, s.session.GraphSVG())
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(render.DOT(s.session.Scene())))
}

func (s *Server) handleGraphJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.JSON(s.session.Scene()))
}

func (s *Server) handleTotalChart(w http.ResponseWriter, r *http.Request) {
	writeSVG(w, s.session.TotalChartSVG())
}

func (s *Server) handleNewChart(w http.ResponseWriter, r *http.Request) {
	writeSVG(w, s.session.NewChartSVG())
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.session.Detail(keywordParam(r))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCloseDetail(w http.ResponseWriter, r *http.Request) {
	s.session.CloseDetail()
	w.WriteHeader(http.StatusNoContent)
}
