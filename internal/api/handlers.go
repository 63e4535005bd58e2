package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pystudio/pystudio/pkg/engine"
	"github.com/pystudio/pystudio/pkg/errors"
	"github.com/pystudio/pystudio/pkg/runner"
	"github.com/pystudio/pystudio/pkg/syntax"
)

// decode reads a JSON request body.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return nil
}

// openProject resolves the project named in a request.
func (s *Server) openProject(root string) (*engine.Project, error) {
	if root == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "project is required")
	}
	return s.Engine.OpenProject(root)
}

// ----------------------------------------------------------------------------
// POST /audit
// ----------------------------------------------------------------------------

type auditRequest struct {
	Project string `json:"project"`
	Script  string `json:"script,omitempty"`
	Source  string `json:"source,omitempty"`
}

// handleAudit audits inline source, one script, or the whole project,
// depending on which request fields are set.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.openProject(req.Project)
	if err != nil {
		writeError(w, err)
		return
	}

	var report *engine.Report
	switch {
	case req.Source != "":
		report, err = s.Engine.AuditSource(r.Context(), p, req.Source)
	case req.Script != "":
		report, err = s.Engine.AuditFile(r.Context(), p, req.Script)
	default:
		report, err = s.Engine.AuditProject(r.Context(), p)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ----------------------------------------------------------------------------
// POST /check
// ----------------------------------------------------------------------------

type checkRequest struct {
	Project string `json:"project,omitempty"`
	Script  string `json:"script,omitempty"`
	Source  string `json:"source,omitempty"`
}

type checkResponse struct {
	Problems []syntax.Problem `json:"problems"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var problems []syntax.Problem
	if req.Source != "" {
		problems = s.Engine.Check(req.Source)
	} else {
		p, err := s.openProject(req.Project)
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Script == "" {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "script or source is required"))
			return
		}
		problems, err = s.Engine.CheckFile(p, req.Script)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if problems == nil {
		problems = []syntax.Problem{}
	}
	writeJSON(w, http.StatusOK, checkResponse{Problems: problems})
}

// ----------------------------------------------------------------------------
// POST /install
// ----------------------------------------------------------------------------

type installRequest struct {
	Project       string   `json:"project"`
	Distributions []string `json:"distributions"`
}

type installResponse struct {
	Installed []string `json:"installed"`
	Output    []string `json:"output"`
}

// handleInstall runs a blocking batched install and returns the captured
// package-manager output.
func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.openProject(req.Project)
	if err != nil {
		writeError(w, err)
		return
	}

	output := []string{}
	err = s.Engine.InstallMissing(r.Context(), p, req.Distributions, func(line string) {
		output = append(output, line)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, installResponse{
		Installed: req.Distributions,
		Output:    output,
	})
}

// ----------------------------------------------------------------------------
// /runs
// ----------------------------------------------------------------------------

type runRequest struct {
	Project string   `json:"project"`
	Script  string   `json:"script"`
	Args    []string `json:"args,omitempty"`
}

type runResponse struct {
	ID       string       `json:"id"`
	State    runner.State `json:"state"`
	ExitCode int          `json:"exit_code"`
}

func sessionResponse(sess *runner.Session) runResponse {
	return runResponse{
		ID:       sess.ID,
		State:    sess.State(),
		ExitCode: sess.ExitCode(),
	}
}

func (s *Server) handleRunStart(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.openProject(req.Project)
	if err != nil {
		writeError(w, err)
		return
	}

	// Detach from the request context: the session outlives this request.
	sess, err := s.Engine.Run(context.WithoutCancel(r.Context()), p, req.Script, req.Args...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(sess))
}

func (s *Server) handleRunGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

type eventsResponse struct {
	Events []runner.Event `json:"events"`
	State  runner.State   `json:"state"`
	// Next is the history offset to pass as `after` on the follow-up poll.
	Next int `json:"next"`
}

// handleRunEvents returns retained events after the `after` cursor. The
// cursor is an offset into the session's combined event history across all
// streams, not a per-stream sequence number; use the response's `next`
// value for the follow-up poll and each event's `seq` for gap detection
// within a stream.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	after := 0
	if v := r.URL.Query().Get("after"); v != "" {
		after, err = strconv.Atoi(v)
		if err != nil || after < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "after must be a non-negative integer"))
			return
		}
	}

	events, state := sess.EventsSince(after)
	if events == nil {
		events = []runner.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Events: events,
		State:  state,
		Next:   after + len(events),
	})
}

func (s *Server) handleRunCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Cancel(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "canceling"})
}
