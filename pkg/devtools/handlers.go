package devtools

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/model"
)

// maxBodySize bounds request bodies for restores and action arguments.
const maxBodySize = 1 << 20

// ModelInfo describes a registered model.
type ModelInfo struct {
	Name    string          `json:"name"`
	Version uint64          `json:"version"`
	Actions []string        `json:"actions"`
	State   json.RawMessage `json:"state,omitempty"`
}

// ErrorBody is the JSON error response.
type ErrorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos := make([]ModelInfo, 0, s.registry.Len())
	for _, name := range s.registry.Names() {
		m, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, ModelInfo{
			Name:    m.Name(),
			Version: m.Version(),
			Actions: m.ActionNames(),
		})
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeInfo(w, m)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, vmerrors.New("M031").Wrap(err))
		return
	}
	if err := m.Restore(body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.logger.Info("state restored", "model", m.Name(), "version", m.Version())
	s.writeInfo(w, m)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	action := chi.URLParam(r, "action")

	var args []any
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err == nil && len(body) > 0 {
		err = sonic.Unmarshal(body, &args)
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest,
			vmerrors.New("M031").WithDetailf("action %q", action).Wrap(err))
		return
	}

	if err := m.Dispatch(r.Context(), action, args...); err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, model.ErrUnknownAction):
			status = http.StatusNotFound
		case errors.Is(err, model.ErrBadArgument):
			status = http.StatusBadRequest
		}
		s.logger.Warn("action failed", "model", m.Name(), "action", action, "error", err)
		s.writeError(w, status, err)
		return
	}

	s.writeInfo(w, m)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (model.Inspectable, bool) {
	name := chi.URLParam(r, "name")
	m, ok := s.registry.Get(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, vmerrors.New("M030").WithDetailf("model %q", name))
		return nil, false
	}
	return m, true
}

func (s *Server) writeInfo(w http.ResponseWriter, m model.Inspectable) {
	state, err := m.Snapshot()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ModelInfo{
		Name:    m.Name(),
		Version: m.Version(),
		Actions: m.ActionNames(),
		State:   state,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	body := ErrorBody{Message: err.Error()}

	var me *vmerrors.ModelError
	if errors.As(err, &me) {
		body.Code = me.Code
		body.Message = me.Message
		body.Detail = me.Detail
		if me.Wrapped != nil {
			body.Detail = joinDetail(body.Detail, me.Wrapped.Error())
		}
	}
	s.writeJSON(w, status, body)
}

func joinDetail(a, b string) string {
	if a == "" {
		return b
	}
	return a + ": " + b
}
