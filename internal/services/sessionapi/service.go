package sessionapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/asad/localsession/internal/core"
	"github.com/asad/localsession/internal/logging"
	"github.com/asad/localsession/internal/session"
)

// maxBodyBytes caps PUT bodies.
const maxBodyBytes = 64 << 10

// Service serves the session values of one LocalSession over HTTP.
type Service struct {
	session *session.LocalSession
	logger  logging.Logger
}

// NewService creates a session API service.
func NewService(s *session.LocalSession, logger logging.Logger) *Service {
	return &Service{
		session: s,
		logger:  logger,
	}
}

// Name returns the service prefix.
func (s *Service) Name() string {
	return "session"
}

// RegisterRoutes sets up:
//   - GET    /                 - List both entries
//   - GET    /{entry}          - Read one entry
//   - PUT    /{entry}          - Store a value ({"value": ...})
//   - DELETE /{entry}          - Clear an entry
//   - POST   /session-id/new   - Generate and store a session identifier
func (s *Service) RegisterRoutes(router chi.Router) {
	router.Get("/", s.handleList)
	router.Post("/"+session.EntrySessionID+"/new", s.handleNewSessionID)
	router.Get("/{entry}", s.handleGet)
	router.Put("/{entry}", s.handleSet)
	router.Delete("/{entry}", s.handleClear)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	result := ListResponse{Entries: make([]EntryResponse, 0, len(session.Entries))}
	for _, name := range session.Entries {
		entry, err := s.session.Lookup(name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
			return
		}
		result.Entries = append(result.Entries, toResponse(entry))
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(entry))
}

func (s *Service) handleSet(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req SetRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge", "Body exceeds 64 KiB")
		} else {
			s.writeError(w, http.StatusBadRequest, "InvalidRequest", "Failed to read request body")
		}
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "Body must be JSON of the form {\"value\": string|null}")
		return
	}

	if err := entry.Set(req.Value); err != nil {
		s.logger.Error("failed to set session entry",
			logging.String("entry", entry.Name),
			logging.ErrorField(err),
		)
		s.writeError(w, http.StatusInternalServerError, "StorageError", "Failed to store value")
		return
	}

	s.logger.Info("session entry updated",
		logging.String("entry", entry.Name),
		logging.Bool("null", req.Value == nil),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleClear(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if err := entry.Clear(); err != nil {
		s.logger.Error("failed to clear session entry",
			logging.String("entry", entry.Name),
			logging.ErrorField(err),
		)
		s.writeError(w, http.StatusInternalServerError, "StorageError", "Failed to clear value")
		return
	}

	s.logger.Info("session entry cleared", logging.String("entry", entry.Name))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleNewSessionID(w http.ResponseWriter, r *http.Request) {
	id := session.NewSessionID()
	if err := s.session.SetSessionID(&id); err != nil {
		s.logger.Error("failed to store new session id", logging.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "StorageError", "Failed to store session id")
		return
	}

	s.logger.Info("session id generated")
	s.writeJSON(w, http.StatusCreated, EntryResponse{
		Entry: session.EntrySessionID,
		Key:   session.SessionIDKey,
		Value: &id,
	})
}

// lookup resolves the {entry} URL parameter, writing a 404 if it is unknown.
func (s *Service) lookup(w http.ResponseWriter, r *http.Request) (session.Entry, bool) {
	entry, err := s.session.Lookup(chi.URLParam(r, "entry"))
	if err != nil {
		if errors.Is(err, session.ErrUnknownEntry) {
			s.writeError(w, http.StatusNotFound, "EntryNotFound", err.Error())
		} else {
			s.writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
		}
		return session.Entry{}, false
	}
	return entry, true
}

func toResponse(entry session.Entry) EntryResponse {
	return EntryResponse{Entry: entry.Name, Key: entry.Key, Value: entry.Get()}
}

func (s *Service) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", logging.ErrorField(err))
	}
}

// writeError writes {"error":{"code":..,"message":..}}.
func (s *Service) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	s.writeJSON(w, statusCode, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

var _ core.Service = (*Service)(nil)
