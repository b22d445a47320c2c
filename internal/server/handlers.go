package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/indexer"
	"github.com/hyperjump/kazoeru/internal/models"
	"go.uber.org/zap"
)

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	var query models.FrequencyQuery
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		query.Term = r.URL.Query().Get("term")
		query.Granularity = models.Granularity(r.URL.Query().Get("granularity"))
	}
	if query.Granularity == "" {
		query.Granularity = models.Granularity(s.config.Query.DefaultGranularity)
	}
	s.logger.Debug("frequency request", zap.String("term", query.Term), zap.String("granularity", string(query.Granularity)))
	response, err := s.engine.Query(r.Context(), &query)
	if err != nil {
		s.respondQueryError(w, "frequency query failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleVerses(w http.ResponseWriter, r *http.Request) {
	if s.concordance == nil {
		s.respondError(w, http.StatusNotImplemented, "concordance not enabled")
		return
	}
	params := r.URL.Query()
	query := models.VerseQuery{
		Term: params.Get("q"),
		Work: params.Get("work"),
		Book: params.Get("book"),
	}
	var err error
	if query.Limit, err = intParam(params.Get("limit")); err != nil {
		s.respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if query.Offset, err = intParam(params.Get("offset")); err != nil {
		s.respondError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}
	s.logger.Debug("verses request", zap.String("term", query.Term), zap.String("work", query.Work), zap.String("book", query.Book))
	response, err := s.concordance.Find(r.Context(), &query)
	if err != nil {
		s.respondQueryError(w, "verse lookup failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := indexer.Status(r.Context(), s.config, s.store, s.storage)
	if err != nil {
		s.respondQueryError(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Get(); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondQueryError maps typed errors to status codes: caller mistakes are
// 400, a missing or broken index is 503.
func (s *Server) respondQueryError(w http.ResponseWriter, msg string, err error) {
	var invalid *models.InvalidQueryError
	var loadErr *index.IndexLoadError
	switch {
	case errors.As(err, &invalid):
		s.respondError(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &loadErr):
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, loadErr.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
