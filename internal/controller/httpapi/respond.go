package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// envelope общий формат ответа
type envelope struct {
	Result  string            `json:"result"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Kind    apperr.Kind       `json:"kind,omitempty"`
	Field   string            `json:"field,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var errMalformedBody = apperr.Validation("body", "malformed JSON")

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Result: resultSuccess, Message: message, Data: data})
}

// statusOf HTTP-статус для категории ошибки
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindReference, apperr.KindInvalidKey:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError одна локализованная ошибка на запрос
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	lang := s.Translator.Lang(r.Header.Get("Accept-Language"))
	body := envelope{Result: resultError, Message: s.Translator.Message(lang, err)}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Kind = apperr.KindValidation
		body.Fields = s.Translator.Fields(lang, err)
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	body.Kind = apperr.KindOf(err)
	if e, ok := apperr.As(err); ok {
		body.Field = e.Field
	}

	status := statusOf(body.Kind)
	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}

	writeJSON(w, status, body)
}

// decode читает JSON-тело и проверяет его тегами validate
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errMalformedBody
	}
	return s.Translator.Struct(dst)
}

// queryInt необязательный целый параметр запроса
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Validation(name, raw)
	}
	return v, nil
}

// searchQuery разбирает offset, limit и value
func searchQuery(r *http.Request) (search.Query, error) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return search.Query{}, err
	}
	limit, err := queryInt(r, "limit", search.DefaultLimit)
	if err != nil {
		return search.Query{}, err
	}
	return search.Query{Offset: offset, Limit: limit, Text: r.URL.Query().Get("value")}, nil
}
