package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	perrors "github.com/evsingleline/singleline/pkg/errors"
	surveyio "github.com/evsingleline/singleline/pkg/io"
	"github.com/evsingleline/singleline/pkg/profile"
	"github.com/evsingleline/singleline/pkg/store"
	"github.com/evsingleline/singleline/pkg/survey"
)

// maxBodyBytes bounds request bodies; snapshots are the largest payload.
const maxBodyBytes = 16 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string       `json:"error"`
	Code  perrors.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeError classifies err and writes it. Internal failures are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = classify(err)
	code := perrors.GetCode(err)
	status := statusFor(code)
	msg := perrors.UserMessage(err)
	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if code == perrors.ErrCodeInternal || code == "" {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// classify maps domain sentinels onto error codes. Errors that already carry
// a code pass through.
func classify(err error) error {
	var pe *perrors.Error
	if errors.As(err, &pe) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, survey.ErrPanelNotFound),
		errors.Is(err, survey.ErrBreakerNotFound),
		errors.Is(err, survey.ErrServiceNotFound),
		errors.Is(err, profile.ErrUnknownProfile):
		return perrors.Wrap(perrors.ErrCodeNotFound, err, "not found")
	case errors.Is(err, survey.ErrInvalidSnapshot):
		return perrors.Wrap(perrors.ErrCodeInvalidSnapshot, err, "invalid snapshot")
	case errors.Is(err, surveyio.ErrMalformed),
		errors.Is(err, survey.ErrFeederBreaker),
		errors.Is(err, survey.ErrInvalidTransformer),
		errors.Is(err, survey.ErrInvalidBreaker):
		return perrors.Wrap(perrors.ErrCodeInvalidInput, err, "invalid request")
	}
	return perrors.Wrap(perrors.ErrCodeInternal, err, "internal error")
}

func statusFor(code perrors.Code) int {
	switch code {
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidFormat, perrors.ErrCodeInvalidID:
		return http.StatusBadRequest
	case perrors.ErrCodeInvalidSnapshot:
		return http.StatusUnprocessableEntity
	case perrors.ErrCodeNotFound:
		return http.StatusNotFound
	case perrors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errEmptyBody = perrors.New(perrors.ErrCodeInvalidInput, "request body is empty")

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request")
	}
	if dec.More() {
		return perrors.New(perrors.ErrCodeInvalidInput, "request body has trailing data")
	}
	return nil
}

// decodeSurvey reads a snapshot body and validates it.
func decodeSurvey(w http.ResponseWriter, r *http.Request) (survey.Survey, error) {
	s, err := surveyio.ReadJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return survey.Survey{}, classify(err)
	}
	return s, nil
}
