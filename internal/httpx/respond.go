// Package httpx holds the JSON response helpers, request binding and
// middleware shared by every HTTP handler in the service.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/logging"
)

const genericServerError = "Something went wrong on the server!"

var validate = validator.New()

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// ErrorBody is the JSON shape of every error response. Status is "fail" for
// client errors and "error" for server errors.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Fail writes msg with the given status code.
func Fail(w http.ResponseWriter, code int, msg string) {
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	JSON(w, code, ErrorBody{Status: status, Message: msg})
}

// Error writes err as an ErrorBody. Classified errors expose their message;
// anything else is logged and reported with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	msg, ok := apperr.Message(err)
	if !ok {
		logging.FromContext(r.Context(), logrus.StandardLogger()).
			WithError(err).
			WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).
			Error("request failed")
		msg = genericServerError
	}
	Fail(w, kind.HTTPStatus(), msg)
}

// Decode reads the JSON body into dst. An empty body leaves dst untouched.
// Malformed JSON is a Validation error.
func Decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	// Classified errors come from a field's own UnmarshalJSON.
	if _, ok := apperr.Message(err); ok {
		return err
	}
	return apperr.Wrap(apperr.KindValidation, "Invalid JSON body.", err)
}

// Bind decodes the JSON body into dst and validates its `validate` tags.
// Any validation failure is reported with msg.
func Bind(r *http.Request, dst any, msg string) error {
	if err := Decode(r, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, msg, err)
	}
	return nil
}

// PathID parses the positive integer route variable name. msg is the
// validation message used when it is missing or malformed.
func PathID(r *http.Request, name, msg string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(msg)
	}
	return id, nil
}
