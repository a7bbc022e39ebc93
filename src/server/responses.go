package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"shopfront/src/models"
)

const maxBodyBytes = 1 << 20

// HTTPStatusError is an error that knows its response status and body.
type HTTPStatusError interface {
	error
	HTTPStatus() int
	ResponseBody() interface{}
}

type responseError struct {
	status int
	body   interface{}
}

func (e responseError) Error() string {
	return fmt.Sprintf("%d %s", e.status, http.StatusText(e.status))
}

func (e responseError) HTTPStatus() int {
	return e.status
}

func (e responseError) ResponseBody() interface{} {
	return e.body
}

func detailError(status int, detail string) responseError {
	return responseError{status: status, body: map[string]string{"detail": detail}}
}

var (
	errNotFound         = detailError(http.StatusNotFound, "Not Found")
	errMethodNotAllowed = detailError(http.StatusMethodNotAllowed, "Method Not Allowed")
	errNotAuthenticated = detailError(http.StatusUnauthorized, "Not authenticated")
	errInternal         = detailError(http.StatusInternalServerError, "Internal Server Error")
	errBodyTooLarge     = detailError(http.StatusRequestEntityTooLarge, "Request body too large")
)

// Legacy not-found bodies that existing clients match on.
var (
	errAccessoryNotFoundOnGet    = responseError{status: http.StatusNotFound, body: map[string]string{"Error": "Not Found!"}}
	errAccessoryNotFoundOnUpdate = responseError{status: http.StatusNotFound, body: map[string]string{"error": "not found!"}}
	errAccessoryNotFoundOnDelete = responseError{status: http.StatusNotFound, body: map[string]string{"result": "not found!"}}
)

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, rep interface{}) {
	data, err := json.Marshal(rep)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errInternal.body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, ve)
		return
	}

	var hse HTTPStatusError
	if errors.As(err, &hse) {
		writeJSON(w, hse.HTTPStatus(), hse.ResponseBody())
		return
	}

	requestLogger(r, s.logger).Errorw("Request failed", "error", err)
	writeJSON(w, errInternal.status, errInternal.body)
}
