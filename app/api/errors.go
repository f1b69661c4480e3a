package api

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"
	log "github.com/go-pkgz/lgr"
)

// ErrCode is a machine-readable error kind returned with every error response
type ErrCode string

// enum of error codes
const (
	ErrCodeMissingInput   ErrCode = "missing_input"
	ErrCodeInvalidInput   ErrCode = "invalid_input"
	ErrCodeExtractFailed  ErrCode = "extract_failed"
	ErrCodeDeliveryFailed ErrCode = "delivery_failed"
	ErrCodeInternal       ErrCode = "internal"
)

// ErrorResponse is the body of all non-2xx responses
type ErrorResponse struct {
	Error string  `json:"error"`
	Code  ErrCode `json:"code"`
}

// sendError logs the underlying error and responds with the public message
func sendError(w http.ResponseWriter, r *http.Request, status int, code ErrCode, err error, msg string) {
	log.Printf("[WARN] %s %s, %s (%s): %v", r.Method, r.URL.Path, msg, code, err)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg, Code: code})
}

// recoverer turns a panic in handler into 500 with internal error code
func recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel is compared as is by net/http
				panic(rvr)
			}
			log.Printf("[ERROR] request panic for %s, %v\n%s", r.URL.String(), rvr, string(debug.Stack()))
			sendError(w, r, http.StatusInternalServerError, ErrCodeInternal, fmt.Errorf("panic: %v", rvr), "internal error")
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
