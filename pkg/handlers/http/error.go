package http

import (
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type handlerError struct {
	err  error
	code int
}

func (e *handlerError) Error() string {
	return e.err.Error()
}

func (e *handlerError) Unwrap() error {
	return e.err
}

type errorHandlerFunc func(http.ResponseWriter, *http.Request) error

// ErrorHandler turns handler errors into plain text responses, 500 unless
// the error carries its own status code.
func ErrorHandler(handler errorHandlerFunc, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err != nil {
			log.Error("handler error", zap.Error(err))
			var herr *handlerError
			switch {
			case errors.As(err, &herr):
				http.Error(w, herr.Error(), herr.code)
				return
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
}

// Error attaches an HTTP status code to err.
func Error(err error, code int) error {
	return &handlerError{err: err, code: code}
}
