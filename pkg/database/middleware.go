package database

import (
	"context"
	"errors"
	"net/http"

	"github.com/inventorycore/inventory-core/pkg/scope"
)

// errRequestFailed is a sentinel used only to signal the transaction
// should roll back because the handler wrote a 4xx/5xx status; it never
// escapes this file as a returned error.
var errRequestFailed = errors.New("request failed")

// statusRecorder mirrors httputil's response wrapper locally so this
// package doesn't need to import it just to read a status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// TransactionMiddleware opens one WithScope transaction per request, using
// the scope httputil.ScopeMiddleware already attached to the context, and
// commits or rolls back based on the response status the handler writes.
// Every primitive and workflow in this codebase (StockMutator.Adjust,
// FefoAllocator, ThreeBooksEnforcer, the five Workflows, ScanOrchestrator)
// assumes db.getTx(ctx) already points at an open transaction by the time
// it runs — this middleware is where that transaction actually opens for
// the HTTP path. Requests with no scope in context (health checks, or a
// request ScopeMiddleware already rejected) pass through untouched.
func (db *DB) TransactionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := scope.FromContext(r.Context())
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		txErr := db.WithScope(r.Context(), s.String(), func(ctx context.Context) error {
			next.ServeHTTP(rec, r.WithContext(ctx))
			if rec.statusCode >= 400 {
				return errRequestFailed
			}
			return nil
		})
		if txErr != nil && txErr != errRequestFailed {
			db.logger.Error().Err(txErr).Msg("failed to finalize request transaction")
		}
	})
}
