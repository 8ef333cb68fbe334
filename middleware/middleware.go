// Package middleware binds HTTP request bodies with nullbind schemas. The
// framework adapters under middleware/gin and middleware/echo build on it.
package middleware

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/nullbind"
)

// ctxKeyDecoded is a typed context key for storing Decoded[T].
// Using a generic struct type ensures uniqueness per T.
type ctxKeyDecoded[T any] struct{}

// ContextWithDecoded attaches a Decoded[T] to the context.
func ContextWithDecoded[T any](ctx context.Context, d nullbind.Decoded[T]) context.Context {
	return context.WithValue(ctx, ctxKeyDecoded[T]{}, d)
}

// DecodedFromContext retrieves a Decoded[T] from context.
func DecodedFromContext[T any](ctx context.Context) (nullbind.Decoded[T], bool) {
	v, ok := ctx.Value(ctxKeyDecoded[T]{}).(nullbind.Decoded[T])
	return v, ok
}

// MaxBodyBytes caps request bodies under DefaultParseOpt.
const MaxBodyBytes = 1 << 20

// DefaultParseOpt returns the recommended options for HTTP JSON boundaries:
// duplicate keys are errors, nesting is limited and bodies are capped at
// MaxBodyBytes.
func DefaultParseOpt() nullbind.ParseOpt {
	opt := nullbind.DefaultParseOpt
	opt.MaxBytes = MaxBodyBytes
	return opt
}

// OrDefault returns DefaultParseOpt when opt is the zero value.
func OrDefault(opt nullbind.ParseOpt) nullbind.ParseOpt {
	if opt.OnDuplicateKey == nullbind.Ignore && opt.MaxDepth == 0 && opt.MaxBytes == 0 && opt.IssueSink == nil {
		return DefaultParseOpt()
	}
	return opt
}

// BindRequest parses the request body as JSON and binds it against s. A
// missing or zero-length body binds as the empty object, so every property
// is absent.
func BindRequest[T any](r *http.Request, s *nullbind.Schema[T], opt nullbind.ParseOpt) (nullbind.Decoded[T], error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nullbind.BindDocumentWithMeta(nullbind.Object{}, s)
	}
	body := bufio.NewReader(r.Body)
	if _, err := body.Peek(1); errors.Is(err, io.EOF) {
		return nullbind.BindDocumentWithMeta(nullbind.Object{}, s)
	}
	doc, err := nullbind.ParseJSONReader(body, OrDefault(opt))
	if err != nil {
		return nullbind.Decoded[T]{}, err
	}
	return nullbind.BindDocumentWithMeta(doc, s)
}

// IssueView is the JSON shape of one issue in error responses.
type IssueView struct {
	Path     string `json:"path"`
	Property string `json:"property,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
}

// ErrorPayload shapes the issues behind err for JSON responses.
func ErrorPayload(err error) map[string]any {
	iss := nullbind.IssuesOf(err)
	views := make([]IssueView, len(iss))
	for i, is := range iss {
		views[i] = IssueView{Path: is.Path, Property: is.Property, Code: is.Code, Message: is.Message, Hint: is.Hint}
	}
	return map[string]any{"issues": views}
}

// Bind returns net/http middleware that binds the request body against s,
// stores the Decoded[T] in the request context and answers 400 with an
// issues payload when binding fails.
func Bind[T any](s *nullbind.Schema[T], opt nullbind.ParseOpt) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := BindRequest(r, s, opt)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = gojson.NewEncoder(w).Encode(ErrorPayload(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithDecoded(r.Context(), d)))
		})
	}
}
