package middleware

import (
	"net/http"

	"github.com/ethoslabs/ethos/internal/llm"
)

// LLMKeyHeader carries an optional caller-supplied model credential. When
// present, that key is billed for the request's model calls instead of the
// service key.
const LLMKeyHeader = "X-Anthropic-Key"

// CallerLLMKey moves the bring-your-own-key header onto the request
// context. The header value is never logged or stored; it lives only for
// the lifetime of this request.
func CallerLLMKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(LLMKeyHeader); key != "" {
			r = r.WithContext(llm.WithAPIKey(r.Context(), key))
		}
		next.ServeHTTP(w, r)
	})
}
