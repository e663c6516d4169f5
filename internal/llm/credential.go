package llm

import "context"

type apiKeyCtxKey struct{}

// WithAPIKey scopes a caller-supplied API credential to one request. The
// key never lands in a struct field or log; it rides the context and is
// read back only at the HTTP call site.
func WithAPIKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, apiKeyCtxKey{}, key)
}

// ResolveAPIKey prefers the request-scoped key and falls back to the
// configured service key.
func ResolveAPIKey(ctx context.Context, fallback string) string {
	if key, ok := ctx.Value(apiKeyCtxKey{}).(string); ok && key != "" {
		return key
	}
	return fallback
}
