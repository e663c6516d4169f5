package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across packages. Store-level sentinels live in the
// store package; these cover the scoring pipeline itself.
var (
	// ErrStoreUnavailable reports that the persistence layer could not be
	// reached. History-dependent reads degrade to empty results on it.
	ErrStoreUnavailable = errors.New("evaluation store unavailable")

	// ErrDuplicateMessage reports that an identical message hash was already
	// scored for the agent.
	ErrDuplicateMessage = errors.New("duplicate message")

	// ErrLLMUnavailable reports that no LLM client is configured. Scoring
	// requests fail with it instead of panicking on a nil client.
	ErrLLMUnavailable = errors.New("llm client not configured")
)

// ConfigError is a startup misconfiguration. The process must refuse to
// serve on it.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// EvaluationError wraps a failure inside the deliberation loop. The message
// must never carry credentials; use Redact before embedding upstream text.
type EvaluationError struct {
	Stage string
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation %s: %v", e.Stage, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// ParseError reports structured LLM output that did not match the expected
// tool schema.
type ParseError struct {
	Tool string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Tool, e.Msg)
}

// Redact masks anything that looks like an API credential in s so upstream
// error text can be logged and returned safely.
func Redact(s string) string {
	for _, prefix := range []string{"sk-ant-", "sk-"} {
		for from := 0; ; {
			i := strings.Index(s[from:], prefix)
			if i < 0 {
				break
			}
			i += from
			j := i + len(prefix)
			for j < len(s) && isKeyChar(s[j]) {
				j++
			}
			if j == i+len(prefix) {
				// Bare prefix with no key material; keep scanning past it.
				from = j
				continue
			}
			s = s[:i] + "[redacted]" + s[j:]
			from = i + len("[redacted]")
		}
	}
	return s
}

func isKeyChar(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
