package domain

import (
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "anthropic key",
			in:   "invalid x-api-key sk-ant-api03-abc123",
			want: "invalid x-api-key [redacted]",
		},
		{
			name: "generic key",
			in:   "key sk-abc123 rejected",
			want: "key [redacted] rejected",
		},
		{
			name: "no key material",
			in:   "upstream returned 529 overloaded",
			want: "upstream returned 529 overloaded",
		},
		{
			name: "multiple keys",
			in:   "tried sk-ant-one_1 then sk-ant-two_2",
			want: "tried [redacted] then [redacted]",
		},
		{
			name: "bare prefix before a real key",
			in:   "prefix sk- alone, then sk-ant-real_key-99 follows",
			want: "prefix sk- alone, then [redacted] follows",
		},
		{
			name: "bare prefix only",
			in:   "the sk- prefix with nothing after",
			want: "the sk- prefix with nothing after",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Redact(tc.in)
			if got != tc.want {
				t.Errorf("Redact(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if tc.want != tc.in && strings.Contains(got, "sk-ant-") {
				t.Errorf("credential survived redaction: %q", got)
			}
		})
	}
}
