package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeForMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "https://a.example/news-1", want: "https://a\\.example/news\\-1"},
		{in: "fetch: 502 (Bad Gateway)!", want: "fetch: 502 \\(Bad Gateway\\)\\!"},
		{in: `a\b`, want: `a\\b`},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeForMarkdown(tt.in), tt.in)
	}
}

func TestBoldAndCode(t *testing.T) {
	assert.Equal(t, "*tick failed\\!*", Bold("tick failed!"))
	assert.Equal(t, "`run-1.2`", Code("run-1.2"))
	assert.Equal(t, "`a\\`b`", Code("a`b"))
}
