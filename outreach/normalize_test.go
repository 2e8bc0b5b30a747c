package outreach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare domain", "foo.com", "https://foo.com"},
		{"upper case scheme and host", " HTTP://Foo.com ", "http://foo.com"},
		{"https kept", "https://foo.com", "https://foo.com"},
		{"surrounding whitespace", "  acme.io\t", "https://acme.io"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	inputs := []string{"foo.com", " HTTP://Foo.com ", "https://Bar.example.com/path"}
	for _, in := range inputs {
		once := NormalizeURL(in)
		assert.Equal(t, once, NormalizeURL(once), "normalizing %q twice must be stable", in)
	}
}

func TestNormalizeURLCaseInsensitiveIdentity(t *testing.T) {
	assert.Equal(t, NormalizeURL("foo.com"), NormalizeURL("https://foo.com"))
	assert.Equal(t, NormalizeURL("foo.com"), NormalizeURL("  FOO.COM "))
}

func TestSyntheticIdentity(t *testing.T) {
	a := SyntheticIdentity()
	b := SyntheticIdentity()

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "lead-token://"))
	// synthetic identities must survive normalization untouched if a
	// caller normalizes them by accident
	assert.NotEqual(t, NormalizeURL("foo.com"), a)
}
