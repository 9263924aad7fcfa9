package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministic(t *testing.T) {
	a := String("Hello World")
	b := Bytes([]byte("Hello World"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, String("Hello World!"))
}

func TestRichMatchesConcatenation(t *testing.T) {
	html := "<p>x</p>"
	assert.Equal(t, String("<p>x</p>x"), Rich(&html, nil, "x"))
	assert.Equal(t, String("x"), Rich(nil, nil, "x"))
}

func TestPathsOrderMatters(t *testing.T) {
	assert.Equal(t, String("/a\n/b"), Paths([]string{"/a", "/b"}))
	assert.NotEqual(t, Paths([]string{"/a", "/b"}), Paths([]string{"/b", "/a"}))
}
