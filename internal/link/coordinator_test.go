package link

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"url", "/static/logo.1a2b3c4d.png", `'/static/logo.1a2b3c4d.png'`},
		{"single quote", "it's", `'it\'s'`},
		{"backslash", `a\b`, `'a\\b'`},
		{"newline", "line one\nline two", `'line one\nline two'`},
		{"carriage return", "a\r\nb", `'a\r\nb'`},
		{"escaped sequence stays literal", `a\nb`, `'a\\nb'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteLiteral(tt.value))
		})
	}
}

func TestWorkingCopySubstitute(t *testing.T) {
	w := workingCopy{content: "img(src=A)\nimg(src=B)"}

	var wg sync.WaitGroup
	for placeholder, value := range map[string]string{"A": "/a.png", "B": "x\ny"} {
		wg.Add(1)
		go func(placeholder, value string) {
			defer wg.Done()
			w.substitute(placeholder, value)
		}(placeholder, value)
	}
	wg.Wait()

	assert.Equal(t, "img(src='/a.png')\nimg(src='x\\ny')", w.String())
}

func TestFanInFiresOnce(t *testing.T) {
	var fired int
	f := newFanIn(3, func() { fired++ })

	f.done()
	f.done()
	assert.Equal(t, 0, fired)
	f.done()
	f.done()
	assert.Equal(t, 1, fired)
}
