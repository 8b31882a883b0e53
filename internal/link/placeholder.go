package link

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	placeholderPrefix = "xxxHTMLLINKxxx"
	placeholderSuffix = "xxx"
)

// PlaceholderGenerator issues opaque tokens that stand in for unresolved
// references. Tokens are derived from the template path, its content and a
// counter, so the same input always yields the same tokens. A token never
// occurs in the source text and never repeats within one generator.
type PlaceholderGenerator struct {
	seed   []byte
	source string
	next   uint64
	issued map[string]struct{}
}

// NewPlaceholderGenerator seeds a generator for one template.
func NewPlaceholderGenerator(templatePath, source string) *PlaceholderGenerator {
	sum := blake3.Sum256([]byte(templatePath + "\x00" + source))
	return &PlaceholderGenerator{
		seed:   sum[:],
		source: source,
		issued: make(map[string]struct{}),
	}
}

// Next returns a fresh token.
func (g *PlaceholderGenerator) Next() string {
	for {
		hasher := blake3.New()
		_, _ = hasher.Write(g.seed)
		_, _ = hasher.Write([]byte(strconv.FormatUint(g.next, 10)))
		g.next++

		token := placeholderPrefix + hex.EncodeToString(hasher.Sum(nil)[:12]) + placeholderSuffix
		if _, dup := g.issued[token]; dup {
			continue
		}
		if strings.Contains(g.source, token) {
			continue
		}
		g.issued[token] = struct{}{}
		return token
	}
}

// placeholderPattern matches any token a generator can issue.
var placeholderPattern = regexp.MustCompile(placeholderPrefix + `[0-9a-f]{24}` + placeholderSuffix)

// ContainsPlaceholder reports whether text still holds a generated token.
func ContainsPlaceholder(text string) bool {
	return placeholderPattern.MatchString(text)
}
