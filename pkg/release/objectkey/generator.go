package objectkey

import (
	"strings"

	"github.com/google/uuid"
	"github.com/skyvalley/source/pkg/release"
)

// Generator defines the interface for physical object naming strategies
type Generator interface {
	// GenerateKey returns the physical pathname to store a logical key under
	GenerateKey(key string) string

	// LogicalKey recovers the logical key from a pathname made by GenerateKey
	LogicalKey(pathname string) string
}

// ExactGenerator stores objects under their logical key
type ExactGenerator struct{}

func NewExactGenerator() *ExactGenerator {
	return &ExactGenerator{}
}

func (g *ExactGenerator) GenerateKey(key string) string {
	return key
}

func (g *ExactGenerator) LogicalKey(pathname string) string {
	return pathname
}

// DefaultSuffixLength is the number of random characters in a uniqueness suffix
const DefaultSuffixLength = 16

// SuffixGenerator appends a random uniqueness suffix to the file name, in
// front of the artifact extension:
//
//	differ/dmg/Differ-1.0.dmg -> differ/dmg/Differ-1.0-3f9c0a1b2d4e5f60.dmg
//
// Keeping the extension last means a prefix search for the key without its
// extension still matches the stored object.
type SuffixGenerator struct {
	// Length is the number of suffix characters (default: 16, max: 32)
	Length int
	// Random returns at least Length lowercase hex characters. Defaults to
	// a random UUID.
	Random func() string
}

func NewSuffixGenerator() *SuffixGenerator {
	return &SuffixGenerator{Length: DefaultSuffixLength}
}

func (g *SuffixGenerator) GenerateKey(key string) string {
	base, ext := splitExt(key)
	return base + "-" + g.suffix() + ext
}

func (g *SuffixGenerator) LogicalKey(pathname string) string {
	base, ext := splitExt(pathname)
	n := g.length()
	if len(base) <= n+1 || base[len(base)-n-1] != '-' {
		return pathname
	}
	if !isHex(base[len(base)-n:]) {
		return pathname
	}
	return base[:len(base)-n-1] + ext
}

func (g *SuffixGenerator) length() int {
	if g.Length <= 0 || g.Length > 32 {
		return DefaultSuffixLength
	}
	return g.Length
}

func (g *SuffixGenerator) suffix() string {
	n := g.length()
	var s string
	if g.Random != nil {
		s = g.Random()
	} else {
		s = strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	if len(s) < n {
		s += strings.Repeat("0", n-len(s))
	}
	return strings.ToLower(s[:n])
}

// splitExt splits a trailing artifact extension off name.
func splitExt(name string) (string, string) {
	base := release.StripArtifactExt(name)
	return base, name[len(base):]
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
