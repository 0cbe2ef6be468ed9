package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ErrTypeBadPattern marks an exclude pattern that does not compile.
const ErrTypeBadPattern = "filter_bad_pattern"

var gradientEffectRE = regexp.MustCompile(`^(?:mini_|hangul)?gra(?:\d|_|$)`)

// DefaultPatterns are texture-stem fragments of glow, aura and particle
// overlays. Those sub-meshes render on top of real geometry and must not
// produce colliders.
var DefaultPatterns = []string{
	"glow", "flare", "chrome", "effect",
	"aura", "shiny", "spark", "fire", "blur",
	"energy", "plasma", "shine", "halo", "trail",
	"gradation", "alpha_line", "shockwave",
}

// effectPrefixPatterns must match at the START of the texture stem only.
// "flame" is prefix-only to avoid false positives like "box_flame_wood".
var effectPrefixPatterns = []string{"flame"}

// Filter decides which sub-meshes are skipped during collider generation.
type Filter struct {
	defaults bool
	custom   []*regexp.Regexp
}

// New returns a filter using the default effect patterns plus the given
// regular expressions, matched case-insensitively against the texture stem.
func New(exclude []string) (*Filter, error) {
	f := &Filter{defaults: true}
	for _, p := range exclude {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, errors.New("invalid exclude pattern").
				WithType(ErrTypeBadPattern).
				WithTag("pattern", p).
				Wrap(err)
		}
		f.custom = append(f.custom, re)
	}
	return f, nil
}

// None returns a filter that keeps every mesh.
func None() *Filter {
	return &Filter{}
}

// Stem lowercases a texture path and strips its directory and extension.
func Stem(texPath string) string {
	tex := strings.ToLower(strings.ReplaceAll(texPath, "\\", "/"))
	return strings.TrimSuffix(filepath.Base(tex), filepath.Ext(tex))
}

// Excluded reports whether a sub-mesh textured with texPath is skipped.
// Meshes without a texture reference are always kept.
func (f *Filter) Excluded(texPath string) bool {
	if f == nil || texPath == "" {
		return false
	}
	stem := Stem(texPath)

	for _, re := range f.custom {
		if re.MatchString(stem) {
			return true
		}
	}
	if !f.defaults {
		return false
	}

	if gradientEffectRE.MatchString(stem) {
		return true
	}
	for _, p := range DefaultPatterns {
		if strings.Contains(stem, p) {
			return true
		}
	}
	for _, p := range effectPrefixPatterns {
		if strings.HasPrefix(stem, p) {
			return true
		}
	}
	return false
}
