package config

import (
	"os"
	"path/filepath"
	"strings"

	"colliderbake/internal/decompose"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBoxesPerEdge is the grid resolution used when none is configured.
	DefaultBoxesPerEdge = 20

	// MinBoxesPerEdge and MaxBoxesPerEdge bound the grid resolution.
	MinBoxesPerEdge = 1
	MaxBoxesPerEdge = 50

	DefaultPreviewSize   = 256
	DefaultPreviewFormat = "webp"
)

// ErrTypeConfig is the error type for unreadable configuration files.
const ErrTypeConfig = "config"

// Settings is the generation state shared by every operation of a run.
type Settings struct {
	// Paths
	AssetRoot   string `json:"asset_root"   toml:"asset_root"   yaml:"asset_root"`
	MeshDir     string `json:"mesh_dir"     toml:"mesh_dir"     yaml:"mesh_dir"`
	ReportPath  string `json:"report_path"  toml:"report_path"  yaml:"report_path"`
	MetricsPath string `json:"metrics_path" toml:"metrics_path" yaml:"metrics_path"`
	PreviewDir  string `json:"preview_dir"  toml:"preview_dir"  yaml:"preview_dir"`

	// Generation
	BoxesPerEdge      int      `json:"boxes_per_edge"      toml:"boxes_per_edge"      yaml:"boxes_per_edge"`
	IsTrigger         bool     `json:"is_trigger"          toml:"is_trigger"          yaml:"is_trigger"`
	Material          string   `json:"material"            toml:"material"            yaml:"material"`
	Fill              string   `json:"fill"                toml:"fill"                yaml:"fill"`
	Merge             bool     `json:"merge"               toml:"merge"               yaml:"merge"`
	KeepMeshColliders bool     `json:"keep_mesh_colliders" toml:"keep_mesh_colliders" yaml:"keep_mesh_colliders"`
	ExcludePatterns   []string `json:"exclude_patterns"    toml:"exclude_patterns"    yaml:"exclude_patterns"`

	// Preview
	PreviewFormat string `json:"preview_format" toml:"preview_format" yaml:"preview_format"`
	PreviewSize   int    `json:"preview_size"   toml:"preview_size"   yaml:"preview_size"`

	LogLevel string `json:"log_level" toml:"log_level" yaml:"log_level"`

	// Overrides apply per asset; the first matching entry wins.
	Overrides []Override `json:"overrides" toml:"overrides" yaml:"overrides"`
}

// Override replaces generation settings for assets matching a glob.
// Match is tried against the full slash-separated path and the base name.
type Override struct {
	Match        string  `json:"match"          toml:"match"          yaml:"match"`
	BoxesPerEdge *int    `json:"boxes_per_edge" toml:"boxes_per_edge" yaml:"boxes_per_edge"`
	IsTrigger    *bool   `json:"is_trigger"     toml:"is_trigger"     yaml:"is_trigger"`
	Material     *string `json:"material"       toml:"material"       yaml:"material"`
	Fill         *string `json:"fill"           toml:"fill"           yaml:"fill"`
	Merge        *bool   `json:"merge"          toml:"merge"          yaml:"merge"`
}

// Load reads a settings file; the decoder is picked by extension
// (.json, .toml, .yaml, .yml). Fields not set in the file keep their zero
// values.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.New("reading config failed").
			WithType(ErrTypeConfig).
			WithTag("path", path).
			Wrap(err)
	}

	var s Settings
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &s)
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return Settings{}, errors.New("unsupported config format").
			WithType(ErrTypeConfig).
			WithTag("path", path).
			WithTag("extension", ext)
	}
	if err != nil {
		return Settings{}, errors.New("parsing config failed").
			WithType(ErrTypeConfig).
			WithTag("path", path).
			Wrap(err)
	}
	return s, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the file setting in place.
type Flags struct {
	AssetRoot         string
	MeshDir           string
	ReportPath        string
	MetricsPath       string
	PreviewDir        string
	PreviewFormat     string
	BoxesPerEdge      int
	IsTrigger         bool
	Material          string
	Fill              string
	Merge             bool
	KeepMeshColliders bool
	LogLevel          string
}

// Resolve applies flag overrides, fills defaults and clamps the result.
func (s *Settings) Resolve(flags Flags) {
	// CLI flags override config file
	setString(&s.AssetRoot, flags.AssetRoot)
	setString(&s.MeshDir, flags.MeshDir)
	setString(&s.ReportPath, flags.ReportPath)
	setString(&s.MetricsPath, flags.MetricsPath)
	setString(&s.PreviewDir, flags.PreviewDir)
	setString(&s.PreviewFormat, flags.PreviewFormat)
	setString(&s.Material, flags.Material)
	setString(&s.Fill, flags.Fill)
	setString(&s.LogLevel, flags.LogLevel)
	if flags.BoxesPerEdge != 0 {
		s.BoxesPerEdge = flags.BoxesPerEdge
	}
	if flags.IsTrigger {
		s.IsTrigger = true
	}
	if flags.Merge {
		s.Merge = true
	}
	if flags.KeepMeshColliders {
		s.KeepMeshColliders = true
	}

	// Mesh sources default to the asset root
	if s.MeshDir == "" {
		s.MeshDir = s.AssetRoot
	}

	if s.BoxesPerEdge == 0 {
		s.BoxesPerEdge = DefaultBoxesPerEdge
	}
	if s.PreviewSize <= 0 {
		s.PreviewSize = DefaultPreviewSize
	}
	if s.PreviewFormat == "" {
		s.PreviewFormat = DefaultPreviewFormat
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	s.Clamp()
}

// Clamp forces generation settings into their allowed ranges instead of
// rejecting them.
func (s *Settings) Clamp() {
	s.BoxesPerEdge = ClampBoxesPerEdge(s.BoxesPerEdge)
	if s.Fill == "" || !decompose.Fill(s.Fill).Valid() {
		s.Fill = string(decompose.FillSurface)
	}
}

// ClampBoxesPerEdge limits n to [MinBoxesPerEdge, MaxBoxesPerEdge].
func ClampBoxesPerEdge(n int) int {
	if n < MinBoxesPerEdge {
		return MinBoxesPerEdge
	}
	if n > MaxBoxesPerEdge {
		return MaxBoxesPerEdge
	}
	return n
}

// For returns the settings for one asset with the first matching override
// applied.
func (s Settings) For(assetPath string) Settings {
	slashed := filepath.ToSlash(assetPath)
	base := filepath.Base(assetPath)

	for _, o := range s.Overrides {
		if !matches(o.Match, slashed) && !matches(o.Match, base) {
			continue
		}
		if o.BoxesPerEdge != nil {
			s.BoxesPerEdge = *o.BoxesPerEdge
		}
		if o.IsTrigger != nil {
			s.IsTrigger = *o.IsTrigger
		}
		if o.Material != nil {
			s.Material = *o.Material
		}
		if o.Fill != nil {
			s.Fill = *o.Fill
		}
		if o.Merge != nil {
			s.Merge = *o.Merge
		}
		break
	}
	s.Clamp()
	return s
}

// Params converts the generation settings for the decomposition engine.
func (s Settings) Params() decompose.Params {
	return decompose.Params{
		BoxesPerEdge: s.BoxesPerEdge,
		IsTrigger:    s.IsTrigger,
		Material:     s.Material,
		Fill:         decompose.Fill(s.Fill),
		Merge:        s.Merge,
	}
}

func matches(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
