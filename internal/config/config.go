package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so configuration files can use human readable
// strings such as "150ms" while still accepting nanosecond numbers.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds. Empty strings and null decode to
// zero.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = Duration(f)
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML mirrors MarshalJSON.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: line %d: expected a scalar", node.Line)
	}
	if node.ShortTag() == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		*d = Duration(n)
		return nil
	}
	if node.ShortTag() == "!!null" {
		*d = 0
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Backend names accepted in GridConfig.Backend.
const (
	BackendArray = "array"
	BackendBits  = "bits"
	BackendTree  = "tree"
)

// Config captures everything gridtool needs to build a grid, replay a scene
// against it and render diagnostics.
type Config struct {
	Grid    GridConfig    `json:"grid" yaml:"grid"`
	Scene   SceneConfig   `json:"scene" yaml:"scene"`
	Preview PreviewConfig `json:"preview" yaml:"preview"`
}

type GridConfig struct {
	Backend     string `json:"backend" yaml:"backend"`         // array, bits or tree
	ExactGrowth bool   `json:"exactGrowth" yaml:"exactGrowth"` // array: no slack on point writes
	MaxSlack    int    `json:"maxSlack" yaml:"maxSlack"`       // array: 0 means unbounded
	EvictEmpty  bool   `json:"evictEmpty" yaml:"evictEmpty"`   // bits: drop words that reach zero
}

type SceneConfig struct {
	Name      string   `json:"name" yaml:"name"`
	BatchSize int      `json:"batchSize" yaml:"batchSize"` // ops per drain, 0 drains everything
	SlowOp    Duration `json:"slowOp" yaml:"slowOp"`       // ops slower than this are logged
	Stamps    []Stamp  `json:"stamps" yaml:"stamps"`
	Ops       []Op     `json:"ops" yaml:"ops"`
}

// Stamp is a named grid built from its own ops and pasted into the scene by
// "paste" ops.
type Stamp struct {
	Name string `json:"name" yaml:"name"`
	Ops  []Op   `json:"ops" yaml:"ops"`
}

// Op is one scripted edit. To defaults to From, so point ops only set From.
type Op struct {
	Kind   string `json:"kind" yaml:"kind"`
	From   Point  `json:"from" yaml:"from"`
	To     *Point `json:"to,omitempty" yaml:"to,omitempty"`
	Value  int    `json:"value" yaml:"value"`
	Offset Point  `json:"offset" yaml:"offset"`
	Stamp  string `json:"stamp,omitempty" yaml:"stamp,omitempty"`
}

type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

type PreviewConfig struct {
	Image   string         `json:"image" yaml:"image"` // isometric PNG path, empty disables
	Plot    string         `json:"plot" yaml:"plot"`   // layer plot PNG path, empty disables
	From    Point          `json:"from" yaml:"from"`
	To      Point          `json:"to" yaml:"to"`
	Palette map[int]string `json:"palette" yaml:"palette"` // value -> "#rrggbb"
}

// Formats accepted by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Load reads configuration from a JSON or YAML file (chosen by extension). An
// empty path returns defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Decode(data, FormatOf(path))
}

// FormatOf picks the format for a file name: YAML for .yaml and .yml, JSON
// otherwise.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses data over the defaults and validates the result. Stamp and
// op lists in data replace the default scene instead of merging into it.
func Decode(data []byte, format string) (*Config, error) {
	cfg := Default()
	cfg.Scene.Stamps, cfg.Scene.Ops = nil, nil

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	case FormatJSON:
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("parse config: unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Backend:    BackendTree,
			EvictEmpty: true,
		},
		Scene: SceneConfig{
			Name:      "default",
			BatchSize: 64,
			SlowOp:    Duration(50 * time.Millisecond),
			Stamps: []Stamp{
				{
					Name: "pillar",
					Ops: []Op{
						{Kind: "setBlock", From: Point{}, To: &Point{X: 1, Y: 1, Z: 7}, Value: 2},
					},
				},
			},
			Ops: []Op{
				{Kind: "setBlock", From: Point{X: -8, Y: -8, Z: 0}, To: &Point{X: 7, Y: 7, Z: 0}, Value: 1},
				{Kind: "paste", Stamp: "pillar", Offset: Point{X: -6, Y: -6, Z: 1}},
				{Kind: "paste", Stamp: "pillar", Offset: Point{X: 4, Y: 4, Z: 1}},
				{Kind: "removeBlock", From: Point{X: -2, Y: -2, Z: 0}, To: &Point{X: 1, Y: 1, Z: 0}},
				{Kind: "set", From: Point{X: 0, Y: 0, Z: 4}, Value: 3},
			},
		},
		Preview: PreviewConfig{
			From: Point{X: -8, Y: -8, Z: 0},
			To:   Point{X: 7, Y: 7, Z: 8},
			Palette: map[int]string{
				1: "#6b8e23",
				2: "#8b5a2b",
				3: "#ffd700",
			},
		},
	}
}

// OpKinds lists the op kinds a scene may contain.
var OpKinds = []string{"set", "remove", "setBlock", "removeBlock", "clear", "paste", "changeAll"}

func (c *Config) Validate() error {
	switch c.Grid.Backend {
	case BackendArray, BackendBits, BackendTree:
	default:
		return fmt.Errorf("grid.backend %q must be one of array, bits, tree", c.Grid.Backend)
	}
	if c.Grid.MaxSlack < 0 {
		return errors.New("grid.maxSlack cannot be negative")
	}
	if c.Scene.BatchSize < 0 {
		return errors.New("scene.batchSize cannot be negative")
	}
	if c.Scene.SlowOp < 0 {
		return errors.New("scene.slowOp cannot be negative")
	}
	stamps := make(map[string]bool, len(c.Scene.Stamps))
	for i, s := range c.Scene.Stamps {
		if s.Name == "" {
			return fmt.Errorf("scene.stamps[%d].name must be set", i)
		}
		if stamps[s.Name] {
			return fmt.Errorf("scene.stamps[%d].name %q is duplicated", i, s.Name)
		}
		stamps[s.Name] = true
		for j, op := range s.Ops {
			if op.Kind == "paste" {
				return fmt.Errorf("scene.stamps[%d].ops[%d]: stamps cannot paste", i, j)
			}
			if err := validateOp(op, stamps); err != nil {
				return fmt.Errorf("scene.stamps[%d].ops[%d]: %w", i, j, err)
			}
		}
	}
	for i, op := range c.Scene.Ops {
		if err := validateOp(op, stamps); err != nil {
			return fmt.Errorf("scene.ops[%d]: %w", i, err)
		}
	}
	for value, hex := range c.Preview.Palette {
		if !validHexColor(hex) {
			return fmt.Errorf("preview.palette[%d]: %q is not a #rrggbb color", value, hex)
		}
	}
	return nil
}

func validateOp(op Op, stamps map[string]bool) error {
	if !slices.Contains(OpKinds, op.Kind) {
		return fmt.Errorf("unknown kind %q", op.Kind)
	}
	if op.Kind == "paste" && !stamps[op.Stamp] {
		return fmt.Errorf("paste references unknown stamp %q", op.Stamp)
	}
	return nil
}

func validHexColor(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
