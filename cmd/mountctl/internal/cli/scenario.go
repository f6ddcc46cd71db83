package cli

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/mountcore/pkg/component"
	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/rendercore"
)

// Scenario is a sequence of tree generations replayed in order.
type Scenario struct {
	Name string `yaml:"name"`
	// Images are solid bitmaps shared by every generation, so nodes naming
	// the same image are equivalent across generations.
	Images      map[string]ImageSpec `yaml:"images,omitempty"`
	Generations []Generation         `yaml:"generations"`
}

// ImageSpec describes a solid-color bitmap.
type ImageSpec struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Color  string `yaml:"color"`
}

// Generation is one render tree.
type Generation struct {
	Name  string     `yaml:"name"`
	Nodes []NodeSpec `yaml:"nodes"`
}

// NodeSpec is one tree node. Type is "drawable" or "group".
type NodeSpec struct {
	Key    string    `yaml:"key"`
	Parent string    `yaml:"parent,omitempty"`
	Type   string    `yaml:"type"`
	Color  string    `yaml:"color,omitempty"`
	Image  string    `yaml:"image,omitempty"`
	Label  string    `yaml:"label,omitempty"`
	Bounds []float64 `yaml:"bounds,flow"`
}

// LoadScenario reads a scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	if len(sc.Generations) == 0 {
		return nil, fmt.Errorf("scenario %s has no generations", path)
	}
	return &sc, nil
}

// Trees builds and validates a render tree per generation.
func (s *Scenario) Trees() ([]*rendercore.RenderTree, error) {
	assets := make(map[string]component.Asset, len(s.Images))
	for name, spec := range s.Images {
		asset, err := spec.asset()
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", name, err)
		}
		assets[name] = asset
	}

	trees := make([]*rendercore.RenderTree, 0, len(s.Generations))
	for i, gen := range s.Generations {
		nodes := make([]*rendercore.TreeNode, 0, len(gen.Nodes))
		for _, spec := range gen.Nodes {
			node, err := spec.node(assets)
			if err != nil {
				return nil, fmt.Errorf("generation %d (%s): node %q: %w", i+1, gen.Name, spec.Key, err)
			}
			nodes = append(nodes, node)
		}
		tree, err := rendercore.NewRenderTree(nodes...)
		if err != nil {
			return nil, fmt.Errorf("generation %d (%s): %w", i+1, gen.Name, err)
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

func (spec ImageSpec) asset() (component.Asset, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("size must be positive (got %dx%d)", spec.Width, spec.Height)
	}
	c, err := parseColor(spec.Color)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return component.NewImageAsset(img), nil
}

func (spec NodeSpec) node(assets map[string]component.Asset) (*rendercore.TreeNode, error) {
	if len(spec.Bounds) != 4 {
		return nil, fmt.Errorf("bounds must be [left, top, width, height]")
	}
	bounds := geometry.RectFromLTWH(spec.Bounds[0], spec.Bounds[1], spec.Bounds[2], spec.Bounds[3])

	var c component.Component
	switch spec.Type {
	case "drawable":
		asset, err := spec.drawableAsset(assets)
		if err != nil {
			return nil, err
		}
		c = component.NewDrawable(asset)
	case "group":
		label := spec.Label
		if label == "" {
			label = spec.Key
		}
		c = component.NewGroup(label)
	default:
		return nil, fmt.Errorf("unknown type %q", spec.Type)
	}
	return rendercore.NewTreeNode(spec.Key, spec.Parent, component.Of(c), bounds), nil
}

func (spec NodeSpec) drawableAsset(assets map[string]component.Asset) (component.Asset, error) {
	switch {
	case spec.Image != "" && spec.Color != "":
		return nil, fmt.Errorf("drawable takes either image or color, not both")
	case spec.Image != "":
		asset, ok := assets[spec.Image]
		if !ok {
			return nil, fmt.Errorf("unknown image %q", spec.Image)
		}
		return asset, nil
	case spec.Color != "":
		c, err := parseColor(spec.Color)
		if err != nil {
			return nil, err
		}
		return component.ColorAsset{Color: c}, nil
	default:
		return nil, fmt.Errorf("drawable needs an image or a color")
	}
}

// parseColor accepts #rrggbb and #rrggbbaa.
func parseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
