// Package highlight marks the meshes of the currently relevant part by
// setting their material's emissive colour.
package highlight

import (
	"fmt"
	"strconv"
	"strings"

	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/scene"
)

// DefaultColor is pure red.
var DefaultColor = mathutil.Vec3{1, 0, 0}

// Highlighter remembers the last (scene, part) pair it applied so the
// full-scene walk only happens when one of them changes.
type Highlighter struct {
	Color mathutil.Vec3

	root    *scene.Node
	part    string
	applied bool
}

// New returns a highlighter using color; a zero color falls back to DefaultColor.
func New(color mathutil.Vec3) *Highlighter {
	if color.IsZero() {
		color = DefaultColor
	}
	return &Highlighter{Color: color}
}

// Part returns the part name last applied.
func (h *Highlighter) Part() string {
	return h.part
}

// Update applies the highlight when part or root differ from the previous
// call. It reports whether the scene was walked.
func (h *Highlighter) Update(root *scene.Node, part string) bool {
	if h.applied && root == h.root && part == h.part {
		return false
	}
	h.Apply(root, part)
	return true
}

// Apply resets every mesh's emissive colour to zero, then lights the nodes
// named part. An empty part lights nothing.
func (h *Highlighter) Apply(root *scene.Node, part string) {
	h.root, h.part, h.applied = root, part, true
	if root == nil {
		return
	}

	// Materials may be shared between nodes; give each mesh node its own
	// copy before writing so a highlight never leaks to another name.
	seen := make(map[*scene.Material]*scene.Node)
	for _, n := range root.Meshes() {
		if n.Material == nil {
			n.Material = scene.DefaultMaterial()
		}
		if owner, ok := seen[n.Material]; ok && owner != n {
			n.Material = n.Material.Clone()
		}
		seen[n.Material] = n

		n.Material.Emissive = mathutil.Vec3{}
		if part != "" && n.Name == part {
			n.Material.Emissive = h.Color
		}
	}
}

// Lit returns the names of mesh nodes that currently have a non-zero emissive.
func Lit(root *scene.Node) []string {
	var names []string
	if root == nil {
		return names
	}
	for _, n := range root.Meshes() {
		if n.Material != nil && !n.Material.Emissive.IsZero() {
			names = append(names, n.Name)
		}
	}
	return names
}

// ParseColor parses "#rrggbb" or "rrggbb" into a linear 0..1 colour.
func ParseColor(s string) (mathutil.Vec3, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return mathutil.Vec3{}, fmt.Errorf("highlight: bad colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return mathutil.Vec3{}, fmt.Errorf("highlight: bad colour %q: %w", s, err)
	}
	return mathutil.Vec3{
		float64(v>>16&0xff) / 255,
		float64(v>>8&0xff) / 255,
		float64(v&0xff) / 255,
	}, nil
}
