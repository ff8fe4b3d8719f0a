package docs

import (
	"strings"

	"github.com/pkg/errors"
)

// MountID is the id of the single element the viewer renders into.
const MountID = "swagger-ui"

// Layout selects the viewer's top-level arrangement.
type Layout string

const (
	LayoutBase       Layout = "BaseLayout"
	LayoutStandalone Layout = "StandaloneLayout"
)

// Preset names a built-in capability set of the viewer. The bootstrap
// script maps each name to the matching Swagger UI object.
type Preset string

const (
	PresetAPIs       Preset = "apis"
	PresetStandalone Preset = "standalone"
)

// DocExpansion controls whether endpoint groups start collapsed or expanded.
type DocExpansion string

const (
	ExpandList DocExpansion = "list"
	ExpandFull DocExpansion = "full"
	ExpandNone DocExpansion = "none"
)

// ViewerConfig is the bootstrap configuration handed to SwaggerUIBundle.
// It is emitted as JSON, so the field tags are the viewer's option names.
type ViewerConfig struct {
	URL          string       `json:"url"`
	DomID        string       `json:"dom_id"`
	Layout       Layout       `json:"layout"`
	Presets      []Preset     `json:"presets"`
	DocExpansion DocExpansion `json:"docExpansion"`
	DeepLinking  bool         `json:"deepLinking"`
}

// DefaultViewerConfig returns the configuration used when nothing is
// overridden: base layout, both presets, collapsed groups, deep links on.
func DefaultViewerConfig(specURL string) ViewerConfig {
	return ViewerConfig{
		URL:          specURL,
		DomID:        "#" + MountID,
		Layout:       LayoutBase,
		Presets:      []Preset{PresetAPIs, PresetStandalone},
		DocExpansion: ExpandNone,
		DeepLinking:  true,
	}
}

// WithURL returns a copy of c pointing at specURL. The preset slice is
// copied so renders never share backing arrays.
func (c ViewerConfig) WithURL(specURL string) ViewerConfig {
	c.URL = specURL
	c.Presets = append([]Preset(nil), c.Presets...)
	return c
}

// Validate checks the enumerated fields. The URL is deliberately left alone:
// reachability and parseability are the viewer's concern.
func (c ViewerConfig) Validate() error {
	if c.DomID != "#"+MountID {
		return errors.Errorf("dom_id must be %q, got %q", "#"+MountID, c.DomID)
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.DocExpansion.Validate(); err != nil {
		return err
	}
	if len(c.Presets) == 0 {
		return errors.New("at least one preset is required")
	}
	seen := make(map[Preset]bool, len(c.Presets))
	for _, p := range c.Presets {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p] {
			return errors.Errorf("duplicate preset %q", p)
		}
		seen[p] = true
	}
	// StandaloneLayout is defined by the standalone preset; without it the
	// viewer renders an error in place of the docs.
	if c.Layout == LayoutStandalone && !seen[PresetStandalone] {
		return errors.Errorf("layout %s requires the %q preset", LayoutStandalone, PresetStandalone)
	}
	return nil
}

func (l Layout) Validate() error {
	switch l {
	case LayoutBase, LayoutStandalone:
		return nil
	}
	return errors.Errorf("unknown layout %q (want %s or %s)", l, LayoutBase, LayoutStandalone)
}

func (p Preset) Validate() error {
	switch p {
	case PresetAPIs, PresetStandalone:
		return nil
	}
	return errors.Errorf("unknown preset %q (want %s or %s)", p, PresetAPIs, PresetStandalone)
}

func (d DocExpansion) Validate() error {
	switch d {
	case ExpandList, ExpandFull, ExpandNone:
		return nil
	}
	return errors.Errorf("unknown doc expansion %q (want list, full or none)", d)
}

// ParsePresets splits a comma-separated preset list, ignoring blanks.
func ParsePresets(list string) []Preset {
	var out []Preset
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, Preset(n))
		}
	}
	return out
}
