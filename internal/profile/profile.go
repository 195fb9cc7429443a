// SPDX-License-Identifier: MPL-2.0

// Package profile loads the catalog of application release profiles. A
// profile bundles everything release-specific: runtime components, library
// overrides, the preferred renderer, and scaling.
package profile

import (
	_ "embed"
	"os"
	"sort"

	"pstux/internal/cueutil"
	"pstux/internal/issue"
)

//go:embed schema.cue
var schemaCUE []byte

//go:embed defaults.cue
var defaultsCUE []byte

type (
	// Profile is one application release recipe.
	Profile struct {
		// ID is the catalog key (e.g. "cc2025").
		ID string `json:"id"`

		// Name is the human-readable release name.
		Name string `json:"name"`

		// Components are winetricks verbs installed in order during setup.
		Components []string `json:"components"`

		// DLLOverrides pins libraries to a load order inside the prefix.
		DLLOverrides map[string]string `json:"dllOverrides"`

		// Renderer is the Direct3D backend applied after setup.
		Renderer string `json:"renderer"`

		// DPI, when nonzero, is written to the registry after setup.
		DPI int `json:"dpi"`

		// Notes surface in status output.
		Notes string `json:"notes"`
	}

	// Catalog is the validated set of profiles keyed by ID.
	Catalog struct {
		Profiles map[string]Profile `json:"profiles"`
	}
)

// LoadDefault parses the embedded catalog. An error here is a build defect,
// not a user mistake.
func LoadDefault() (*Catalog, error) {
	return parse(defaultsCUE, "<builtin>")
}

// LoadFile parses a user-supplied catalog document. The document replaces
// the built-in catalog entirely.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &issue.ConfigValidationError{Path: path, Cause: err}
	}
	return parse(data, path)
}

func parse(data []byte, filename string) (*Catalog, error) {
	cat, err := cueutil.ParseAndDecode[Catalog](schemaCUE, data, "#Catalog", filename)
	if err != nil {
		return nil, &issue.ConfigValidationError{Path: filename, Cause: err}
	}
	return cat, nil
}

// Get looks up a profile by ID.
func (c *Catalog) Get(id string) (*Profile, error) {
	p, ok := c.Profiles[id]
	if !ok {
		return nil, &issue.NotFoundError{Resource: "profile " + id}
	}
	return &p, nil
}

// IDs returns the profile identifiers in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.Profiles))
	for id := range c.Profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
