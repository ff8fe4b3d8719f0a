// Package openapi reads the descriptive parts of a local OpenAPI document.
// Documents are loaded, never validated.
package openapi

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
)

// Info is the subset of the document's info object used for page branding.
type Info struct {
	Title       string
	Version     string
	Description string
}

// ReadInfo loads the JSON or YAML document at path and returns its info
// block. External references are not followed.
func ReadInfo(path string) (Info, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return Info{}, errors.Wrapf(err, "load %s", path)
	}
	if doc.Info == nil {
		return Info{}, nil
	}
	return Info{
		Title:       strings.TrimSpace(doc.Info.Title),
		Version:     strings.TrimSpace(doc.Info.Version),
		Description: strings.TrimSpace(doc.Info.Description),
	}, nil
}

// ContentType returns the media type to serve the document at path with.
func ContentType(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return "application/yaml"
	}
	return "application/json"
}
