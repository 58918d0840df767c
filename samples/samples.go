// Package samples provides an embedded token, theme and component-specification
// document triple for demos and end-to-end tests.
package samples

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
)

// TokensJSON is the primitive token document.
//
//go:embed data/tokens.json
var TokensJSON []byte

// BrandJSON is the theme document with light and dark modes.
//
//go:embed data/brand.json
var BrandJSON []byte

// UIKitJSON is the component-specification document.
//
//go:embed data/ui-kit.json
var UIKitJSON []byte

// File names used by WriteTo.
const (
	TokensFile = "tokens.json"
	BrandFile  = "brand.json"
	UIKitFile  = "ui-kit.json"
)

// Set decodes the embedded documents.
func Set() (document.Set, error) {
	return document.ParseSet(TokensJSON, BrandJSON, UIKitJSON)
}

// WriteTo writes the documents into dir, creating it if needed, and returns
// their paths. Existing files are overwritten.
func WriteTo(dir string) (document.Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return document.Paths{}, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	paths := document.Paths{
		Tokens: filepath.Join(dir, TokensFile),
		Theme:  filepath.Join(dir, BrandFile),
		Spec:   filepath.Join(dir, UIKitFile),
	}
	for path, data := range map[string][]byte{
		paths.Tokens: TokensJSON,
		paths.Theme:  BrandJSON,
		paths.Spec:   UIKitJSON,
	} {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return document.Paths{}, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return paths, nil
}
