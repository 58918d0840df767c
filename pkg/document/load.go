package document

import (
	"errors"
	"fmt"

	"github.com/borderux/recursica-forge-sub006/pkg/util"
)

// Paths locates the three documents on disk.
type Paths struct {
	Tokens string `yaml:"tokens" json:"tokens"`
	Theme  string `yaml:"theme" json:"theme"`
	Spec   string `yaml:"spec" json:"spec"`
}

// All returns the document paths in tokens, theme, spec order.
func (p Paths) All() []string {
	return []string{p.Tokens, p.Theme, p.Spec}
}

// Validate reports every missing path at once.
func (p Paths) Validate() error {
	var errs []error
	if p.Tokens == "" {
		errs = append(errs, errors.New("tokens document path is required"))
	}
	if p.Theme == "" {
		errs = append(errs, errors.New("theme document path is required"))
	}
	if p.Spec == "" {
		errs = append(errs, errors.New("spec document path is required"))
	}
	return errors.Join(errs...)
}

// LoadSet reads and decodes the three documents through the file cache.
func LoadSet(cache util.FileCache, paths Paths) (Set, error) {
	if err := paths.Validate(); err != nil {
		return Set{}, err
	}

	raw := make([][]byte, 0, 3)
	var errs []error
	for _, p := range paths.All() {
		data, err := cache.Read(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", p, err))
			continue
		}
		raw = append(raw, data)
	}
	if len(errs) > 0 {
		return Set{}, errors.Join(errs...)
	}

	return ParseSet(raw[0], raw[1], raw[2])
}
