// Package content resolves course versions and loads version-scoped content
// files from a directory tree or a static site.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigFile is the version configuration path relative to the content base.
const ConfigFile = "versions/config.json"

// ErrUnknownVersion is returned when a resolver has no versions configured.
var ErrUnknownVersion = errors.New("unknown version")

var validate = validator.New()

// Version is one entry of the version configuration.
type Version struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name,omitempty"`
}

// VersionConfig mirrors versions/config.json.
type VersionConfig struct {
	DefaultVersion string    `json:"defaultVersion" validate:"required"`
	Versions       []Version `json:"versions" validate:"required,min=1,dive"`
}

// ParseVersionConfig decodes and validates a version configuration.
func ParseVersionConfig(data []byte) (VersionConfig, error) {
	var cfg VersionConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return VersionConfig{}, fmt.Errorf("decode version config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return VersionConfig{}, fmt.Errorf("invalid version config: %w", err)
	}
	return cfg, nil
}

// IDs returns the configured version ids in file order.
func (c VersionConfig) IDs() []string {
	ids := make([]string, 0, len(c.Versions))
	for _, v := range c.Versions {
		ids = append(ids, v.ID)
	}
	return ids
}

// Resolver normalizes a requested version against the configured list.
type Resolver struct {
	versions []string
	def      string
}

// NewResolver creates a resolver. The default version must be one of
// versions.
func NewResolver(def string, versions []string) (*Resolver, error) {
	def = strings.TrimSpace(def)
	if len(versions) == 0 {
		return nil, fmt.Errorf("no versions configured: %w", ErrUnknownVersion)
	}
	if !slices.Contains(versions, def) {
		return nil, fmt.Errorf("default version %q not in %v: %w", def, versions, ErrUnknownVersion)
	}
	return &Resolver{versions: slices.Clone(versions), def: def}, nil
}

// NewResolverFromConfig creates a resolver from a parsed version config.
func NewResolverFromConfig(cfg VersionConfig) (*Resolver, error) {
	return NewResolver(cfg.DefaultVersion, cfg.IDs())
}

// Resolve returns v when it is a configured version and the default
// otherwise, including for an empty v.
func (r *Resolver) Resolve(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && slices.Contains(r.versions, v) {
		return v
	}
	return r.def
}

// Default returns the default version.
func (r *Resolver) Default() string { return r.def }

// Versions returns the configured versions.
func (r *Resolver) Versions() []string { return slices.Clone(r.versions) }

// Problems lists layout errors and warnings for the versions tree rooted
// at dir. Missing version or content directories are errors; a missing
// demos directory is a warning.
func Problems(dir string, cfg VersionConfig) (errs, warnings []string) {
	if !slices.Contains(cfg.IDs(), cfg.DefaultVersion) {
		errs = append(errs, fmt.Sprintf("default version %s is not listed", cfg.DefaultVersion))
	}
	for _, id := range cfg.IDs() {
		versionDir := filepath.Join(dir, "versions", id)
		if !isDir(versionDir) {
			errs = append(errs, fmt.Sprintf("directory not found for version: %s", id))
			continue
		}
		if !isDir(filepath.Join(versionDir, "content")) {
			errs = append(errs, fmt.Sprintf("content directory not found for version: %s", id))
		}
		if !isDir(filepath.Join(versionDir, "demos")) {
			warnings = append(warnings, fmt.Sprintf("demos directory not found for version: %s", id))
		}
	}
	return errs, warnings
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
