// Package config loads the furnish configuration file with viper.
//
// A config file names the model root, the logging level, session and gesture
// tuning, and the catalog grouped by category:
//
//	logLevel: debug
//	modelRoot: ./assets
//	catalog:
//	  chair:
//	    - {name: oak, height: 0.9}
//	  table:
//	    - {name: round, height: 0.75, path: tables/round.glb}
//
// Every key can be overridden from the environment with the FURNISH_ prefix,
// for example FURNISH_SESSION_PREVIEWOPACITY=0.3.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phanxgames/furnish"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ItemConfig is one catalog entry.
type ItemConfig struct {
	Name   string  `json:"name" mapstructure:"name"`
	Height float64 `json:"height" mapstructure:"height"`
	Path   string  `json:"path" mapstructure:"path"`
}

// SessionConfig holds placement session settings.
type SessionConfig struct {
	PreviewOpacity   float64 `json:"previewOpacity" mapstructure:"previewOpacity"`
	HighlightOpacity float64 `json:"highlightOpacity" mapstructure:"highlightOpacity"`
	HighlightSeconds float64 `json:"highlightSeconds" mapstructure:"highlightSeconds"`
}

// GestureConfig holds gesture tuning.
type GestureConfig struct {
	RotateSpeed           float64 `json:"rotateSpeed" mapstructure:"rotateSpeed"`
	DragSpeed             float64 `json:"dragSpeed" mapstructure:"dragSpeed"`
	DragThreshold         float64 `json:"dragThreshold" mapstructure:"dragThreshold"`
	PinchThreshold        float64 `json:"pinchThreshold" mapstructure:"pinchThreshold"`
	MinScale              float64 `json:"minScale" mapstructure:"minScale"`
	MaxScale              float64 `json:"maxScale" mapstructure:"maxScale"`
	ControllerRotateSpeed float64 `json:"controllerRotateSpeed" mapstructure:"controllerRotateSpeed"`
}

// File is the decoded configuration.
type File struct {
	LogLevel     string                  `json:"logLevel" mapstructure:"logLevel"`
	ModelRoot    string                  `json:"modelRoot" mapstructure:"modelRoot"`
	PreloadLimit int                     `json:"preloadLimit" mapstructure:"preloadLimit"`
	Session      SessionConfig           `json:"session" mapstructure:"session"`
	Gesture      GestureConfig           `json:"gesture" mapstructure:"gesture"`
	Catalog      map[string][]ItemConfig `json:"catalog" mapstructure:"catalog"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("modelRoot", "./assets")
	v.SetDefault("preloadLimit", 4)

	s := furnish.DefaultSessionConfig()
	v.SetDefault("session.previewOpacity", s.PreviewOpacity)
	v.SetDefault("session.highlightOpacity", s.HighlightOpacity)
	v.SetDefault("session.highlightSeconds", float64(s.HighlightDuration))

	g := furnish.DefaultGestureConfig()
	v.SetDefault("gesture.rotateSpeed", g.RotateSpeed)
	v.SetDefault("gesture.dragSpeed", g.DragSpeed)
	v.SetDefault("gesture.dragThreshold", g.DragThreshold)
	v.SetDefault("gesture.pinchThreshold", g.PinchThreshold)
	v.SetDefault("gesture.minScale", g.MinScale)
	v.SetDefault("gesture.maxScale", g.MaxScale)
	v.SetDefault("gesture.controllerRotateSpeed", g.ControllerRotateSpeed)
}

// New returns a viper instance with defaults and FURNISH_ environment
// overrides configured.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("furnish")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path. The format follows the file extension
// (yaml, json, toml). An empty path yields the defaults.
func Load(path string) (*File, error) {
	return Read(New(), path)
}

// Read loads path into v, which may carry flag bindings made with
// BindPFlag, and decodes the result.
func Read(v *viper.Viper, path string) (*File, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals the settings held by v.
func Decode(v *viper.Viper) (*File, error) {
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if _, err := f.Level(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Level parses LogLevel.
func (f *File) Level() (zerolog.Level, error) {
	if f.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(f.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid logLevel %q: %w", f.LogLevel, err)
	}
	return lvl, nil
}

// Categories returns the catalog's category names, sorted. Viper folds keys
// to lower case, so categories are case-insensitive.
func (f *File) Categories() []string {
	out := make([]string, 0, len(f.Catalog))
	for cat := range f.Catalog {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Items returns the catalog entries by sorted category, in file order within
// a category.
func (f *File) Items() []furnish.CatalogItem {
	var out []furnish.CatalogItem
	for _, cat := range f.Categories() {
		for _, it := range f.Catalog[cat] {
			out = append(out, furnish.CatalogItem{
				Category: cat,
				Name:     it.Name,
				Height:   it.Height,
				Path:     it.Path,
			})
		}
	}
	return out
}

// Register adds every catalog entry to c, stopping at the first rejected one.
func (f *File) Register(c *furnish.Catalog) error {
	for _, item := range f.Items() {
		if err := c.Register(item); err != nil {
			return err
		}
	}
	return nil
}

// SessionConfig converts the session settings.
func (f *File) SessionConfig() furnish.SessionConfig {
	return furnish.SessionConfig{
		PreviewOpacity:    f.Session.PreviewOpacity,
		HighlightOpacity:  f.Session.HighlightOpacity,
		HighlightDuration: float32(f.Session.HighlightSeconds),
	}
}

// GestureConfig converts the gesture settings.
func (f *File) GestureConfig() furnish.GestureConfig {
	return furnish.GestureConfig(f.Gesture)
}
