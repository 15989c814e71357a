package osm2stops

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// InputConfig describes where graph and stops come from
type InputConfig struct {
	// *.osm, *.xml, *.pbf or *.geojson
	Graph string `yaml:"graph" validate:"required"`
	// GeoJSON with Point features. Bus stops are taken from the OSM file itself when empty
	Stops string `yaml:"stops" validate:"omitempty"`
	// Property of stop features holding identifier
	StopIDProperty string `yaml:"stop_id_property" validate:"omitempty"`
	// OSM tag of bus stop nodes holding identifier (e.g. 'ref')
	StopIDTag string   `yaml:"stop_id_tag" validate:"omitempty"`
	Tags      []string `yaml:"tags" validate:"omitempty,dive,required"`
}

// OutputConfig describes where results go
type OutputConfig struct {
	Prefix string `yaml:"prefix" validate:"required"`
	Format string `yaml:"format" validate:"oneof=geojson csv"`
}

// InsertConfig holds options of the inserter
type InsertConfig struct {
	Splice       bool    `yaml:"splice"`
	KeepShape    bool    `yaml:"keep_shape"`
	BoundPruning bool    `yaml:"bound_pruning"`
	MaxDistance  float64 `yaml:"max_distance" validate:"gte=0"`
}

// Config is the root configuration structure
type Config struct {
	Input      InputConfig  `yaml:"input" validate:"required"`
	Output     OutputConfig `yaml:"output" validate:"required"`
	Insert     InsertConfig `yaml:"insert"`
	Projection Projection   `yaml:"projection" validate:"oneof=none epsg3857"`
	CheckRoute bool         `yaml:"check_route"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			StopIDProperty: "id",
		},
		Output: OutputConfig{
			Prefix: "out",
			Format: "geojson",
		},
		Insert: InsertConfig{
			Splice:       true,
			BoundPruning: true,
		},
		Projection: PROJECTION_EPSG3857,
	}
}

// LoadConfig reads YAML file on top of default values and validates the result
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "Can't read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "Can't parse config file")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks configuration values
func (cfg *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return errors.Wrap(err, "Invalid configuration")
	}
	return nil
}

// OsmConfiguration returns configuration for OSM loader
func (cfg *Config) OsmConfiguration() *OsmConfiguration {
	osmCfg := DefaultOsmConfiguration()
	if len(cfg.Input.Tags) > 0 {
		osmCfg.Tags = cfg.Input.Tags
	}
	osmCfg.StopIDTag = cfg.Input.StopIDTag
	osmCfg.Projection = cfg.Projection
	return osmCfg
}

// InserterOptions returns options for NewInserter
func (cfg *Config) InserterOptions() []func(*Inserter) {
	return []func(*Inserter){
		WithSplice(cfg.Insert.Splice),
		WithKeepShape(cfg.Insert.KeepShape),
		WithBoundPruning(cfg.Insert.BoundPruning),
		WithMaxDistance(cfg.Insert.MaxDistance),
	}
}
