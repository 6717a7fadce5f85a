// Package config handles svotool configuration loading and management.
package config

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/voxelsplace/svo/internal/logger"
	"github.com/voxelsplace/svo/morton"
	"github.com/voxelsplace/svo/svo"
	"github.com/voxelsplace/svo/svofile"
)

// Config holds all svotool settings.
type Config struct {
	Build   BuildConfig   `yaml:"build" toml:"build"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// BuildConfig holds voxelization settings.
type BuildConfig struct {
	VoxelSize float32 `yaml:"voxel_size" toml:"voxel_size"`
	// MaxDepth 0 derives the depth from the scene bounds.
	MaxDepth     int           `yaml:"max_depth" toml:"max_depth"`
	Connectivity string        `yaml:"connectivity" toml:"connectivity"`
	Bounds       *BoundsConfig `yaml:"bounds,omitempty" toml:"bounds,omitempty"`
}

// BoundsConfig fixes the voxelized volume instead of fitting it to the input.
type BoundsConfig struct {
	Min []float32 `yaml:"min" toml:"min"`
	Max []float32 `yaml:"max" toml:"max"`
}

// OutputConfig holds .svo writer settings.
type OutputConfig struct {
	Compression string `yaml:"compression" toml:"compression"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			VoxelSize:    1,
			Connectivity: svo.Face6.String(),
		},
		Output: OutputConfig{
			Compression: svofile.CompZstd.String(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	v := float64(c.Build.VoxelSize)
	if !(v > 0) || math.IsInf(v, 0) {
		errs = multierr.Append(errs, fmt.Errorf("build.voxel_size must be positive, got %v", c.Build.VoxelSize))
	}
	if c.Build.MaxDepth < 0 || c.Build.MaxDepth > morton.MaxDepth {
		errs = multierr.Append(errs, fmt.Errorf("build.max_depth must be in [0, %d], got %d", morton.MaxDepth, c.Build.MaxDepth))
	}
	if _, err := svo.ParseConnectivity(c.Build.Connectivity); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("build.connectivity: %w", err))
	}
	if b := c.Build.Bounds; b != nil {
		switch {
		case len(b.Min) != 3 || len(b.Max) != 3:
			errs = multierr.Append(errs, fmt.Errorf("build.bounds needs three components for min and max"))
		case b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]:
			errs = multierr.Append(errs, fmt.Errorf("build.bounds min %v exceeds max %v", b.Min, b.Max))
		}
	}
	if _, err := svofile.ParseCompression(c.Output.Compression); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("output.compression: %w", err))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errs
}

// BuilderOptions translates the build section into octree builder options.
func (c *Config) BuilderOptions(log *zap.Logger) ([]svo.Option, error) {
	conn, err := svo.ParseConnectivity(c.Build.Connectivity)
	if err != nil {
		return nil, err
	}
	opts := []svo.Option{svo.WithConnectivity(conn), svo.WithLogger(log)}
	if c.Build.MaxDepth > 0 {
		opts = append(opts, svo.WithMaxDepth(uint8(c.Build.MaxDepth)))
	}
	if b := c.Build.Bounds; b != nil && len(b.Min) == 3 && len(b.Max) == 3 {
		opts = append(opts, svo.WithBounds(
			mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]},
			mgl32.Vec3{b.Max[0], b.Max[1], b.Max[2]},
		))
	}
	return opts, nil
}

// Compression returns the configured .svo codec.
func (c *Config) Compression() (svofile.Compression, error) {
	return svofile.ParseCompression(c.Output.Compression)
}

// LoggerOptions returns the logger settings with file rotation defaults.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.Options{Level: c.Logging.Level}
	if c.Logging.File != "" {
		opts.File = logger.DefaultFileConfig(c.Logging.File)
	}
	return opts
}
