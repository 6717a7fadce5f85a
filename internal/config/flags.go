package config

import "flag"

// Flags holds the global command line overrides.
type Flags struct {
	Config       string
	LogLevel     string
	LogFile      string
	VoxelSize    float64
	MaxDepth     int
	Connectivity string
	Compression  string
}

// RegisterFlags defines the global flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml or .toml)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write JSON logs to this rotating file")
	fs.Float64Var(&f.VoxelSize, "voxel", 0, "Voxel edge length")
	fs.IntVar(&f.MaxDepth, "depth", 0, "Fixed tree depth, 0 fits the scene")
	fs.StringVar(&f.Connectivity, "connectivity", "", "Successor neighbourhood: 6 or 26")
	fs.StringVar(&f.Compression, "compression", "", "Output codec: none, zlib, zstd, auto")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Logging.File = f.LogFile
	}
	if f.VoxelSize > 0 {
		cfg.Build.VoxelSize = float32(f.VoxelSize)
	}
	if f.MaxDepth > 0 {
		cfg.Build.MaxDepth = f.MaxDepth
	}
	if f.Connectivity != "" {
		cfg.Build.Connectivity = f.Connectivity
	}
	if f.Compression != "" {
		cfg.Output.Compression = f.Compression
	}
}
