// Package config merges defaults, an optional YAML file and command-line
// flags into scan options.
//
// # Precedence
//
//	explicit flag  >  config file  >  built-in default
//
// Keys are spelled like the long flags they back (min-size, include-ext, ...),
// so the same name works on the command line and in config.yaml:
//
//	min-size: 10K
//	exclude-ext: [.sys, .dll, .tmp]
//	perceptual: true
//	threshold: 6
package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ivoronin/dupekeeper/internal/engine"
)

// Keys shared by flags and the config file.
const (
	KeyLogLevel       = "log-level"
	KeyQuarantineRoot = "quarantine-root"
	KeyMinSize        = "min-size"
	KeyIncludeExt     = "include-ext"
	KeyExcludeExt     = "exclude-ext"
	KeyInclude        = "include"
	KeyExclude        = "exclude"
	KeyPerceptual     = "perceptual"
	KeyMetric         = "metric"
	KeyThreshold      = "threshold"
	KeyWorkers        = "workers"
	KeyDigest         = "digest"
	KeyCacheFile      = "cache-file"
)

// Config is the merged configuration.
type Config struct {
	LogLevel       string   `mapstructure:"log-level"`
	QuarantineRoot string   `mapstructure:"quarantine-root"`
	MinSize        string   `mapstructure:"min-size"`
	IncludeExt     []string `mapstructure:"include-ext"`
	ExcludeExt     []string `mapstructure:"exclude-ext"`
	Include        []string `mapstructure:"include"`
	Exclude        []string `mapstructure:"exclude"`
	Perceptual     bool     `mapstructure:"perceptual"`
	Metric         string   `mapstructure:"metric"`
	Threshold      int      `mapstructure:"threshold"`
	Workers        int      `mapstructure:"workers"`
	Digest         string   `mapstructure:"digest"`
	CacheFile      string   `mapstructure:"cache-file"`
}

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	d := engine.DefaultOptions()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyQuarantineRoot, d.QuarantineRoot)
	v.SetDefault(KeyMinSize, strconv.FormatInt(d.MinSize, 10))
	v.SetDefault(KeyIncludeExt, d.IncludeExts)
	v.SetDefault(KeyExcludeExt, d.ExcludeExts)
	v.SetDefault(KeyInclude, d.IncludeGlobs)
	v.SetDefault(KeyExclude, d.ExcludeGlobs)
	v.SetDefault(KeyPerceptual, d.Perceptual)
	v.SetDefault(KeyMetric, d.Metric)
	v.SetDefault(KeyThreshold, d.Threshold)
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyDigest, d.Digest)
	v.SetDefault(KeyCacheFile, d.CacheFile)
}

// Load reads configuration into v and returns the merged result.
//
// With an empty file, config.yaml is looked up in $HOME/.dupekeeper and the
// working directory; not finding one is not an error. An explicit file must
// exist. flags may be nil.
func Load(v *viper.Viper, file string, flags *pflag.FlagSet) (*Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.dupekeeper")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Options converts the configuration into scan options for root.
// The result is not validated; engine.New does that.
func (c *Config) Options(root string) (engine.Options, error) {
	minSize, err := ParseSize(c.MinSize)
	if err != nil {
		return engine.Options{}, fmt.Errorf("invalid %s: %w", KeyMinSize, err)
	}

	return engine.Options{
		Root:           root,
		QuarantineRoot: c.QuarantineRoot,
		MinSize:        minSize,
		IncludeExts:    c.IncludeExt,
		ExcludeExts:    c.ExcludeExt,
		IncludeGlobs:   c.Include,
		ExcludeGlobs:   c.Exclude,
		Perceptual:     c.Perceptual,
		Metric:         c.Metric,
		Threshold:      c.Threshold,
		Workers:        c.Workers,
		Digest:         c.Digest,
		CacheFile:      c.CacheFile,
	}, nil
}

// ParseSize parses a human-readable size string into bytes.
// Supports formats: "100", "1K", "1MB", "1GiB", etc.
func ParseSize(s string) (int64, error) {
	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(bytes), nil
}
