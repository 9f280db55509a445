package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/joshuapare/heapkit/heap/alloc"
)

const envVarPrefix = "HEAPCTL"

// Config holds the defaults for the global flags. Every field can be set from
// the environment, e.g. HEAPCTL_REGION=anon.
type Config struct {
	Region  string `envconfig:"REGION"   default:"mem"`
	Path    string `envconfig:"PATH"     default:"heap.bin"`
	Limit   int    `envconfig:"LIMIT"    default:"0"`
	Reserve int    `envconfig:"RESERVE"  default:"67108864"`
	MinGrow uint32 `envconfig:"MIN_GROW" default:"4096"`
	JSON    bool   `envconfig:"JSON"     default:"false"`
	Verbose bool   `envconfig:"VERBOSE"  default:"false"`
}

// loadConfig reads HEAPCTL_* variables. On error the returned config still
// holds the built-in defaults.
func loadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return defaultConfig(), fmt.Errorf("loading %s_* environment: %w", envVarPrefix, err)
	}
	return c, nil
}

func defaultConfig() Config {
	return Config{
		Region:  regionMem,
		Path:    "heap.bin",
		Reserve: 64 << 20,
		MinGrow: alloc.DefaultMinGrowUnits,
	}
}
