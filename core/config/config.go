package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/courierbus/courier/core/logger"
)

// Library defaults, used when neither a config file nor the environment
// says otherwise.
const (
	DefaultPubAddr = "tcp://127.0.0.1:6000"
	DefaultSubAddr = "tcp://127.0.0.1:6001"

	// DefaultCluster is the cluster section Load resolves.
	DefaultCluster = "data"

	fileName = "courier.yaml"
)

// Addresses holds the three opaque broker endpoints a process needs:
// the publisher-facing address, the subscriber-facing address, and the
// optional debug mirror address (empty disables the mirror).
type Addresses struct {
	PubAddr   string `yaml:"pub_addr" env:"COURIER_PUB_ADDR"`
	SubAddr   string `yaml:"sub_addr" env:"COURIER_SUB_ADDR"`
	DebugAddr string `yaml:"debug_addr" env:"COURIER_DEBUG_ADDR"`
}

// File is the on-disk layout: named cluster sections, each holding one
// address set.
//
//	clusters:
//	  data:
//	    pub_addr: "tcp://10.0.0.5:6000"
//	    sub_addr: "tcp://10.0.0.5:6001"
//	  exec:
//	    pub_addr: "tcp://10.0.0.9:6000"
//	    sub_addr: "tcp://10.0.0.9:6001"
type File struct {
	Clusters map[string]Addresses `yaml:"clusters"`
}

// Option configures address loading.
type Option func(*options)

type options struct {
	path   string
	logger *slog.Logger
}

// WithPath pins the config file location instead of searching the default
// locations.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithLogger configures structured logging for fallback warnings. The
// default logger discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

var loadDotEnv sync.Once

// Load resolves addresses for the default cluster. See LoadCluster.
func Load(opts ...Option) (Addresses, error) {
	return LoadCluster(DefaultCluster, opts...)
}

// LoadCluster resolves the addresses for a named cluster, layering three
// sources: library defaults, then the cluster's section in the config
// file, then environment variables. A missing file or missing section
// falls back with a warning and is never an error; an unreadable or
// malformed file is.
//
// Without WithPath the file is searched in order: ./courier.yaml,
// $HOME/.config/courier/courier.yaml, /etc/courier/courier.yaml.
func LoadCluster(cluster string, opts ...Option) (Addresses, error) {
	o := &options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(o)
	}

	loadDotEnv.Do(func() {
		_ = godotenv.Load()
	})

	addrs := Addresses{
		PubAddr: DefaultPubAddr,
		SubAddr: DefaultSubAddr,
	}

	if path := findFile(o.path); path == "" {
		o.logger.Warn("no configuration file found, continuing with library defaults")
	} else {
		file, err := readFile(path)
		if err != nil {
			return Addresses{}, err
		}
		section, ok := file.Clusters[cluster]
		if !ok {
			o.logger.Warn("configuration file has no section for cluster, continuing with library defaults",
				slog.String("cluster", cluster),
				slog.String("path", path),
			)
		} else {
			if section.PubAddr != "" {
				addrs.PubAddr = section.PubAddr
			}
			if section.SubAddr != "" {
				addrs.SubAddr = section.SubAddr
			}
			if section.DebugAddr != "" {
				addrs.DebugAddr = section.DebugAddr
			}
		}
	}

	if err := env.Parse(&addrs); err != nil {
		return Addresses{}, fmt.Errorf("config: parse environment: %w", err)
	}

	o.logger.Debug("addresses resolved",
		slog.String("cluster", cluster),
		logger.Endpoint(addrs.PubAddr),
	)
	return addrs, nil
}

// findFile returns the first existing config file, or "" when none exists.
func findFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{fileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "courier", fileName))
	}
	candidates = append(candidates, filepath.Join("/etc", "courier", fileName))
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func readFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return file, nil
}
