package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Listen          string        `yaml:"listen"`
	LivenessTimeout time.Duration `yaml:"liveness_timeout"`
	SweepInterval   time.Duration `yaml:"sweep_interval"` // 0 disables the background sweep

	Worker WorkerConfig `yaml:"worker"`
}

// WorkerConfig drives the worker simulator binary.
type WorkerConfig struct {
	TrackerURL        string        `yaml:"tracker_url"`
	Name              string        `yaml:"name"`
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	HasGPU            bool          `yaml:"has_gpu"`
	GPUMemoryTotalMB  int64         `yaml:"gpu_memory_total_mb"`
	GPUMemoryFreeMB   int64         `yaml:"gpu_memory_free_mb"`
	Models            []WorkerModel `yaml:"models"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollWait          time.Duration `yaml:"poll_wait"`
	JobDuration       time.Duration `yaml:"job_duration"` // simulated inference time
}

// WorkerModel is one model the worker advertises.
type WorkerModel struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Framework string `yaml:"framework"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Listen:          ":8080",
		LivenessTimeout: 30 * time.Second,
		SweepInterval:   5 * time.Second,
		Worker: WorkerConfig{
			TrackerURL:       "http://localhost:8080",
			Name:             "gpu-worker-1",
			Host:             "localhost",
			Port:             9001,
			HasGPU:           true,
			GPUMemoryTotalMB: 8000,
			GPUMemoryFreeMB:  6000,
			Models: []WorkerModel{
				{Name: "resnet50", Framework: "pytorch"},
			},
			HeartbeatInterval: 10 * time.Second,
			PollInterval:      2 * time.Second,
			PollWait:          15 * time.Second,
			JobDuration:       3 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
