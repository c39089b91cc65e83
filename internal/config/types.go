package config

// Limits defines operational boundaries for the decision loop and the
// orchestrator's task queue.
type Limits struct {
	MaxMemories    int `yaml:"max_memories"`
	RecentMemories int `yaml:"recent_memories"`
	RetryCeiling   int `yaml:"retry_ceiling"`
	MaxRetries     int `yaml:"max_retries"`
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// Config represents the .pipewright/config.yaml file.
type Config struct {
	StateDir string `yaml:"state_dir"`
	Limits   Limits `yaml:"limits"`
}
