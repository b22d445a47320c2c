package config

import "runtime"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.SourcePath == "" {
		cfg.Storage.SourcePath = "/usr/local/var/kazoeru/data/lds-scriptures.json"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/kazoeru/data/index/frequency.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kazoeru/data/db/verses.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/kazoeru/data/indices/bleve"
	}
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = runtime.NumCPU()
	}
	if cfg.Build.Concordance == nil {
		t := true
		cfg.Build.Concordance = &t
	}
	if cfg.Query.DefaultGranularity == "" {
		cfg.Query.DefaultGranularity = "all"
	}
	if cfg.Query.ConcordanceLimit == 0 {
		cfg.Query.ConcordanceLimit = 20
	}
	if cfg.Query.MaxConcordanceLimit == 0 {
		cfg.Query.MaxConcordanceLimit = 500
	}
	if cfg.Query.ConcordanceLimit > cfg.Query.MaxConcordanceLimit {
		cfg.Query.ConcordanceLimit = cfg.Query.MaxConcordanceLimit
	}
}
