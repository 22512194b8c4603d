package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port         int                `json:"port"`
	JWTSecret    string             `json:"jwt_secret"`
	JWTTTLHours  int                `json:"jwt_ttl_hours"`
	CORSOrigins  []string           `json:"cors_origins"`
	LogConfig    logger.LogConfig   `json:"log_config"`
	Database     DatabaseConfig     `json:"database"`
	FileStore    FileStoreConfig    `json:"file_store"`
	AI           AIConfig           `json:"ai"`
	Confidential ConfidentialConfig `json:"confidential"`
	Chunking     ChunkingConfig     `json:"chunking"`
	Jobs         JobsConfig         `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	EmbedProvider string      `json:"embed_provider"`
	EmbedData     interface{} `json:"embed_data"`
	EmbedModel    string      `json:"embed_model"`
	EmbedDim      int         `json:"embed_dim"`
	ChatProvider  string      `json:"chat_provider"`
	ChatData      interface{} `json:"chat_data"`
	ChatModel     string      `json:"chat_model"`
	Timeout       int         `json:"timeout"`
}

type ConfidentialConfig struct {
	RequireAttestation bool        `json:"require_attestation"`
	AttestProvider     string      `json:"attest_provider"`
	AttestData         interface{} `json:"attest_data"`
	MasterKey          string      `json:"master_key"`
}

type ChunkingConfig struct {
	MinSize int `json:"min_size"`
	MaxSize int `json:"max_size"`
	Overlap int `json:"overlap"`
}

type JobsConfig struct {
	StaleDocSpec     string `json:"stale_doc_spec"`
	ChunkPurgeSpec   string `json:"chunk_purge_spec"`
	StaleAfterMinute int    `json:"stale_after_minute"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/db_name is required")
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.EmbedProvider == "" {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	if cfg.AI.ChatProvider == "" {
		return nil, fmt.Errorf("ai.chat_provider is required")
	}
	if cfg.AI.EmbedDim == 0 {
		return nil, fmt.Errorf("ai.embed_dim is required")
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.Confidential.MasterKey == "" {
		return nil, fmt.Errorf("confidential.master_key is required")
	}
	if raw, err := base64.StdEncoding.DecodeString(cfg.Confidential.MasterKey); err != nil || len(raw) == 0 {
		return nil, fmt.Errorf("confidential.master_key must be non-empty base64")
	}
	if cfg.Confidential.AttestProvider == "" {
		cfg.Confidential.AttestProvider = "static"
	}
	if cfg.Chunking.MinSize == 0 {
		cfg.Chunking.MinSize = 800
	}
	if cfg.Chunking.MaxSize == 0 {
		cfg.Chunking.MaxSize = 1200
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 100
	}
	// A non-positive advance would stall the chunk loop, reject it here
	// rather than clamping silently.
	if cfg.Chunking.Overlap >= cfg.Chunking.MaxSize {
		return nil, fmt.Errorf("chunking.overlap must be smaller than chunking.max_size")
	}
	if cfg.Chunking.MinSize > cfg.Chunking.MaxSize {
		return nil, fmt.Errorf("chunking.min_size must not exceed chunking.max_size")
	}
	if cfg.Jobs.StaleDocSpec == "" {
		cfg.Jobs.StaleDocSpec = "*/10 * * * *"
	}
	if cfg.Jobs.ChunkPurgeSpec == "" {
		cfg.Jobs.ChunkPurgeSpec = "30 * * * *"
	}
	if cfg.Jobs.StaleAfterMinute == 0 {
		cfg.Jobs.StaleAfterMinute = 30
	}
	return &cfg, nil
}
