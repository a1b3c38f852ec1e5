package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a strategy file and returns the parsed config with the raw bytes
// kept for the run snapshot
func Load(path string) (*Config, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read strategy: %w", err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, raw, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, raw, nil
}

// Parse decodes one YAML document over Default() and validates it.
// Unknown keys and trailing documents are errors.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true) // 오타 필드는 즉시 실패
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("strategy file must hold a single YAML document")
	}

	normalizeTickers(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeTickers trims whitespace and upper-cases symbols ("abb.ns" -> "ABB.NS")
func normalizeTickers(cfg *Config) {
	for i, t := range cfg.Universe.Tickers {
		cfg.Universe.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
}

// Hash is the SHA-256 of the config's JSON encoding. Struct field order keeps it stable.
func Hash(cfg *Config) (string, error) {
	canonical, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode strategy: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// NewRunSnapshot records what a run was computed from
func NewRunSnapshot(cfg *Config, raw []byte, runID string) (*RunSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}
	return &RunSnapshot{
		ConfigHash: hash,
		ConfigYAML: string(raw),
		StrategyID: cfg.Meta.StrategyID,
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
