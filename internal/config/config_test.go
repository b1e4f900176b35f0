package config

import (
	"os"
	"testing"
	"time"
)

func TestConfigLoad_Defaults(t *testing.T) {
	for _, k := range []string{"BUILD_TARGET", "DB_DRIVER", "EMBED_PROVIDER", "EMBED_MODEL", "WEAVIATE_URL", "SQLITE_PATH"} {
		_ = os.Unsetenv(EnvPrefix + "_" + k)
	}

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.VectorStore != "store" {
		t.Fatalf("unexpected local drivers: db=%s vector=%s", cfg.DBDriver, cfg.VectorStore)
	}
	if cfg.SQLitePath == "" {
		t.Fatalf("expected sqlite path to be derived")
	}
	if cfg.EmbedProvider != "ollama" || cfg.EmbedModel != "mxbai-embed-large" || cfg.EmbedDimensions != 1024 {
		t.Fatalf("unexpected default embed config: %+v", cfg)
	}
	if cfg.TurnTimeout != 45*time.Second {
		t.Fatalf("unexpected turn timeout: %s", cfg.TurnTimeout)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	t.Setenv(EnvPrefix+"_EMBED_MODEL", "test-model")
	t.Setenv(EnvPrefix+"_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.EmbedModel != "test-model" {
		t.Fatalf("embed model env override failed, got %s", cfg.EmbedModel)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected two kafka brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestConfigLoad_BootstrapTimeoutDefault(t *testing.T) {
	_ = os.Unsetenv(EnvPrefix + "_BOOTSTRAP_TIMEOUT_SECONDS")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.BootstrapTimeoutSeconds != 5 {
		t.Fatalf("unexpected default bootstrap timeout: %d", cfg.BootstrapTimeoutSeconds)
	}
}
