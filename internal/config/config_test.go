package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Timeout != 60*time.Second || cfg.SERP.Timeout != 15*time.Second {
		t.Errorf("unexpected timeouts %v / %v", cfg.OpenAI.Timeout, cfg.SERP.Timeout)
	}
	if cfg.SERP.Engine != "google" || cfg.SERP.Results != 10 {
		t.Errorf("unexpected serp defaults %+v", cfg.SERP)
	}
	if cfg.Generation.MaxAttempts != 3 || cfg.Generation.BackoffUnit != time.Second {
		t.Errorf("unexpected generation defaults %+v", cfg.Generation)
	}
	if cfg.OutputPath() != "seo_elements_results.csv" {
		t.Errorf("unexpected output path %q", cfg.OutputPath())
	}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Errorf("expected missing api key to be reported")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEOGEN_OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("SEOGEN_SERP_ENGINE", "duckduckgo")
	t.Setenv("SEOGEN_GENERATION_BACKOFF_UNIT", "250ms")
	t.Setenv("SEOGEN_OUTPUT_FORMAT", "docx")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" || cfg.SERP.Engine != "duckduckgo" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Generation.BackoffUnit != 250*time.Millisecond {
		t.Errorf("expected 250ms backoff unit, got %v", cfg.Generation.BackoffUnit)
	}
	if cfg.OpenAI.APIKey.Value() != "sk-fallback" {
		t.Errorf("expected OPENAI_API_KEY fallback")
	}
	if cfg.OutputPath() != "seo_elements_results.docx" {
		t.Errorf("unexpected output path %q", cfg.OutputPath())
	}
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Setenv("SEOGEN_OPENAI_API_KEY", "sk-primary")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenAI.APIKey.Value() != "sk-primary" {
		t.Errorf("expected SEOGEN_OPENAI_API_KEY to win")
	}
}

func TestLoad_Invalid(t *testing.T) {
	v := newViper()
	v.Set("serp.engine", "altavista")
	v.Set("generation.max_attempts", 0)
	v.Set("output.format", "pdf")

	_, err := Load(v)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"serp.engine", "generation.max_attempts", "output.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestLoad_MaxAttemptsBounds(t *testing.T) {
	v := newViper()
	v.Set("generation.max_attempts", MaxAttempts)
	if _, err := Load(v); err != nil {
		t.Fatalf("expected %d attempts to be accepted: %v", MaxAttempts, err)
	}

	v.Set("generation.max_attempts", 40)
	_, err := Load(v)
	if err == nil || !strings.Contains(err.Error(), "generation.max_attempts") {
		t.Fatalf("expected max_attempts bound error, got %v", err)
	}
}

func TestSecret_Redacted(t *testing.T) {
	s := Secret("sk-very-secret")

	if got := fmt.Sprintf("%v %s", s, s); strings.Contains(got, "sk-very") {
		t.Errorf("secret leaked through fmt: %q", got)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("config", "api_key", s)
	if strings.Contains(buf.String(), "sk-very") {
		t.Errorf("secret leaked through slog: %s", buf.String())
	}
	if !strings.Contains(buf.String(), redacted) {
		t.Errorf("expected redaction marker in log output")
	}
	if Secret("").String() != "" {
		t.Errorf("expected empty secret to print empty")
	}
}
