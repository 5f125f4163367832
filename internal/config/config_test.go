package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv isolates a test from the caller's environment and any .env file
func clearEnv(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	for _, key := range []string{EnvBotToken, EnvChatID, EnvBaseURL, EnvDBPath, EnvLogLevel, EnvMetricsAddr} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.BaseURL != "https://projects.pervye.ru" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if c.FetchTimeout != 15*time.Second {
		t.Errorf("FetchTimeout = %v, want 15s", c.FetchTimeout)
	}
	if c.ProbeTimeout != 10*time.Second {
		t.Errorf("ProbeTimeout = %v, want 10s", c.ProbeTimeout)
	}
	if c.CheckInterval != 2*time.Hour {
		t.Errorf("CheckInterval = %v, want 2h", c.CheckInterval)
	}
	if c.SendDelay != time.Second {
		t.Errorf("SendDelay = %v, want 1s", c.SendDelay)
	}
	if c.MaxCards != 10 || c.MaxPerCycle != 3 {
		t.Errorf("MaxCards/MaxPerCycle = %d/%d, want 10/3", c.MaxCards, c.MaxPerCycle)
	}
	if c.DBPath != "events.db" {
		t.Errorf("DBPath = %q, want events.db", c.DBPath)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
base_url: https://staging.example.org
check_interval: 30m
send_delay: 250ms
max_per_cycle: 5
db_path: /tmp/from-yaml.db
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvBotToken, "token-123")
	t.Setenv(EnvChatID, "-100500")
	t.Setenv(EnvDBPath, "/tmp/from-env.db")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.BaseURL != "https://staging.example.org" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if c.CheckInterval != 30*time.Minute {
		t.Errorf("CheckInterval = %v, want 30m", c.CheckInterval)
	}
	if c.SendDelay != 250*time.Millisecond {
		t.Errorf("SendDelay = %v, want 250ms", c.SendDelay)
	}
	if c.MaxPerCycle != 5 {
		t.Errorf("MaxPerCycle = %d, want 5", c.MaxPerCycle)
	}
	if c.DBPath != "/tmp/from-env.db" {
		t.Errorf("DBPath = %q, env should override yaml", c.DBPath)
	}
	if c.BotToken != "token-123" || c.ChatID != "-100500" {
		t.Errorf("secrets = %q/%q", c.BotToken, c.ChatID)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)

	if err := os.WriteFile(".env", []byte("BOT_TOKEN=from-dotenv\nCHAT_ID=42\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set, even to ""
	os.Unsetenv(EnvBotToken)
	os.Unsetenv(EnvChatID)
	t.Cleanup(func() {
		os.Unsetenv(EnvBotToken)
		os.Unsetenv(EnvChatID)
	})

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.BotToken != "from-dotenv" || c.ChatID != "42" {
		t.Errorf("secrets = %q/%q, want values from .env", c.BotToken, c.ChatID)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("check_interval: [not a duration"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("Load() expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		chatID   string
		wantErrs []error
	}{
		{"both set", "t", "c", nil},
		{"missing token", "", "c", []error{ErrMissingBotToken}},
		{"missing chat", "t", "", []error{ErrMissingChatID}},
		{"both missing", "", "", []error{ErrMissingBotToken, ErrMissingChatID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{BotToken: tt.token, ChatID: tt.chatID}
			err := c.Validate()
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			for _, want := range tt.wantErrs {
				if !errors.Is(err, want) {
					t.Errorf("Validate() error = %v, want it to include %v", err, want)
				}
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
