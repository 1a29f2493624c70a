package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := isolateEnv(t)

	cfg := CLIConfig{
		APIKey:   "rapid-test-key",
		Database: "/var/lib/dreamdoor.db",
		Timezone: "America/Chicago",
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "dreamdoor", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not found: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	isolateEnv(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg != (CLIConfig{}) {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tmp := isolateEnv(t)

	path := filepath.Join(tmp, ".config", "dreamdoor", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("api_key: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("err = %v, want parsing error", err)
	}
}

func TestGetAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		alias   string
		saved   string
		want    string
	}{
		{"primary env", "primary", "alias", "saved", "primary"},
		{"alias env", "", "alias", "saved", "alias"},
		{"config file", "", "", "saved", "saved"},
		{"none", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(envAPIKey, tt.primary)
			t.Setenv(envAPIKeyAlias, tt.alias)
			if err := saveConfig(CLIConfig{APIKey: tt.saved}); err != nil {
				t.Fatalf("save: %v", err)
			}

			if got := getAPIKey(); got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetDBTarget(t *testing.T) {
	home := isolateEnv(t)
	flagDB = ""
	t.Cleanup(func() { flagDB = "" })

	got, err := getDBTarget()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if want := filepath.Join(home, ".dreamdoor", "dreamdoor.db"); got != want {
		t.Errorf("default = %q, want %q", got, want)
	}

	if err := saveConfig(CLIConfig{Database: "/from/config.db"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := getDBTarget(); got != "/from/config.db" {
		t.Errorf("config = %q", got)
	}

	t.Setenv(envDB, "postgres://localhost/dreamdoor")
	if got, _ := getDBTarget(); got != "postgres://localhost/dreamdoor" {
		t.Errorf("env = %q", got)
	}

	flagDB = "/from/flag.db"
	if got, _ := getDBTarget(); got != "/from/flag.db" {
		t.Errorf("flag = %q", got)
	}
}

func TestGetLocation(t *testing.T) {
	isolateEnv(t)
	flagTZ = ""
	t.Cleanup(func() { flagTZ = "" })

	loc, err := getLocation()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("default = %v, want UTC", loc)
	}

	t.Setenv(envTimezone, "America/Chicago")
	loc, err = getLocation()
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	if loc.String() != "America/Chicago" {
		t.Errorf("env = %v", loc)
	}

	flagTZ = "Mars/Olympus_Mons"
	if _, err := getLocation(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	isolateEnv(t)

	if _, err := executeCommand("config", "set", "api_key", "abcdefgh1234"); err != nil {
		t.Fatalf("set api_key: %v", err)
	}
	if _, err := executeCommand("config", "set", "timezone", "America/Denver"); err != nil {
		t.Fatalf("set timezone: %v", err)
	}

	out, err := executeCommand("config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "********1234") || strings.Contains(out, "abcdefgh") {
		t.Errorf("api key not masked: %q", out)
	}
	if !strings.Contains(out, "timezone: America/Denver") || !strings.Contains(out, "database: -") {
		t.Errorf("unexpected show output: %q", out)
	}
}

func TestConfigSetRejects(t *testing.T) {
	isolateEnv(t)

	if _, err := executeCommand("config", "set", "color", "blue"); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Errorf("unknown key: err = %v", err)
	}
	if _, err := executeCommand("config", "set", "timezone", "Nowhere/Special"); err == nil || !strings.Contains(err.Error(), "invalid timezone") {
		t.Errorf("bad timezone: err = %v", err)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"abcd", "****"},
		{"abcdef", "**cdef"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
