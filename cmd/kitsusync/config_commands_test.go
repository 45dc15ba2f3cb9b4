package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	res := runCLI(t, "config", "init", "--path", target)
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr %q", res.code, res.stderr)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[kitsu]") {
		t.Fatalf("sample config missing [kitsu] section")
	}

	again := runCLI(t, "config", "init", "--path", target)
	if again.code == 0 || !strings.Contains(again.stderr, "already exists") {
		t.Fatalf("expected refusal to overwrite, got code %d stderr %q", again.code, again.stderr)
	}

	forced := runCLI(t, "config", "init", "--path", target, "--overwrite")
	if forced.code != 0 {
		t.Fatalf("overwrite exit code = %d, stderr %q", forced.code, forced.stderr)
	}
}

func TestConfigValidate(t *testing.T) {
	env := newTestEnv(t, "https://kitsu.example.com/api", "")

	res := runCLI(t, "--config", env.configPath, "config", "validate")
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr %q", res.code, res.stderr)
	}
	for _, want := range []string{env.configPath, "https://kitsu.example.com/api", "Configuration valid"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("expected %q in output %q", want, res.stdout)
		}
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := newTestEnv(t, "https://kitsu.example.com/api", "")

	res := runCLI(t, "--config", env.configPath, "test-notify")
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr %q", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "not sent") {
		t.Fatalf("unexpected output %q", res.stdout)
	}
}

func TestHistoryDisabledLedger(t *testing.T) {
	env := newTestEnv(t, "https://kitsu.example.com/api", "\n[ledger]\nenabled = false\n")

	res := runCLI(t, "--config", env.configPath, "history")
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr %q", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "disabled") {
		t.Fatalf("unexpected output %q", res.stdout)
	}
}

func TestDoctorReportsChecks(t *testing.T) {
	server := newKitsuServer(t, http.StatusOK)
	env := newTestEnv(t, server.URL, "")

	res := runCLI(t, "--config", env.configPath, "doctor")
	for _, want := range []string{"== Preflight ==", "Kitsu API", "[OK]"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("expected %q in doctor output %q", want, res.stdout)
		}
	}
}
