package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for _, dir := range []string{"out", "state", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	content := fmt.Sprintf(`[paths]
output_dir = %q
state_dir = %q
log_dir = %q

[conversion]
formats = ["parquet", "csv"]

[decoder]
binary = "sh"
`, filepath.Join(base, "out"), filepath.Join(base, "state"), filepath.Join(base, "logs"))

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAddAndListCommands(t *testing.T) {
	configPath := writeTestConfig(t)

	srcDir := t.TempDir()
	source := filepath.Join(srcDir, "braking_run.udf")
	if err := os.WriteFile(source, []byte("measurement"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, configPath, "add", source)
	if err != nil {
		t.Fatalf("add: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Queued braking_run.udf") {
		t.Errorf("add output missing confirmation: %s", output)
	}

	// Each invocation builds a fresh root command, like separate CLI calls.
	output, err = runCommand(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Braking Run") || !strings.Contains(output, "queued") {
		t.Errorf("list output missing item: %s", output)
	}
}

func TestAddRejectsUnknownExtensions(t *testing.T) {
	configPath := writeTestConfig(t)

	srcDir := t.TempDir()
	source := filepath.Join(srcDir, "notes.txt")
	if err := os.WriteFile(source, []byte("not a measurement"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, configPath, "add", source)
	if err != nil {
		t.Fatalf("add: %v\n%s", err, output)
	}
	if !strings.Contains(output, "not a UDF or BIN file") {
		t.Errorf("expected extension rejection, got: %s", output)
	}

	output, err = runCommand(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Queue is empty") {
		t.Errorf("queue should be empty: %s", output)
	}
}

func TestConfigShowCommand(t *testing.T) {
	configPath := writeTestConfig(t)

	output, err := runCommand(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, output)
	}
	for _, want := range []string{"output_dir", "parquet, csv", "decoder_binary"} {
		if !strings.Contains(output, want) {
			t.Errorf("config show missing %q:\n%s", want, output)
		}
	}
}
