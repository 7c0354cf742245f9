package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_DIR", "SIM_SEED", "FORFEIT_CHANCE", "POINTS_PER_QUARTER", "TOURNAMENT_START",
		"BATCH_RUNS", "BATCH_WORKERS", "SERVER_PORT", "LOG_LEVEL", "DATABASE_URL", "JWT_SECRET_KEY",
	} {
		t.Setenv(k, "")
	}
	// Equivalent of t.Chdir (Go 1.24+): switch directory, restore on cleanup.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestRunPrintsReport(t *testing.T) {
	cleanEnv(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-seed", "2024"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}

	out := stdout.String()
	for _, section := range []string{"Group stage - round I:", "Quarterfinals:", "Final:", "Medals:"} {
		if !strings.Contains(out, section) {
			t.Errorf("report is missing %q", section)
		}
	}

	var again bytes.Buffer
	run([]string{"-seed", "2024", "run"}, &again, &stderr)
	if again.String() != out {
		t.Errorf("same seed printed a different report")
	}
}

func TestRunBatchPrintsMedalTable(t *testing.T) {
	cleanEnv(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-seed", "3", "-runs", "5", "batch"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "Medals over 5 runs\n") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}

func TestRunExitCodes(t *testing.T) {
	badData := t.TempDir()
	if err := os.WriteFile(filepath.Join(badData, "groups.json"), []byte(`{"A": [`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badData, "exibitions.json"), []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want int
	}{
		{"unknown mode", []string{"replay"}, nil, exitUsage},
		{"two modes", []string{"run", "batch"}, nil, exitUsage},
		{"bad flag", []string{"-speed", "1"}, nil, exitUsage},
		{"runs out of range", []string{"-runs", "0", "batch"}, nil, exitUsage},
		{"bad config", nil, map[string]string{"FORFEIT_CHANCE": "150"}, exitUsage},
		{"missing data dir", []string{"-data", filepath.Join(badData, "missing")}, nil, exitInputData},
		{"malformed fixtures", []string{"-data", badData}, nil, exitInputData},
		{"help", []string{"-h"}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.want {
				t.Errorf("exit code = %d, want %d; stderr:\n%s", code, tt.want, stderr.String())
			}
		})
	}
}
