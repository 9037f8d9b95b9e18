package helpers

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestGetDumpName(t *testing.T) {
	name := GetDumpName(12)

	if !regexp.MustCompile(`^12-\d{8}-\d{6}\.dmp$`).MatchString(name) {
		t.Errorf("Expected <pid>-<timestamp>.dmp, got %s", name)
	}
}

func TestApplyDelay(t *testing.T) {
	start := time.Now()
	ApplyDelay("test", 20)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Expected at least 20ms, got %v", elapsed)
	}

	start = time.Now()
	ApplyDelay("test", 0)
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Expected no delay, got %v", elapsed)
	}
}

func TestCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps", "memoria")

	if err := CreateDirectory(dir); err != nil {
		t.Fatalf("Expected directory to be created, got %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected %s to be a directory", dir)
	}
	if err := CreateDirectory(dir); err != nil {
		t.Errorf("Expected existing directory to be accepted, got %v", err)
	}
}
