package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"tracking_dsn", "host=db password=hunter2",
		"bucket", "reservations",
		"uri", "postgres://ml:pw@localhost:5432/runs",
		"dangling",
	})
	if got := kv[1]; got != "[REDACTED]" {
		t.Fatalf("tracking_dsn: want=[REDACTED] got=%v", got)
	}
	if got := kv[3]; got != "reservations" {
		t.Fatalf("bucket: want=reservations got=%v", got)
	}
	if got := kv[5]; got != "[REDACTED]" {
		t.Fatalf("uri: want=[REDACTED] got=%v", got)
	}
	if len(kv) != 7 {
		t.Fatalf("len: want=7 got=%d", len(kv))
	}
}

func TestNewWithOptionsWritesDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	log, err := NewWithOptions("production", Options{Dir: dir, Now: func() time.Time { return day }})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	log.Info("hello", "stage", "data_ingestion")
	log.Sync()

	b, err := os.ReadFile(filepath.Join(dir, "log_2024-03-09.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("log file is empty")
	}
}
