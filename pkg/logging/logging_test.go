package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetupLogger(tt.verbosity)

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("SetupLogger(%d) set level to %v, want %v",
					tt.verbosity, zerolog.GlobalLevel(), tt.wantLevel)
			}
		})
	}
}

func TestSetupLoggerWithFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "plugfs", "plugfs.log")

	SetupLoggerWithFile(1, logPath)

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Errorf("Log file was not created at %s", logPath)
	}
}

func TestGetLogger(t *testing.T) {
	SetupLogger(1)
	logger := GetLogger("storage.registry")

	// The component logger must be usable without panicking
	logger.Info().Str("storage", "mymod").Msg("test message")
}
