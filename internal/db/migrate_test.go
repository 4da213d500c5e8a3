package db

import (
	"strings"
	"testing"

	"github.com/memohai/wagate/internal/config"
)

func TestRunMigrateRejectsBadInput(t *testing.T) {
	t.Parallel()

	cfg := config.PostgresConfig{Host: "localhost", Port: 5432, User: "wagate", Database: "wagate"}
	tests := []struct {
		name    string
		command string
		args    []string
		wantErr string
	}{
		{"unknown command", "invalid", nil, "unknown migrate command"},
		{"force without version", "force", nil, "requires a version"},
		{"force with junk version", "force", []string{"abc"}, "invalid version"},
		{"nil filesystem", "up", nil, "migrations filesystem"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := RunMigrate(nil, cfg, nil, tt.command, tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("RunMigrate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
