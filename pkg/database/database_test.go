package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/ineed/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{Name: "ineed", User: "ineed"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"app_name", cfg.AppName, "ineed"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetimeDuration(), 15 * time.Minute},
		{"conn_timeout", cfg.ConnTimeoutDuration(), 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "6543")
	t.Setenv("TEST_DB_NAME", "marketplace")
	t.Setenv("TEST_DB_USER", "svc")
	t.Setenv("TEST_DB_MAX_OPEN", "40")
	t.Setenv("TEST_DB_TIMEOUT", "2s")

	cfg := database.Config{}
	err := cfg.Finalize(&database.Env{
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		Name:         "TEST_DB_NAME",
		User:         "TEST_DB_USER",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
		ConnTimeout:  "TEST_DB_TIMEOUT",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.Host != "db.internal" || cfg.Port != 6543 || cfg.Name != "marketplace" || cfg.User != "svc" {
		t.Errorf("got %+v", cfg)
	}
	if cfg.MaxOpenConns != 40 || cfg.ConnTimeout != "2s" {
		t.Errorf("got %+v", cfg)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"missing name", database.Config{User: "u"}, "name required"},
		{"missing user", database.Config{Name: "n"}, "user required"},
		{"idle above open", database.Config{Name: "n", User: "u", MaxOpenConns: 2, MaxIdleConns: 4}, "max_idle_conns"},
		{"bad lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "soon"}, "invalid conn_max_lifetime"},
		{"bad timeout", database.Config{Name: "n", User: "u", ConnTimeout: "x"}, "invalid conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "ineed", User: "ineed"}
	base.Merge(&database.Config{Host: "primary", MaxOpenConns: 50})

	if base.Host != "primary" || base.MaxOpenConns != 50 {
		t.Errorf("overlay not applied: %+v", base)
	}
	if base.Port != 5432 || base.Name != "ineed" {
		t.Errorf("base clobbered: %+v", base)
	}
}

func TestDsn(t *testing.T) {
	cfg := database.Config{Host: "h", Port: 1, Name: "n", User: "u", Password: "p", SSLMode: "disable", AppName: "ineed"}
	want := "host=h port=1 dbname=n user=u password=p sslmode=disable application_name=ineed"
	if got := cfg.Dsn(); got != want {
		t.Errorf("Dsn() = %q", got)
	}
}

func TestNewDefersConnection(t *testing.T) {
	cfg := database.Config{Name: "ineed", User: "ineed", Port: 1}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sys.Connection() == nil {
		t.Fatal("Connection() returned nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := sys.Dial(ctx); err == nil {
		t.Error("Dial to closed port succeeded")
	}

	if err := database.Ping(ctx, sys.Connection()); !errors.Is(err, database.ErrNotReady) {
		t.Errorf("Ping err = %v, want ErrNotReady", err)
	}
}
