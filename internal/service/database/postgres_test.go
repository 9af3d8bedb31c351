package database

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/pkg/errors"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  PostgresConfig
		want string
	}{
		{
			name: "plain",
			cfg:  PostgresConfig{Host: "db", Port: 5432, User: "trends", Password: "secret", Database: "trends"},
			want: "host=db port=5432 user=trends password=secret dbname=trends sslmode=disable",
		},
		{
			name: "quoted password",
			cfg:  PostgresConfig{Host: "db", Port: 5433, User: "u", Password: `it's a pass\word`, Database: "d", SSLMode: "require"},
			want: `host=db port=5433 user=u password='it\'s a pass\\word' dbname=d sslmode=require`,
		},
		{
			name: "empty password omitted",
			cfg:  PostgresConfig{Host: "db", Port: 5432, User: "u", Database: "d"},
			want: "host=db port=5432 user=u dbname=d sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Fatalf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := PostgresConfig{MaxOpenConns: 1, MaxIdleConns: 4}.withDefaults()
	if cfg.MaxOpenConns != 1 || cfg.MaxIdleConns != 1 {
		t.Fatalf("idle pool must not exceed open pool: %+v", cfg)
	}
	if cfg.ConnMaxLifetime != defaultConnMaxLifetime || cfg.PingTimeout != defaultPingTimeout {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestNewPostgresServiceWithDB(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectPing()

	ps, err := NewPostgresServiceWithDB(context.Background(), db, PostgresConfig{MaxOpenConns: 3, PingTimeout: time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.GetDB() != db {
		t.Fatalf("service should wrap the given handle")
	}
	if got := db.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("max open connections = %d, want 3", got)
	}

	mock.ExpectClose()
	if err := ps.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNewPostgresServiceWithDBPingFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	cause := stderrors.New("connection refused")
	mock.ExpectPing().WillReturnError(cause)

	_, err = NewPostgresServiceWithDB(context.Background(), db, PostgresConfig{}, zap.NewNop())
	var svcErr *errors.ServiceError
	if !stderrors.As(err, &svcErr) || svcErr.Operation != "ping" || !stderrors.Is(err, cause) {
		t.Fatalf("expected ping service error, got %v", err)
	}
}
