package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/salonbooker/salonbooker/internal/config"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

func TestBuildRedisClient(t *testing.T) {
	if BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Discard(), true) != nil {
		t.Fatal("expected nil client without address")
	}

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.Discard(), true)
	if client == nil {
		t.Fatal("expected client")
	}
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	if BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.Discard(), true) != nil {
		t.Fatal("expected nil client when ping fails")
	}
}

func TestBuildPostgresPoolRequiresURL(t *testing.T) {
	if _, err := BuildPostgresPool(context.Background(), &appconfig.Config{}); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestAsynqRedisOptTLS(t *testing.T) {
	opt := AsynqRedisOpt(&appconfig.Config{RedisAddr: "redis:6379", RedisPassword: "pw", RedisTLS: true})
	if opt.Addr != "redis:6379" || opt.Password != "pw" || opt.TLSConfig == nil {
		t.Fatalf("unexpected asynq opt %+v", opt)
	}
}
