package server

import (
	"context"
	"testing"
	"time"

	"credential-auth-service/internal/security"
)

type nilDenylist struct{}

func (nilDenylist) Contains(context.Context, string) (bool, error) { return false, nil }

func TestNewRegistersHealthService(t *testing.T) {
	codec := security.NewTestTokenCodec(15*time.Minute, time.Hour)
	s, healthSrv := New(Deps{
		Codec:    codec,
		Denylist: nilDenylist{},
	})
	defer s.Stop()

	if healthSrv == nil {
		t.Fatal("health server not returned")
	}
	info := s.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Errorf("health service not registered, got services: %v", info)
	}
}
