package serverrun

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/rzbill/calclog/internal/config"
	logpkg "github.com/rzbill/calclog/pkg/log"
)

func testConfig() cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	return cfg
}

func TestRunServesAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			Config:   testConfig(),
			InMemory: true,
			Logger:   logpkg.NewNopLogger(),
			Ready:    func(h, _ net.Addr) { ready <- h },
		})
	}()

	var addr net.Addr
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server not ready")
	}

	base := "http://" + addr.String()
	resp, err := http.Post(base+"/api/logs", "application/json", strings.NewReader(`{"expression":"3*4"}`))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Equal(t, "Expression evaluated to 12", out["message"])

	resp, err = http.Get(base + "/")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Hello from the Calculator Log API!", string(b))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Fsync = "sometimes"
	err := Run(context.Background(), Options{Config: cfg, InMemory: true, Logger: logpkg.NewNopLogger()})
	assert.Error(t, err)
}

func TestRunFailsWhenPortTaken(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := testConfig()
	cfg.HTTPAddr = l.Addr().String()
	err = Run(context.Background(), Options{Config: cfg, InMemory: true, Logger: logpkg.NewNopLogger()})
	assert.Error(t, err)
}
