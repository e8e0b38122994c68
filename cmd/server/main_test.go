package main

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/logger"
)

func testConfig(t *testing.T, port string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "agri.db")
	cfg.NLP.UseLanguageModel = false
	cfg.LLM.APIKey = ""
	cfg.LLM.EmbeddingDim = 8
	cfg.Server.Port = port
	return cfg
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := serve(ctx, testConfig(t, "0"), logger.NewTestLogger(t))
	assert.NoError(t, err)
}

func TestServe_ReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()
	port := strconv.Itoa(busy.Addr().(*net.TCPAddr).Port)

	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), testConfig(t, port), logger.NewTestLogger(t)) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "could not listen on :"+port)
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept running after the listener failed")
	}
}
