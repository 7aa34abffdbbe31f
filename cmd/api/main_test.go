package main

import (
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_ListenFailureIsReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	done := make(chan error, 1)
	go func() { done <- serve(srv, make(chan os.Signal), time.Second) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), ln.Addr().String())
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestServe_SignalShutsDownCleanly(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	quit := make(chan os.Signal, 1)
	quit <- syscall.SIGTERM

	assert.NoError(t, serve(srv, quit, time.Second))
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", logLevel("debug").String())
	assert.Equal(t, "WARN", logLevel("warn").String())
	assert.Equal(t, "ERROR", logLevel("error").String())
	assert.Equal(t, "INFO", logLevel("anything").String())
}
