package main

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownGracefully_DrainsInflightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	})}
	go srv.Serve(ln) //nolint:errcheck

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	// Stop the server while the handler is still blocked. Shutdown must
	// wait for the response instead of cutting the connection.
	time.Sleep(50 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		shutdownGracefully(srv)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("shutdown returned before the in-flight request finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.Equal(t, http.StatusOK, <-status)
	<-done
}
