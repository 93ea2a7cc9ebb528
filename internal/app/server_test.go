package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestServerShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	s := &Server{engine: engine, http: &http.Server{Handler: engine}}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveDone := make(chan error, 1)
	go func() { serveDone <- s.http.Serve(ln) }()

	addr := "http://" + ln.Addr().String()
	resp, err := http.Get(addr + "/health")
	if err != nil {
		t.Fatalf("request before shutdown: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-serveDone:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Serve() returned %v, want ErrServerClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after Shutdown")
	}

	if _, err := http.Get(addr + "/health"); err == nil {
		t.Error("server still accepting connections after shutdown")
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s := &Server{}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
