package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = defaultReadTimeout
	shutdownDrainWindow = 30 * time.Second

	// Child processes find the inherited listener through this marker.
	gracefulEnvironKey   = "IS_GRACEFUL"
	gracefulEnvironValue = gracefulEnvironKey + "=1"
	gracefulListenerFd   = 3
)

// GracefulServer wraps http.Server with graceful shutdown on SIGTERM and
// zero-downtime restart on SIGUSR2, where the listening socket is handed to
// a freshly exec'd child as fd 3.
type GracefulServer struct {
	*http.Server

	listener     net.Listener
	isChild      bool
	signalChan   chan os.Signal
	shutdownChan chan struct{}
}

// NewGracefulServer builds a server around addr and handler.
func NewGracefulServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *GracefulServer {
	return &GracefulServer{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		isChild:      os.Getenv(gracefulEnvironKey) != "",
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// ListenAndServe blocks serving requests until a shutdown signal drains the
// server.
func (srv *GracefulServer) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}

	var err error
	srv.listener, err = srv.acquireListener(addr)
	if err != nil {
		return err
	}

	go srv.watchSignals()
	err = srv.Server.Serve(srv.listener)
	// Serve returns as soon as the listener closes; wait for Shutdown to drain.
	<-srv.shutdownChan
	return err
}

// acquireListener reuses the inherited fd when running as a restart child,
// otherwise binds a fresh socket.
func (srv *GracefulServer) acquireListener(addr string) (net.Listener, error) {
	if srv.isChild {
		ln, err := net.FileListener(os.NewFile(gracefulListenerFd, ""))
		if err != nil {
			return nil, fmt.Errorf("inherit listener fd: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *GracefulServer) watchSignals() {
	signal.Notify(srv.signalChan, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range srv.signalChan {
		switch sig {
		case syscall.SIGTERM:
			Sugar.Info("received SIGTERM, shutting down HTTP server")
			srv.drainAndClose()
		case syscall.SIGUSR2:
			Sugar.Info("received SIGUSR2, restarting HTTP server")
			pid, err := srv.spawnSuccessor()
			if err != nil {
				Sugar.Errorf("restart failed: %v, continuing to serve", err)
				continue
			}
			Sugar.Infof("successor started, pid=%d", pid)
			srv.drainAndClose()
		}
	}
}

func (srv *GracefulServer) drainAndClose() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownDrainWindow)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown complete")
	}
	close(srv.shutdownChan)
}

// spawnSuccessor forks a replacement process that inherits the listener fd.
func (srv *GracefulServer) spawnSuccessor() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is %T, not *net.TCPListener", srv.listener)
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("dup listener fd: %w", err)
	}

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnvironValue {
			env = append(env, e)
		}
	}
	env = append(env, gracefulEnvironValue)

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}

// GraceServer runs handler on addr with default timeouts and graceful
// lifecycle handling.
func GraceServer(addr string, handler http.Handler) error {
	return NewGracefulServer(addr, handler, defaultReadTimeout, defaultWriteTimeout).ListenAndServe()
}
