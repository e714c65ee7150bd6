// Package dummy is a stand-in server under test with the same command line
// and endpoints as the benchmarked server.
package dummy

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	ModeSequential = "1"
	ModeBounded    = "2"
	ModeLocked     = "3"
	ModePerRequest = "4"
)

var ErrUnknownMode = errors.New("invalid implementation number, choose 1-4")

const indexBody = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <title>Hello!</title>
  </head>
  <body>
    <h1>Hello!</h1>
    <p>Hi from the queue sweep server</p>
  </body>
</html>
`

type ServerConfig struct {
	Mode    string
	Workers int
	Queue   int
	Port    int
	// SleepFor is how long /sleep blocks.
	SleepFor time.Duration
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Mode:     ModeSequential,
		Workers:  8,
		Queue:    100,
		Port:     7878,
		SleepFor: time.Second,
	}
}

// NewExecutor returns the request executor for cfg.Mode.
func NewExecutor(cfg ServerConfig) (Executor, error) {
	switch cfg.Mode {
	case ModeSequential:
		return NewBoundedPool(1, cfg.Queue), nil
	case ModeBounded:
		return NewBoundedPool(cfg.Workers, cfg.Queue), nil
	case ModeLocked:
		return NewLockedPool(cfg.Workers), nil
	case ModePerRequest:
		return perRequest{}, nil
	}
	return nil, errors.Wrapf(ErrUnknownMode, "got %q", cfg.Mode)
}

// Handler serves the benchmark endpoints. Every response is produced on the
// executor.
func Handler(cfg ServerConfig, exec Executor) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		run(w, r, exec, func() (int, string) { return http.StatusOK, indexBody })
	})
	mux.HandleFunc("/cpu", func(w http.ResponseWriter, r *http.Request) {
		run(w, r, exec, func() (int, string) {
			return http.StatusOK, fmt.Sprintf("Found %d primes up to 10,000", countPrimes(10000))
		})
	})
	mux.HandleFunc("/sleep", func(w http.ResponseWriter, r *http.Request) {
		run(w, r, exec, func() (int, string) {
			time.Sleep(cfg.SleepFor)
			return http.StatusOK, indexBody
		})
	})
	mux.HandleFunc("/mixed", func(w http.ResponseWriter, r *http.Request) {
		run(w, r, exec, func() (int, string) {
			switch rand.Intn(3) {
			case 0:
				return http.StatusOK, indexBody
			case 1:
				return http.StatusOK, fmt.Sprintf("Mixed workload (CPU): Found %d primes up to 10,000", countPrimes(10000))
			default:
				time.Sleep(cfg.SleepFor)
				return http.StatusOK, "Mixed workload (I/O): Completed after sleep"
			}
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.WithField("path", r.URL.Path).Debug("Path not recognized")
		http.Error(w, "404 Not Found", http.StatusNotFound)
	})
	return mux
}

func run(w http.ResponseWriter, r *http.Request, exec Executor, fn func() (int, string)) {
	if r.Method != http.MethodGet {
		http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var (
		status int
		body   string
	)
	if err := exec.Execute(r.Context(), func() { status, body = fn() }); err != nil {
		http.Error(w, "503 Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func countPrimes(limit int) int {
	n := 0
	for i := 2; i < limit; i++ {
		if isPrime(i) {
			n++
		}
	}
	return n
}

func isPrime(n int) bool {
	if n <= 1 {
		return false
	}
	for i := 2; i <= int(math.Sqrt(float64(n))); i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// Serve listens on cfg.Port and serves until ctx is cancelled.
func Serve(ctx context.Context, cfg ServerConfig) error {
	exec, err := NewExecutor(cfg)
	if err != nil {
		return err
	}
	defer exec.Close()

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
	if err != nil {
		return errors.Wrapf(err, "listening on port %d", cfg.Port)
	}

	server := &http.Server{
		Handler:           Handler(cfg, exec),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(log.Fields{
		"mode":    cfg.Mode,
		"workers": cfg.Workers,
		"queue":   cfg.Queue,
		"addr":    ln.Addr().String(),
	}).Info("Dummy server running")

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Shutting down")
	return nil
}
