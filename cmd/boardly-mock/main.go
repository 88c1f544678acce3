// Command boardly-mock serves the boardly REST contract from memory for
// local development and demos. Nothing survives a restart.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dori/boardly/internal/logging"
	"github.com/dori/boardly/internal/mockapi"
)

type seeds []string

func (s *seeds) String() string     { return strings.Join(*s, ",") }
func (s *seeds) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	secret := flag.String("secret", "", "HS256 signing secret (built-in default when empty)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	format := flag.String("log-format", "text", "Log format (text, json, logfmt)")
	var users seeds
	flag.Var(&users, "seed", "Pre-register a user as name:email:password (repeatable)")
	flag.Parse()

	logger := logging.FromConfig(os.Stderr, *level, *format).WithPrefix("boardly-mock")

	opts := []mockapi.Option{mockapi.WithTokenTTL(*ttl), mockapi.WithLogger(logger)}
	if *secret != "" {
		opts = append(opts, mockapi.WithSecret([]byte(*secret)))
	}
	server := mockapi.New(opts...)

	if err := seed(server, users, logger); err != nil {
		logger.Fatal("seed users", "err", err)
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      server,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

func seed(server *mockapi.Server, users []string, logger *log.Logger) error {
	for _, u := range users {
		parts := strings.SplitN(u, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("--seed %q: want name:email:password", u)
		}
		user, err := server.Register(parts[0], parts[1], parts[2])
		if err != nil {
			return fmt.Errorf("--seed %q: %w", u, err)
		}
		logger.Info("seeded user", "email", user.Email, "id", user.ID)
	}
	return nil
}
