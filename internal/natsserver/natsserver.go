// Package natsserver runs an in-process NATS broker so rover events can be
// watched without a separately deployed server.
package natsserver

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Config holds settings for the embedded broker. An empty Host keeps the
// broker in-process only.
type Config struct {
	Host  string
	Port  int
	Token string
}

// Server wraps an embedded NATS server and a client connection to it.
type Server struct {
	ns     *server.Server
	nc     *nats.Conn
	logger zerolog.Logger
}

// New starts the embedded broker and connects to it.
func New(cfg Config, logger zerolog.Logger) (*Server, error) {
	opts := &server.Options{
		DontListen: cfg.Host == "",
		Host:       cfg.Host,
		Port:       cfg.Port,
		NoLog:      true,
		NoSigs:     true,
	}
	if cfg.Token != "" {
		opts.Authorization = cfg.Token
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("nats server create: %w", err)
	}
	ns.SetLoggerV2(newZerologAdapter(logger), false, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("nats server failed to become ready")
	}

	nc, err := nats.Connect(ns.ClientURL(), ConnectOpts(ns, cfg)...)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logger.Info().Str("client_url", ns.ClientURL()).Bool("listening", !opts.DontListen).Msg("embedded NATS started")

	return &Server{ns: ns, nc: nc, logger: logger}, nil
}

// ConnectOpts returns the client options needed to reach ns.
func ConnectOpts(ns *server.Server, cfg Config) []nats.Option {
	var opts []nats.Option
	if cfg.Host == "" {
		opts = append(opts, nats.InProcessServer(ns))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	return opts
}

// Conn returns the client connection to the embedded broker.
func (s *Server) Conn() *nats.Conn { return s.nc }

// ClientURL returns the NATS client connection URL.
func (s *Server) ClientURL() string { return s.ns.ClientURL() }

// Shutdown drains the client and stops the broker.
func (s *Server) Shutdown() {
	s.logger.Info().Msg("shutting down embedded NATS")
	s.nc.Drain()
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
