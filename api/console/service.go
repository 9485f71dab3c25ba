package console

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"ControlPagos/api"
	"ControlPagos/internal/config"
	"ControlPagos/internal/logger"
	"ControlPagos/internal/serviceiface"
)

var _ serviceiface.Service = (*ConsoleService)(nil)

type ConsoleService struct {
	config  map[string]interface{}
	handler *Handler
	server  *http.Server
}

func NewConsoleService(cfg map[string]interface{}, h *Handler) *ConsoleService {
	return &ConsoleService{config: cfg, handler: h}
}

func (s *ConsoleService) Name() string {
	return "console"
}

// Addr is the listen address from the service config.
func (s *ConsoleService) Addr() string {
	host := config.String(s.config, "host", "127.0.0.1")
	return fmt.Sprintf("%s:%d", host, config.Int(s.config, "port", config.DefaultConsolePort))
}

func (s *ConsoleService) Start() error {
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           NewRouter(s.handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[Console] Listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			api.LogError("console server: %v", err)
		}
	}()
	logger.Audit("Console service started on %s", s.server.Addr)
	return nil
}

func (s *ConsoleService) Stop() error {
	if s.server == nil {
		return nil
	}
	if s.handler.Hub != nil {
		s.handler.Hub.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
