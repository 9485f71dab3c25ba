package appmanager

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"ControlPagos/api/console"
	"ControlPagos/internal/config"
	"ControlPagos/internal/dashboard"
	"ControlPagos/internal/jobs"
	"ControlPagos/internal/logger"
	"ControlPagos/internal/notification"
	"ControlPagos/internal/pipeline"
	"ControlPagos/internal/resource"
	"ControlPagos/internal/serviceiface"
	"ControlPagos/internal/workbook"
)

// Runtime holds what the services share: the run gate and the observers
// following its runs.
type Runtime struct {
	Pipeline      *pipeline.Pipeline
	Runner        *pipeline.Runner
	Registry      *resource.RunRegistry
	Hub           *dashboard.SSEServer
	Notifications *notification.NotificationService
}

// NewRuntime builds the runner for p with the registry, the SSE hub and the
// notification feed attached.
func NewRuntime(p *pipeline.Pipeline, registryCfg map[string]interface{}) *Runtime {
	rt := &Runtime{
		Pipeline:      p,
		Registry:      resource.NewRunRegistryService(registryCfg),
		Notifications: notification.NewNotificationService(config.Int(registryCfg, "notifications", config.DefaultNotificationCap)),
	}
	rt.Hub = dashboard.NewSSEServer(rt.Registry, config.Duration(registryCfg, "ping_interval", 30*time.Second))
	rt.Runner = pipeline.NewRunner(p, rt.Registry, rt.Hub, rt.Notifications)
	return rt
}

var serviceConstructors = map[string]func(map[string]interface{}, *Runtime) serviceiface.Service{
	"logger": func(cfg map[string]interface{}, _ *Runtime) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"resourcemanager": func(cfg map[string]interface{}, rt *Runtime) serviceiface.Service {
		return rt.Registry
	},
	"scheduler": func(cfg map[string]interface{}, rt *Runtime) serviceiface.Service {
		return jobs.NewCronService(cfg, rt.Runner)
	},
	"console": func(cfg map[string]interface{}, rt *Runtime) serviceiface.Service {
		loc, err := rt.Pipeline.Config().Location()
		if err != nil {
			loc = time.Local
		}
		return console.NewConsoleService(cfg, &console.Handler{
			Runner:        rt.Runner,
			Registry:      rt.Registry,
			Hub:           rt.Hub,
			Notifications: rt.Notifications,
			Policy: workbook.RetryPolicy{
				MaxAttempts: config.Int(cfg, "retry_attempts", config.DefaultRetryAttempts),
				Delay:       config.Duration(cfg, "retry_delay", config.DefaultRetryDelay),
			},
			Location: loc,
		})
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	runtime  *Runtime
	mu       sync.Mutex
}

func NewAppManager(rt *Runtime) *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
		runtime:  rt,
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	// resourcemanager goes last so its first prune sees every service up
	for _, service := range am.services {
		if service.Name() == "resourcemanager" {
			continue
		}
		log.Println("Starting service:", service.Name())
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}
	for _, service := range am.services {
		if service.Name() == "resourcemanager" {
			log.Println("Starting service:", service.Name())
			if err := service.Start(); err != nil {
				return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
			}
		}
	}
	return nil
}

func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			return fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseServiceSequence(data)
}

func ParseServiceSequence(data []byte) ([]ServiceConfig, error) {
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	// sort by start_order
	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}

// AutoRegisterServices builds every known service named in configs. Services
// marked enabled: false are skipped; unknown names are logged and skipped.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		if !config.Bool(svc.Config, "enabled", true) {
			log.Printf("Service %s disabled", svc.Name)
			continue
		}
		constructor, ok := serviceConstructors[svc.Name]
		if !ok {
			log.Printf("Unknown service %q in services.yaml", svc.Name)
			continue
		}
		am.RegisterService(constructor(svc.Config, am.runtime))
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}

// Names lists the registered services in start order.
func (am *AppManager) Names() []string {
	am.mu.Lock()
	defer am.mu.Unlock()
	names := make([]string, len(am.services))
	for i, svc := range am.services {
		names[i] = svc.Name()
	}
	return names
}
