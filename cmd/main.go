package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ControlPagos/internal/appmanager"
	"ControlPagos/internal/calendar"
	"ControlPagos/internal/config"
	"ControlPagos/internal/logger"
	"ControlPagos/internal/pipeline"
	"ControlPagos/internal/workbook"
)

func main() {
	var (
		dateFlag     = flag.String("date", "", "business date YYYY-MM-DD (default: upcoming Wednesday)")
		yes          = flag.Bool("yes", false, "skip confirmations; locked files are retried as configured")
		servicesPath = flag.String("config", "services.yaml", "services and pipeline configuration")
		envPath      = flag.String("env", ".env", "environment overrides")
		serve        = flag.Bool("serve", false, "run the console and scheduler services")
	)
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] %s: %v", *envPath, err)
	}

	cfg, err := loadPipelineConfig(*servicesPath)
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		log.Fatal("invalid configuration:", err)
	}

	services, err := appmanager.LoadServiceSequence(*servicesPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal("failed to load service sequence:", err)
	}

	if *serve {
		os.Exit(runServices(p, services))
	}
	os.Exit(runOnce(p, services, *dateFlag, *yes))
}

func loadPipelineConfig(path string) (config.PipelineConfig, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func serviceConfig(services []appmanager.ServiceConfig, name string) map[string]interface{} {
	for _, s := range services {
		if s.Name == name {
			if s.Config == nil {
				return map[string]interface{}{}
			}
			return s.Config
		}
	}
	return map[string]interface{}{}
}

func runServices(p *pipeline.Pipeline, services []appmanager.ServiceConfig) int {
	rt := appmanager.NewRuntime(p, serviceConfig(services, "resourcemanager"))
	manager := appmanager.NewAppManager(rt)
	manager.AutoRegisterServices(services)

	if err := manager.StartAll(); err != nil {
		log.Println("failed to start:", err)
		return 1
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if id, ok := rt.Runner.Active(); ok {
		rt.Runner.Cancel(id)
	}
	if err := manager.StopAll(); err != nil {
		log.Println("failed to stop:", err)
		return 1
	}
	return 0
}

func runOnce(p *pipeline.Pipeline, services []appmanager.ServiceConfig, dateFlag string, yes bool) int {
	cfg := p.Config()
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}

	date := calendar.NextWednesday(time.Now().In(loc))
	if dateFlag != "" {
		date, err = time.ParseInLocation("2006-01-02", dateFlag, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fecha inválida %q, use YYYY-MM-DD\n", dateFlag)
			return 1
		}
	}

	logCfg := map[string]interface{}{}
	for k, v := range serviceConfig(services, "logger") {
		logCfg[k] = v
	}
	logCfg["stdout"] = false
	fileLog := logger.NewLoggerService(logCfg)
	if err := fileLog.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "no se pudo abrir el log: %v\n", err)
	} else {
		logger.SetGlobalLogger(fileLog)
		defer fileLog.Stop()
	}

	prompt := newPrompter(os.Stdin, os.Stdout)
	if !yes && !prompt.confirmRun(p, date) {
		fmt.Println("Proceso cancelado por el usuario.")
		return exitCode(pipeline.StatusCancelled)
	}

	var policy *workbook.RetryPolicy
	if !yes {
		policy = &workbook.RetryPolicy{OnLocked: prompt.onLocked}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(p)
	out, err := runner.Run(ctx, pipeline.Request{
		Date:    date,
		Trigger: "cli",
		Policy:  policy,
		Sink:    func(ev pipeline.Event) { fmt.Println(ev) },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.Audit("CLI run %s for %s finished: %s", out.RunID, calendar.FormatDMY(out.Date), out.Status)
	if out.Status == pipeline.StatusSucceeded {
		fmt.Printf("\nProyección: %s (hoja %s)\n", out.ProjectionPath, out.ProjectionSheet)
	}
	return exitCode(out.Status)
}
