package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ControlPagos/internal/config"
	"ControlPagos/internal/serviceiface"
)

var _ serviceiface.Service = (*LoggerService)(nil)

// LoggerService sends the standard logger to a rotating file under
// folder_path and zips files older than retention_days.
type LoggerService struct {
	Config        map[string]interface{}
	file          *os.File
	mu            sync.Mutex
	stopCh        chan struct{}
	wg            sync.WaitGroup
	currentLog    string
	maxFileBytes  int64
	retentionDays int
	folderPath    string
	prefix        string
	stdout        bool
	rotateEvery   time.Duration
}

func NewLoggerService(cfg map[string]interface{}) *LoggerService {
	return &LoggerService{
		Config:        cfg,
		stopCh:        make(chan struct{}),
		maxFileBytes:  int64(config.Int(cfg, "max_file_mb", 10)) * 1024 * 1024,
		retentionDays: config.Int(cfg, "retention_days", 30),
		folderPath:    config.String(cfg, "folder_path", "./logs"),
		prefix:        config.String(cfg, "file_prefix", "controlpagos"),
		stdout:        config.Bool(cfg, "stdout", true),
		rotateEvery:   config.Duration(cfg, "rotate_check", 10*time.Second),
	}
}

func (l *LoggerService) Name() string {
	return "logger"
}

func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	if err := l.openLocked(l.nextLogFileName()); err != nil {
		return err
	}
	log.Println("[LoggerService] Started, writing to", l.currentLog)

	l.wg.Add(1)
	go l.backgroundWorker()
	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		log.Println("[LoggerService] Stopping")
		log.SetOutput(os.Stderr)
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// CurrentFile is the log file being written.
func (l *LoggerService) CurrentFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentLog
}

func (l *LoggerService) openLocked(name string) error {
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentLog = name
	var out io.Writer = file
	if l.stdout {
		out = io.MultiWriter(os.Stdout, file)
	}
	log.SetOutput(out)
	return nil
}

func (l *LoggerService) nextLogFileName() string {
	timestamp := time.Now().Format("20060102_150405.000")
	return filepath.Join(l.folderPath, fmt.Sprintf("%s_%s.log", l.prefix, strings.Replace(timestamp, ".", "_", 1)))
}

func (l *LoggerService) rotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || l.maxFileBytes <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.maxFileBytes {
		return nil
	}
	old := l.file
	if err := l.openLocked(l.nextLogFileName()); err != nil {
		return err
	}
	old.Close()
	log.Println("[LoggerService] Rotated log file to", l.currentLog)
	return nil
}

func (l *LoggerService) backgroundWorker() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.rotateEvery)
	retentionTicker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	defer retentionTicker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			if err := l.rotateIfNeeded(); err != nil {
				log.Println("[LoggerService] rotate:", err)
			}
		case <-retentionTicker.C:
			l.zipAndCleanOldLogs(time.Now())
		}
	}
}

// zipAndCleanOldLogs moves .log files last written before the retention
// window into logs_<date>.zip.
func (l *LoggerService) zipAndCleanOldLogs(now time.Time) int {
	if l.retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -l.retentionDays)
	files, err := os.ReadDir(l.folderPath)
	if err != nil {
		return 0
	}

	var old []string
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".log" {
			continue
		}
		fullPath := filepath.Join(l.folderPath, f.Name())
		if fullPath == l.CurrentFile() {
			continue
		}
		info, err := os.Stat(fullPath)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		old = append(old, fullPath)
	}
	if len(old) == 0 {
		return 0
	}

	zipName := filepath.Join(l.folderPath, fmt.Sprintf("logs_%s.zip", now.Format("20060102_150405")))
	zipFile, err := os.Create(zipName)
	if err != nil {
		return 0
	}
	defer zipFile.Close()
	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	archived := 0
	for _, fullPath := range old {
		w, err := zipWriter.Create(filepath.Base(fullPath))
		if err != nil {
			continue
		}
		src, err := os.Open(fullPath)
		if err != nil {
			continue
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			continue
		}
		os.Remove(fullPath)
		archived++
	}
	return archived
}

func (l *LoggerService) LogAudit(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	log.Printf("[AUDIT] %s", msg)
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}

// Audit writes msg through the global logger when one is registered.
func Audit(format string, args ...interface{}) {
	if GlobalLogger == nil {
		log.Printf("[AUDIT] "+format, args...)
		return
	}
	GlobalLogger.LogAudit(fmt.Sprintf(format, args...))
}
