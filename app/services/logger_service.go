package services

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerService handles application logging
type LoggerService struct {
	logDir string
	file   *dailyFile
	logger *zap.Logger
}

// NewLoggerService creates a logger writing to stdout and a daily file in logDir.
// An empty logDir falls back to ./logs.
func NewLoggerService(logDir string, verbose bool) *LoggerService {
	if logDir == "" {
		logDir = "logs"
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	s := &LoggerService{logDir: logDir}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if err := os.MkdirAll(logDir, 0755); err == nil {
		s.file = &dailyFile{dir: logDir}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(s.file), level))
	}

	s.logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	if s.file == nil {
		s.LogWarning("Could not create logs directory, logging to stderr only", logDir)
	}
	return s
}

// NewNopLoggerService returns a logger that discards everything
func NewNopLoggerService() *LoggerService {
	return &LoggerService{logger: zap.NewNop()}
}

func detailFields(details []string) []zap.Field {
	if len(details) == 0 {
		return nil
	}
	return []zap.Field{zap.String("details", details[0])}
}

// LogInfo logs an informational message
func (s *LoggerService) LogInfo(message string, details ...string) {
	s.logger.Info(message, detailFields(details)...)
}

// LogDebug logs a debug message
func (s *LoggerService) LogDebug(message string, fields ...zap.Field) {
	s.logger.Debug(message, fields...)
}

// LogWarning logs a warning message
func (s *LoggerService) LogWarning(message string, details ...string) {
	s.logger.Warn(message, detailFields(details)...)
}

// LogError logs an error message
func (s *LoggerService) LogError(message string, err error, details ...string) {
	fields := detailFields(details)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Error(message, fields...)
}

// LogPanic logs a panic with stack trace
func (s *LoggerService) LogPanic(recovered interface{}) {
	s.logger.Error("Recovered from panic",
		zap.Any("panic", recovered),
		zap.String("stack", string(debug.Stack())))
}

// GetLogDirectory returns the directory where logs are stored
func (s *LoggerService) GetLogDirectory() string {
	return s.logDir
}

// GetTodayLogPath returns the path to today's log file
func (s *LoggerService) GetTodayLogPath() string {
	return filepath.Join(s.logDir, time.Now().Format("2006-01-02")+".log")
}

// CleanOldLogs removes log files older than specified days
func (s *LoggerService) CleanOldLogs(daysToKeep int) error {
	if s.logDir == "" {
		return nil
	}
	files, err := os.ReadDir(s.logDir)
	if err != nil {
		return err
	}

	cutoffDate := time.Now().AddDate(0, 0, -daysToKeep)

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".log" {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffDate) {
			filePath := filepath.Join(s.logDir, file.Name())
			s.LogInfo("Deleting old log file", filePath)
			os.Remove(filePath)
		}
	}

	return nil
}

// Close flushes and closes the log file
func (s *LoggerService) Close() {
	_ = s.logger.Sync()
	if s.file != nil {
		s.file.Close()
	}
}

// dailyFile is a WriteSyncer that switches to a new YYYY-MM-DD.log each day
type dailyFile struct {
	mu         sync.Mutex
	dir        string
	currentDay string
	file       *os.File
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rotate(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}
}

// rotate opens today's file if the day changed
func (d *dailyFile) rotate() error {
	today := time.Now().Format("2006-01-02")
	if d.currentDay == today && d.file != nil {
		return nil
	}

	if d.file != nil {
		d.file.Close()
	}

	path := filepath.Join(d.dir, fmt.Sprintf("%s.log", today))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	d.file = file
	d.currentDay = today
	return nil
}
