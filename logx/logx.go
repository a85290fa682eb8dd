package logx

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

const (
	defaultLogFile   = "./logs/ledgersync.log"
	defaultMaxSizeMB = 100
	defaultMaxAge    = 14
)

var logger = log.New(newLumberjack(defaultLogFile, defaultMaxSizeMB, defaultMaxAge), "", log.Ldate|log.Ltime|log.Lmicroseconds)

func newLumberjack(filename string, maxSizeMB, maxAgeDays int) io.Writer {
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename: filename,
		MaxSize:  maxSizeMB,  // megabytes
		MaxAge:   maxAgeDays, // days
	})
}

// Configure replaces the log destination. Zero limits fall back to defaults.
func Configure(filename string, maxSizeMB, maxAgeDays int) {
	if filename == "" {
		filename = defaultLogFile
	}
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	if maxAgeDays <= 0 {
		maxAgeDays = defaultMaxAge
	}
	logger.SetOutput(newLumberjack(filename, maxSizeMB, maxAgeDays))
}

func Info(category string, content ...interface{}) {
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[INFO][%s]%s", ColorGreen, category, ColorReset)
	logger.Printf("%s: %s", coloredCategory, message)
}

func Error(category string, content ...interface{}) {
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[ERROR][%s]%s", ColorRed, category, ColorReset)
	logger.Printf("%s: %s", coloredCategory, message)
}

func Warn(category string, content ...interface{}) {
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[WARN][%s]%s", ColorYellow, category, ColorReset)
	logger.Printf("%s: %s", coloredCategory, message)
}

func Debug(category string, content ...interface{}) {
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[DEBUG][%s]%s", ColorBlue, category, ColorReset)
	logger.Printf("%s: %s", coloredCategory, message)
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
