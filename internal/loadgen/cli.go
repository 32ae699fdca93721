package loadgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/leadgate/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadgen_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the lead traffic tool.
func ShowHelp() {
	os.Stdout.WriteString(`Leadgate Traffic Tool
=====================

A concurrent tool for exercising the leadgate conversion pipeline with
synthetic lead traffic: genuine conversions, false-positive button clicks,
duplicates, form submissions, and messenger click/confirm round trips.

Usage:
  go run cmd/loadgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -events int
        Number of lead scenarios to generate and submit (default 10000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated scenarios (default: generated_leads_TIMESTAMP.json)
  -log string
        Log file for test output (default: loadgen_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Notes:
  WhatsApp confirmations carry the click id inside free text, so they only
  resolve against numeric counter ids. Run the service with Redis configured
  when exercising the WhatsApp flow.

Examples:
  # Test with default settings
  go run cmd/loadgen/main.go

  # Test with custom parameters
  go run cmd/loadgen/main.go -events 50000 -workers 16 -url http://localhost:8080

  # Test with verbose output
  go run cmd/loadgen/main.go -verbose -events 10000
`)
}
