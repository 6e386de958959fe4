package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// searchLogDir is where per-user search logs go. Empty disables them.
var searchLogDir = ""

// InitSearchLog enables search logs and sets their directory.
func InitSearchLog(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	searchLogDir = dir
	return nil
}

// getLogPath returns the log file path for a user.
func getLogPath(userID int64) string {
	return filepath.Join(searchLogDir, fmt.Sprintf("search_%d.log", userID))
}

// StartSearchLog truncates the log file for a user, starting a fresh log.
func StartSearchLog(userID int64) {
	if searchLogDir == "" {
		return
	}
	f, err := os.OpenFile(getLogPath(userID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Error().Err(err).Int64("userID", userID).Msg("failed to start search log")
		return
	}
	defer f.Close()

	header := fmt.Sprintf("=== Search Log ===\nUser: %d\nStarted: %s\n\n",
		userID, time.Now().Format("2006-01-02 15:04:05"))
	f.WriteString(header)
}

// appendLog writes a log entry to the user's search log file.
func appendLog(userID int64, prefix, msg string) {
	if searchLogDir == "" {
		return
	}
	f, err := os.OpenFile(getLogPath(userID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Error().Err(err).Int64("userID", userID).Msg("failed to write search log")
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("15:04:05")
	f.WriteString(fmt.Sprintf("[%s] %s %s\n", timestamp, prefix, msg))
}

// LogUser logs user input.
func LogUser(userID int64, format string, args ...any) {
	appendLog(userID, "USER ", fmt.Sprintf(format, args...))
}

// LogBot logs what was delivered to the user.
func LogBot(userID int64, format string, args ...any) {
	appendLog(userID, "BOT  ", fmt.Sprintf(format, args...))
}

// LogState logs conversation and run transitions.
func LogState(userID int64, format string, args ...any) {
	appendLog(userID, "STATE", fmt.Sprintf(format, args...))
}

// LogError logs errors.
func LogError(userID int64, format string, args ...any) {
	appendLog(userID, "ERROR", fmt.Sprintf(format, args...))
}
