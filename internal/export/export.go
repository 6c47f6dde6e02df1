package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// FileTimestampLayout formats the timestamp suffix of saved itineraries.
const FileTimestampLayout = "20060102_150405"

// FileName returns Travel_Itinerary_<destination>_<timestamp>.txt. Characters
// that are unsafe in file names become underscores.
func FileName(destination string, now time.Time) string {
	return fmt.Sprintf("Travel_Itinerary_%s_%s.txt", sanitize(destination), now.Format(FileTimestampLayout))
}

// SaveItinerary writes text into dir, creating it when missing, and returns the file path.
func SaveItinerary(dir, destination, text string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, FileName(destination, now))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write itinerary: %w", err)
	}
	return path, nil
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "trip"
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return '_'
	}, s)
}
