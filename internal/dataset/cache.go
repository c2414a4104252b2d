package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"superstore-dashboard/internal/models"
)

const cacheVersion = "v2"

type snapshot struct {
	Version  string
	Created  time.Time
	Records  []models.Record
	Checksum int
}

// cacheFilename keys the snapshot by source path and encoding, since the
// same bytes decode to different strings under each encoding.
func cacheFilename(dir, csvPath, encoding string) string {
	if encoding == "" {
		encoding = EncodingUTF8
	}
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.gob", name, encoding, cacheVersion))
}

func saveToCache(dir, csvPath, encoding string, records []models.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(cacheFilename(dir, csvPath, encoding))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snapshot{
		Version:  cacheVersion,
		Created:  time.Now(),
		Records:  records,
		Checksum: len(records),
	})
}

// loadFromCache returns the cached records when the snapshot is newer than
// the CSV file it was built from.
func loadFromCache(dir, csvPath, encoding string) ([]models.Record, error) {
	info, err := os.Stat(csvPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(cacheFilename(dir, csvPath, encoding))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	if snap.Version != cacheVersion || snap.Checksum != len(snap.Records) {
		return nil, fmt.Errorf("stale cache snapshot")
	}
	if !info.ModTime().Before(snap.Created) {
		return nil, fmt.Errorf("csv modified after snapshot")
	}
	return snap.Records, nil
}
