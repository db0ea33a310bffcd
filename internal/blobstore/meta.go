package blobstore

import (
	"encoding/json"
	"os"
	"time"
)

// BlobInfo хранится на диске рядом с payload.
type BlobInfo struct {
	ID       int64     `json:"id"`
	Size     int64     `json:"size"`
	Sha256   string    `json:"sha256"`
	StoredAt time.Time `json:"stored_at"`
}

// writeMeta атомарно перезаписывает meta.json.
func writeMeta(path string, info BlobInfo) error {
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + tmpSuffix
	if err = os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readMeta читает метаданные blob'а с диска.
func readMeta(path string) (*BlobInfo, error) {
	// meta.json мал, ReadFile достаточно.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info BlobInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, err
	}

	return &info, nil
}
