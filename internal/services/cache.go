package services

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ltv-dashboard/internal/models"
)

const cacheVersion = "v2"

var errCacheStale = errors.New("cache entry is stale")

type cachedFile struct {
	Source       string
	ModTime      time.Time
	Size         int64
	Transactions []models.Transaction
}

// fileCache keeps parsed transactions per source file as gob blobs. An entry
// is valid only while the source keeps the modification time and size it
// had when it was parsed.
type fileCache struct {
	dir string
}

func (c fileCache) path(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(abs)
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (c fileCache) load(source string, info fs.FileInfo) ([]models.Transaction, error) {
	file, err := os.Open(c.path(source))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entry cachedFile
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, err
	}

	if !sameFile(entry, info) {
		return nil, fmt.Errorf("%s: %w", source, errCacheStale)
	}
	return entry.Transactions, nil
}

// save stores txs parsed from a source whose state before parsing was info.
func (c fileCache) save(source string, info fs.FileInfo, txs []models.Transaction) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(c.path(source))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(cachedFile{
		Source:       source,
		ModTime:      info.ModTime(),
		Size:         info.Size(),
		Transactions: txs,
	})
}

func sameFile(entry cachedFile, info fs.FileInfo) bool {
	return entry.ModTime.Equal(info.ModTime()) && entry.Size == info.Size()
}

func unchanged(before, after fs.FileInfo) bool {
	return before.ModTime().Equal(after.ModTime()) && before.Size() == after.Size()
}
