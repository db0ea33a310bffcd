package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	dataFileName = "data"
	metaFileName = "meta.json"
	tmpSuffix    = ".tmp"
)

// VerifyFunc проверяет вычитанный payload до того, как он заменит текущий.
type VerifyFunc func(info BlobInfo) error

// FSStore хранит каждый payload в каталоге <root>/<id>/ рядом с meta.json.
// Незавершённая или отменённая запись никогда не заменяет готовый blob.
type FSStore struct {
	root string
	// commit сериализует rename + meta.json, чтобы они соответствовали друг другу.
	commit sync.Mutex
}

// NewFSStore создаёт хранилище поверх каталога root, создавая его при необходимости.
func NewFSStore(root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage dir is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root}, nil
}

// Root возвращает каталог с данными.
func (s *FSStore) Root() string {
	return s.root
}

// Store полностью вычитывает r в blob id.
func (s *FSStore) Store(ctx context.Context, id int64, r io.Reader) error {
	_, err := s.Write(ctx, id, r, nil)
	return err
}

// Write пишет r во временный файл, считая SHA-256, вызывает verify и только затем
// атомарно публикует blob.
func (s *FSStore) Write(ctx context.Context, id int64, r io.Reader, verify VerifyFunc) (BlobInfo, error) {
	dir := s.dir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BlobInfo{}, err
	}

	tmp := filepath.Join(dir, dataFileName+"."+uuid.NewString()+tmpSuffix)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return BlobInfo{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return BlobInfo{}, err
	}
	if err = f.Sync(); err != nil {
		return BlobInfo{}, err
	}
	if err = f.Close(); err != nil {
		return BlobInfo{}, err
	}

	info := BlobInfo{
		ID:       id,
		Size:     n,
		Sha256:   hex.EncodeToString(h.Sum(nil)),
		StoredAt: time.Now().UTC(),
	}
	if verify != nil {
		if err = verify(info); err != nil {
			return BlobInfo{}, err
		}
	}

	s.commit.Lock()
	defer s.commit.Unlock()
	if err = os.Rename(tmp, filepath.Join(dir, dataFileName)); err != nil {
		return BlobInfo{}, err
	}
	committed = true
	if err = writeMeta(filepath.Join(dir, metaFileName), info); err != nil {
		return BlobInfo{}, err
	}

	return info, nil
}

// Open открывает опубликованный blob на чтение.
func (s *FSStore) Open(id int64) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.dir(id), dataFileName))
	if err != nil {
		return nil, fmt.Errorf("blob %d: %w", id, err)
	}
	return f, nil
}

// Retrieve копирует blob в w. Для отсутствующего blob возвращается ошибка с fs.ErrNotExist.
func (s *FSStore) Retrieve(ctx context.Context, id int64, w io.Writer) error {
	f, err := s.Open(id)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, &ctxReader{ctx: ctx, r: f})
	return err
}

// Stat возвращает сведения о blob'е из meta.json.
func (s *FSStore) Stat(id int64) (BlobInfo, error) {
	info, err := readMeta(filepath.Join(s.dir(id), metaFileName))
	if err != nil {
		return BlobInfo{}, fmt.Errorf("blob %d: %w", id, err)
	}
	return *info, nil
}

// Usage суммирует размер всех файлов в каталоге данных.
func (s *FSStore) Usage() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}
	return total, nil
}

// Sweep удаляет брошенные временные файлы старше ttl и пустые каталоги без данных.
func (s *FSStore) Sweep(ttl time.Duration) error {
	now := time.Now()
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		dir := filepath.Join(s.root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		left := 0
		for _, f := range files {
			if !strings.HasSuffix(f.Name(), tmpSuffix) {
				left++
				continue
			}
			fi, err := f.Info()
			if err != nil || now.Sub(fi.ModTime()) < ttl {
				left++
				continue
			}
			if err = os.Remove(filepath.Join(dir, f.Name())); err != nil {
				left++
			}
		}

		// Каталог без файлов удаляется только когда он и сам старше ttl.
		if left == 0 {
			if fi, err := os.Stat(dir); err == nil && now.Sub(fi.ModTime()) >= ttl {
				_ = os.Remove(dir)
			}
		}
	}

	return nil
}

func (s *FSStore) dir(id int64) string {
	return filepath.Join(s.root, strconv.FormatInt(id, 10))
}

// ctxReader прерывает копирование, как только ctx отменён.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
