package storageclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sir_venger/video_registry/internal/logging"
	"github.com/sir_venger/video_registry/pkg/storageproto"
	"go.uber.org/zap"
)

// ErrBlobNotFound возвращается, когда нода ответила 404.
var ErrBlobNotFound = errors.New("blob not found on storage node")

type PutBlobRequest struct {
	ID     int64
	Reader io.Reader
	// Size < 0: длина неизвестна, тело уходит chunked, а SHA-256 передаётся в трейлере.
	Size   int64
	Sha256 string
}

// BlobInfo ответ HEAD по blob'у. StoredAt нулевой, если нода его не сообщила.
type BlobInfo struct {
	Size     int64
	Sha256   string
	StoredAt time.Time
}

type Client interface {
	// PutBlob Положить payload в хранилище
	PutBlob(ctx context.Context, baseURL string, req PutBlobRequest) error
	// GetBlob Достать payload из хранилища
	GetBlob(ctx context.Context, baseURL string, id int64) (io.ReadCloser, error)
	// HeadBlob Узнать размер и хеш payload без скачивания
	HeadBlob(ctx context.Context, baseURL string, id int64) (BlobInfo, error)
}

type httpClient struct {
	c   *http.Client
	log *zap.Logger
}

// New создаёт HTTP-клиент по умолчанию.
func New(log *zap.Logger) Client {
	return &httpClient{
		c:   &http.Client{},
		log: logging.OrNop(log),
	}
}

// PutBlob загружает payload в указанный storage.
func (h *httpClient) PutBlob(ctx context.Context, baseURL string, req PutBlobRequest) error {
	u := fmt.Sprintf(storageproto.BlobsPathFormat, baseURL, req.ID)
	prog := newProgress(h.log, "upload", baseURL, req.ID, req.Size)

	var hasher hash.Hash
	body := io.TeeReader(req.Reader, progressWriter{p: prog})
	if req.Size < 0 && req.Sha256 == "" {
		hasher = sha256.New()
		body = io.TeeReader(body, hasher)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, u, body)
	if err != nil {
		prog.Fail(err)
		return err
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	if req.Size >= 0 {
		httpReq.ContentLength = req.Size
	} else {
		httpReq.ContentLength = -1
	}
	if req.Sha256 != "" {
		httpReq.Header.Set(storageproto.HeaderChecksum, req.Sha256)
	}
	if hasher != nil {
		// Значение трейлера читается транспортом после того, как тело вычитано до EOF.
		httpReq.Trailer = http.Header{storageproto.HeaderChecksum: nil}
		httpReq.Body = &trailerBody{ReadCloser: httpReq.Body, onEOF: func() {
			httpReq.Trailer.Set(storageproto.HeaderChecksum, hex.EncodeToString(hasher.Sum(nil)))
		}}
	}

	resp, err := h.c.Do(httpReq)
	if err != nil {
		prog.Fail(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		err = fmt.Errorf("storage PUT failed: %s", resp.Status)
		prog.Fail(err)
		return err
	}

	prog.Finish()
	return nil
}

// GetBlob скачивает payload и возвращает поток с телом.
func (h *httpClient) GetBlob(ctx context.Context, baseURL string, id int64) (io.ReadCloser, error) {
	u := fmt.Sprintf(storageproto.BlobsPathFormat, baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrBlobNotFound
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("storage GET failed: %s", resp.Status)
	}

	expectedSize := resp.ContentLength
	if expectedSize <= 0 {
		if header := resp.Header.Get(storageproto.HeaderBlobSize); header != "" {
			if sz, parseErr := strconv.ParseInt(header, 10, 64); parseErr == nil && sz > 0 {
				expectedSize = sz
			}
		}
	}

	prog := newProgress(h.log, "download", baseURL, id, expectedSize)
	return newProgressReadCloser(resp.Body, prog), nil
}

// HeadBlob запрашивает метаданные blob'а.
func (h *httpClient) HeadBlob(ctx context.Context, baseURL string, id int64) (BlobInfo, error) {
	u := fmt.Sprintf(storageproto.BlobsPathFormat, baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return BlobInfo{}, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return BlobInfo{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return BlobInfo{}, ErrBlobNotFound
	case resp.StatusCode != http.StatusOK:
		return BlobInfo{}, fmt.Errorf("storage HEAD failed: %s", resp.Status)
	}

	size, err := strconv.ParseInt(resp.Header.Get(storageproto.HeaderBlobSize), 10, 64)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("invalid %s header: %w", storageproto.HeaderBlobSize, err)
	}
	info := BlobInfo{Size: size, Sha256: resp.Header.Get(storageproto.HeaderChecksum)}
	if v := resp.Header.Get(storageproto.HeaderStoredAt); v != "" {
		if ts, parseErr := time.Parse(time.RFC3339Nano, v); parseErr == nil {
			info.StoredAt = ts
		}
	}
	return info, nil
}

// trailerBody вызывает onEOF ровно один раз, когда тело запроса дочитано.
type trailerBody struct {
	io.ReadCloser
	onEOF func()
	done  bool
}

func (t *trailerBody) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if errors.Is(err, io.EOF) && !t.done {
		t.done = true
		t.onEOF()
	}
	return n, err
}
