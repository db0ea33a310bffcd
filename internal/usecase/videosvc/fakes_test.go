package videosvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sir_venger/video_registry/internal/models"
	meta "github.com/sir_venger/video_registry/internal/repo"
)

// memStorage: payload-хранилище в памяти с учётом параллельных записей в один id.
type memStorage struct {
	mu          sync.Mutex
	blobs       map[int64][]byte
	inFlight    map[int64]int
	maxInFlight int
	storeErr    error
	retrieveErr error
	storeDelay  time.Duration
}

func newMemStorage() *memStorage {
	return &memStorage{
		blobs:    map[int64][]byte{},
		inFlight: map[int64]int{},
	}
}

func (m *memStorage) Store(_ context.Context, id int64, r io.Reader) error {
	m.mu.Lock()
	m.inFlight[id]++
	if m.inFlight[id] > m.maxInFlight {
		m.maxInFlight = m.inFlight[id]
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight[id]--
		m.mu.Unlock()
	}()

	if m.storeDelay > 0 {
		time.Sleep(m.storeDelay)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.storeErr != nil {
		return m.storeErr
	}

	m.mu.Lock()
	m.blobs[id] = b
	m.mu.Unlock()
	return nil
}

func (m *memStorage) Retrieve(_ context.Context, id int64, w io.Writer) error {
	if m.retrieveErr != nil {
		return m.retrieveErr
	}
	m.mu.Lock()
	b, ok := m.blobs[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("blob %d missing", id)
	}
	_, err := io.Copy(w, bytes.NewReader(b))
	return err
}

// blockingReader блокируется до отмены ctx и сообщает о первом чтении через started.
type blockingReader struct {
	ctx     context.Context
	started chan struct{}
	once    sync.Once
}

func newBlockingReader(ctx context.Context) *blockingReader {
	return &blockingReader{ctx: ctx, started: make(chan struct{})}
}

func (b *blockingReader) Read(_ []byte) (int, error) {
	b.once.Do(func() { close(b.started) })
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

// readyRejectingMeta отказывает в переходе в READY, остальные вызовы уходят в MemoryStore.
type readyRejectingMeta struct {
	*meta.MemoryStore
}

func (m readyRejectingMeta) SetState(ctx context.Context, id int64, state models.VideoState) error {
	if state == models.StateReady {
		return errors.New("meta storage unavailable")
	}
	return m.MemoryStore.SetState(ctx, id, state)
}
