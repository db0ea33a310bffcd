package videosvc

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sir_venger/video_registry/internal/metrics"
	"github.com/sir_venger/video_registry/internal/models"
	meta "github.com/sir_venger/video_registry/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://localhost:8080"

func newTestService(t *testing.T) (*Videos, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	svc := New(Deps{
		MetaStorage: meta.NewMemoryStore(),
		Storage:     storage,
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})
	return svc, storage
}

func TestRegister_ConcurrentIDsAreUniqueAndIncreasing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const workers, perWorker = 64, 50
	results := make([][]int64, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				v, err := svc.Register(ctx, testBase, models.Video{Title: "t"})
				if err != nil {
					t.Error(err)
					return
				}
				results[w] = append(results[w], v.ID)
			}
		}(w)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for _, ids := range results {
		for i, id := range ids {
			require.False(t, seen[id], "id %d issued twice", id)
			seen[id] = true
			if i > 0 {
				// в порядке выдачи одним вызывающим id строго растут
				require.Greater(t, id, ids[i-1])
			}
		}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, float64(workers*perWorker), testutil.ToFloat64(svc.Metrics.Registrations))
}

func TestRegister_ListContainsDerivedDataURL(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, testBase+"/video/"+strconv.FormatInt(v.ID, 10)+"/data", v.DataURL)

	list, err := svc.List(ctx, testBase)
	require.NoError(t, err)

	var matched int
	for _, item := range list {
		if item.ID == v.ID && strings.HasSuffix(item.DataURL, "/video/"+strconv.FormatInt(v.ID, 10)+"/data") {
			matched++
		}
	}
	assert.Equal(t, 1, matched)

	// dataUrl зависит только от id и base конкретного запроса
	list, err = svc.List(ctx, "http://other:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://other:9000/video/"+strconv.FormatInt(v.ID, 10)+"/data", list[0].DataURL)
}

func TestBind_UnknownIDIsNotFound(t *testing.T) {
	svc, storage := newTestService(t)

	_, err := svc.Bind(context.Background(), 999, strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, storage.blobs)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Binds.WithLabelValues(metrics.ResultNotFound)))
}

func TestBindFetch_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{ID: 5, Title: "five", ContentType: "video/mp4"})
	require.NoError(t, err)
	require.Equal(t, int64(5), v.ID)

	payload := bytes.Repeat([]byte{0xA1, 0xB2, 0xC3}, 4096)
	status, err := svc.Bind(ctx, 5, bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, status.State)

	var sink bytes.Buffer
	require.NoError(t, svc.Fetch(ctx, 5, &sink))
	assert.Equal(t, payload, sink.Bytes())

	got, err := svc.Get(ctx, testBase, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, got.State)

	// следующий id не пересекается с явно заданным 5
	next, err := svc.Register(ctx, testBase, models.Video{Title: "next"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), next.ID)
}

func TestBind_EmptyPayloadIsReady(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{Title: "empty"})
	require.NoError(t, err)

	status, err := svc.Bind(ctx, v.ID, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, status.State)

	var sink bytes.Buffer
	require.NoError(t, svc.Fetch(ctx, v.ID, &sink))
	assert.Zero(t, sink.Len())
}

func TestFetch_NeverUploadedIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{Title: "empty"})
	require.NoError(t, err)

	err = svc.Fetch(ctx, v.ID, &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, err, models.ErrPayloadMissing)

	err = svc.Fetch(ctx, 12345, &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFetch_RetrieveFailureIsNotFoundClass(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{Title: "x"})
	require.NoError(t, err)
	_, err = svc.Bind(ctx, v.ID, strings.NewReader("data"))
	require.NoError(t, err)

	storage.retrieveErr = errors.New("disk on fire")
	err = svc.Fetch(ctx, v.ID, &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrNotFound)

	var se *models.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "retrieve", se.Op)
	assert.Equal(t, v.ID, se.ID)
}

func TestBind_StorageFailureMarksFailed(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{Title: "x"})
	require.NoError(t, err)

	storage.storeErr = errors.New("disk full")
	status, err := svc.Bind(ctx, v.ID, strings.NewReader("data"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.NotErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, models.StateFailed, status.State)

	got, err := svc.Get(ctx, testBase, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, got.State)

	assert.ErrorIs(t, svc.Fetch(ctx, v.ID, &bytes.Buffer{}), models.ErrNotFound)

	// повторная загрузка после сбоя допустима
	storage.storeErr = nil
	status, err = svc.Bind(ctx, v.ID, strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, status.State)
}

func TestBind_ReadyWriteFailureMarksFailed(t *testing.T) {
	store := meta.NewMemoryStore()
	svc := New(Deps{
		MetaStorage: readyRejectingMeta{MemoryStore: store},
		Storage:     newMemStorage(),
	})
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{Title: "x"})
	require.NoError(t, err)

	status, err := svc.Bind(ctx, v.ID, strings.NewReader("data"))
	require.Error(t, err)
	assert.Equal(t, models.StateFailed, status.State)

	got, err := store.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, got.State)
}

func TestBind_CancelledUploadNeverReady(t *testing.T) {
	svc, _ := newTestService(t)

	v, err := svc.Register(context.Background(), testBase, models.Video{Title: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	body := newBlockingReader(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Bind(ctx, v.ID, body)
		done <- err
	}()

	<-body.started
	got, err := svc.Get(context.Background(), testBase, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateProcessing, got.State)

	cancel()
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("bind did not return after cancel")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, models.ErrStorage)

	got, err = svc.Get(context.Background(), testBase, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, got.State)
}

func TestBind_SameIDIsSerialized(t *testing.T) {
	svc, storage := newTestService(t)
	storage.storeDelay = 10 * time.Millisecond
	ctx := context.Background()

	v, err := svc.Register(ctx, testBase, models.Video{Title: "x"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Bind(ctx, v.ID, strings.NewReader(strconv.Itoa(i))); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, storage.maxInFlight)
	assert.Equal(t, 0, svc.binder.locks.size())

	got, err := svc.Get(ctx, testBase, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, got.State)
}

func TestBind_TransferDoesNotBlockMetadata(t *testing.T) {
	svc, _ := newTestService(t)

	v, err := svc.Register(context.Background(), testBase, models.Video{Title: "slow"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	body := newBlockingReader(ctx)
	go func() { _, _ = svc.Bind(ctx, v.ID, body) }()
	<-body.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		other, err := svc.Register(context.Background(), testBase, models.Video{Title: "other"})
		if err != nil {
			t.Error(err)
			return
		}
		if _, err = svc.Bind(context.Background(), other.ID, strings.NewReader("fast")); err != nil {
			t.Error(err)
		}
		if _, err = svc.List(context.Background(), testBase); err != nil {
			t.Error(err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("metadata operations blocked by an in-flight upload")
	}
}
