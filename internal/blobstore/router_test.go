package blobstore

import (
	"context"
	"testing"

	"github.com/sir_venger/video_registry/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAdapter struct {
	ready []string
}

func (a staticAdapter) Available(context.Context, []string) []string {
	return a.ready
}

func TestRouter_AllocateRoundRobin(t *testing.T) {
	r := NewRouter(staticAdapter{ready: []string{"http://a", "http://b"}})
	r.Set([]string{"http://a", "http://b", "http://c"})

	var got []string
	for i := 0; i < 4; i++ {
		node, err := r.Allocate(context.Background())
		require.NoError(t, err)
		got = append(got, node)
	}
	assert.Equal(t, []string{"http://a", "http://b", "http://a", "http://b"}, got)
}

func TestRouter_FallsBackToConfigured(t *testing.T) {
	r := NewRouter(staticAdapter{})
	r.Set([]string{"http://a/"})

	node, err := r.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://a", node)
}

func TestRouter_NoStorages(t *testing.T) {
	r := NewRouter(nil)

	_, err := r.Allocate(context.Background())
	assert.ErrorIs(t, err, models.ErrNoStorage)
}

func TestRouter_AddDeduplicates(t *testing.T) {
	r := NewRouter(nil)
	r.Set([]string{"http://a"})
	r.Add("http://a", " ", "http://b", "http://b/")

	assert.Equal(t, []string{"http://a", "http://b"}, r.Nodes())
}
