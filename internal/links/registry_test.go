package links_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/links"
	"github.com/BradenHooton/calcvault/internal/models"
	"github.com/BradenHooton/calcvault/internal/repositories"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

func newTestRegistry(t *testing.T) (*links.Registry, *repositories.MemoryKVRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryKVRepository()
	clk := clock.NewManual(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	return links.NewRegistry(store, clk, logger, pkglogger.NewAuditLogger(logger)), store
}

func TestRegistry_ListEmpty(t *testing.T) {
	r, _ := newTestRegistry(t)

	content, err := r.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.NewCategoryMap(), content)
}

func TestRegistry_AddAutoClassifies(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)

	res, err := r.Add(ctx, "https://drive.google.com/file/d/abc123/view", "holiday.jpeg", "")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPhotos, res.Category)
	assert.Equal(t, "abc123", res.Link.ID)
	assert.Equal(t, "holiday.jpeg", res.Link.Name)

	content, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, content[models.CategoryPhotos], 1)
	assert.Equal(t, res.Link, content[models.CategoryPhotos][0])
	assert.Equal(t, 1, content.Total())

	assert.Contains(t, store.Snapshot()[models.KeyDriveContent], `"thumbnailUrl":"https://drive.google.com/thumbnail?id=abc123`)
}

func TestRegistry_AddExplicitCategory(t *testing.T) {
	r, _ := newTestRegistry(t)

	res, err := r.Add(context.Background(), "https://drive.google.com/open?id=zz9", "holiday.jpeg", models.CategoryFiles)

	require.NoError(t, err)
	assert.Equal(t, models.CategoryFiles, res.Category)
	assert.Equal(t, "document", res.Link.Type)
}

func TestRegistry_AddRejects(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)

	_, err := r.Add(ctx, "https://drive.google.com/drive/folders/abc", "x.png", "")
	assert.ErrorIs(t, err, models.ErrInvalidURL)

	_, err = r.Add(ctx, "https://drive.google.com/file/d/abc/view", "x.png", models.Category("music"))
	assert.ErrorIs(t, err, models.ErrInvalidCategory)

	_, err = r.Add(ctx, "https://drive.google.com/file/d/abc/view", "x.png", "")
	require.NoError(t, err)
	_, err = r.Add(ctx, "https://drive.google.com/open?id=abc", "copy.png", "")
	assert.ErrorIs(t, err, models.ErrDuplicateLink)

	// the same file may be listed under another category
	_, err = r.Add(ctx, "https://drive.google.com/open?id=abc", "copy.png", models.CategoryFiles)
	assert.NoError(t, err)
}

func TestRegistry_Remove(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	_, err := r.Add(ctx, "https://drive.google.com/file/d/p1/view", "a.png", "")
	require.NoError(t, err)
	_, err = r.Add(ctx, "https://drive.google.com/file/d/v1/view", "b.mp4", "")
	require.NoError(t, err)

	cat, err := r.Remove(ctx, "v1", "")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryVideos, cat)

	_, err = r.Remove(ctx, "p1", models.CategoryVideos)
	assert.ErrorIs(t, err, models.ErrNotFound)

	cat, err = r.Remove(ctx, "p1", models.CategoryPhotos)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPhotos, cat)

	_, err = r.Remove(ctx, "p1", "nope")
	assert.ErrorIs(t, err, models.ErrInvalidCategory)

	content, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, content.Total())
}

func TestRegistry_Clear(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	for _, name := range []string{"a.png", "b.png", "c.mp3"} {
		_, err := r.Add(ctx, "https://drive.google.com/file/d/"+name[:1]+"/view", name, "")
		require.NoError(t, err)
	}

	require.NoError(t, r.ClearCategory(ctx, models.CategoryPhotos))
	content, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, content[models.CategoryPhotos])
	assert.Len(t, content[models.CategoryRecordings], 1)

	assert.ErrorIs(t, r.ClearCategory(ctx, "stuff"), models.ErrInvalidCategory)

	require.NoError(t, r.ClearAll(ctx))
	content, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, content.Total())
}

func TestRegistry_CorruptDocumentReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	require.NoError(t, store.Apply(ctx, models.NewMutation().Put(models.KeyDriveContent, "{not json")))

	content, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, content.Total())

	_, err = r.Add(ctx, "https://drive.google.com/file/d/new/view", "n.pdf", "")
	assert.NoError(t, err)
}

func TestRegistry_StorageFailures(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	boom := errors.New("quota exceeded")

	store.FailApply = boom
	_, err := r.Add(ctx, "https://drive.google.com/file/d/x/view", "x.png", "")
	assert.ErrorIs(t, err, boom)

	store.FailApply = nil
	store.FailGet = boom
	_, err = r.List(ctx)
	assert.ErrorIs(t, err, boom)
}
