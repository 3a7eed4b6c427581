package blog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
	"scosmb-portal/pkg/repository"
	"scosmb-portal/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Post{})
	return &Service{
		db:    db,
		node:  testutil.NewSnowflakeNode(t),
		posts: repository.ProvideStore[Post](db),
	}
}

func TestCreateSlugsTitle(t *testing.T) {
	svc := newTestService(t)

	post, err := svc.Create(context.Background(), "tech-1", PostInput{
		Title:     "Fixing Scanner Feed Jams",
		Content:   "Open the feed tray...",
		Category:  "troubleshooting",
		Tags:      []string{"hardware", "feeder"},
		Published: true,
	})
	require.NoError(t, err)
	require.Equal(t, "fixing-scanner-feed-jams", post.Slug)
	require.Equal(t, "tech-1", post.AuthorID)
}

func TestCreateRejectsDuplicateTitle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "tech-1", PostInput{Title: "Fixing Scanner Feed Jams", Published: true})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "tech-2", PostInput{Title: "Fixing Scanner Feed Jams"})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Code)
}

func TestGetBySlugBumpsViews(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "tech-1", PostInput{Title: "Calibration Guide", Published: true})
	require.NoError(t, err)

	first, err := svc.GetBySlug(ctx, created.Slug)
	require.NoError(t, err)
	require.EqualValues(t, 1, first.Views)

	second, err := svc.GetBySlug(ctx, created.Slug)
	require.NoError(t, err)
	require.EqualValues(t, 2, second.Views)
}

func TestGetBySlugHidesDrafts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "tech-1", PostInput{Title: "Draft Notes", Published: false})
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, created.Slug)
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestLikeIncrements(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "tech-1", PostInput{Title: "Calibration Guide", Published: true})
	require.NoError(t, err)

	likes, err := svc.Like(ctx, created.Slug)
	require.NoError(t, err)
	require.EqualValues(t, 1, likes)

	likes, err = svc.Like(ctx, created.Slug)
	require.NoError(t, err)
	require.EqualValues(t, 2, likes)
}

func TestUpdateReslugOnTitleChange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "tech-1", PostInput{Title: "Old Title", Published: true})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, PostInput{Title: "New Title", Published: true})
	require.NoError(t, err)
	require.Equal(t, "new-title", updated.Slug)
}

func TestDeleteRemovesPost(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "tech-1", PostInput{Title: "Short Lived", Published: true})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestListFiltersPublishedByCategory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "tech-1", PostInput{Title: "Feed Jams", Category: "troubleshooting", Published: true})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Create(ctx, "tech-1", PostInput{Title: "Release Notes", Category: "news", Published: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "tech-1", PostInput{Title: "Unfinished", Category: "troubleshooting", Published: false})
	require.NoError(t, err)

	posts, err := svc.List(ctx, ListFilter{
		Category: "troubleshooting",
		Page:     pagination.Pagination{Page: 1, Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "feed-jams", posts[0].Slug)
}

func TestListFiltersByTag(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "tech-1", PostInput{Title: "Feed Jams", Tags: []string{"hardware", "feeder"}, Published: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "tech-1", PostInput{Title: "OCR Settings", Tags: []string{"software"}, Published: true})
	require.NoError(t, err)

	posts, err := svc.List(ctx, ListFilter{
		Tag:  "hardware",
		Page: pagination.Pagination{Page: 1, Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "feed-jams", posts[0].Slug)
}
