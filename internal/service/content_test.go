package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/store"
)

func newContentService(t *testing.T) (*ContentService, *sql.DB) {
	t.Helper()
	db := setupTestDB(t)
	versions := NewVersionService(db)
	caches := setupTestCaches(t)
	return NewContentService(db, versions, caches), db
}

func TestContentCreate(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, ContentInput{
		Type:   "article",
		Title:  "Héllo Wörld",
		Body:   "<p>one</p><!-- page --><p>two</p>",
		Status: "draft",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if item.Slug != "hello-world" {
		t.Errorf("derived slug = %q, want hello-world", item.Slug)
	}
	if item.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", item.PageCount)
	}
	if item.PublishedAt.Valid {
		t.Error("draft should have no published_at")
	}

	// Creation records version 1.
	versions, err := NewVersionService(db).List(ctx, item.ID)
	if err != nil {
		t.Fatalf("List versions: %v", err)
	}
	if len(versions) != 1 || versions[0].VersionNumber != 1 {
		t.Errorf("versions = %+v, want exactly version 1", versions)
	}
}

func TestContentCreateValidation(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ContentInput
		want error
	}{
		{"bad type", ContentInput{Type: "video", Title: "T", Status: "draft"}, ErrInvalidContentType},
		{"bad status", ContentInput{Type: "article", Title: "T", Status: "archived"}, ErrInvalidStatus},
		{"empty title", ContentInput{Type: "article", Status: "draft"}, ErrEmptyTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestContentSlugCollision(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, ContentInput{Type: "article", Title: "Same", Status: "draft"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, ContentInput{Type: "photobook", Title: "Same", Status: "draft"})
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("err = %v, want ErrSlugTaken", err)
	}
}

func TestContentPublishedAtSetOnce(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, ContentInput{Type: "article", Title: "T", Status: "draft"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	published, err := svc.SetStatus(ctx, item.ID, model.StatusPublished)
	if err != nil {
		t.Fatalf("SetStatus publish: %v", err)
	}
	if !published.PublishedAt.Valid {
		t.Fatal("published_at not set on first publish")
	}
	first := published.PublishedAt.Time

	time.Sleep(5 * time.Millisecond)
	if _, err := svc.SetStatus(ctx, item.ID, model.StatusDraft); err != nil {
		t.Fatalf("SetStatus unpublish: %v", err)
	}
	republished, err := svc.SetStatus(ctx, item.ID, model.StatusPublished)
	if err != nil {
		t.Fatalf("SetStatus republish: %v", err)
	}
	if !republished.PublishedAt.Time.Equal(first) {
		t.Errorf("published_at changed on republish: %v != %v", republished.PublishedAt.Time, first)
	}
}

func TestContentSoftDeleteAndRestore(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, ContentInput{Type: "article", Title: "T", Status: "published"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.SoftDelete(ctx, item.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	// Hidden from the public read path.
	if _, err := svc.GetPublished(ctx, "article", item.Slug); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("GetPublished after delete err = %v, want ErrContentNotFound", err)
	}

	// Slug is reusable while the old row sits in the trash.
	if _, err := svc.Create(ctx, ContentInput{Type: "article", Title: "T", Status: "draft"}); err != nil {
		t.Errorf("reusing slug of deleted item: %v", err)
	}

	// Idempotent second delete.
	if err := svc.SoftDelete(ctx, item.ID); err != nil {
		t.Errorf("second SoftDelete: %v", err)
	}

	restored, err := svc.RestoreDeleted(ctx, item.ID)
	if err != nil {
		t.Fatalf("RestoreDeleted: %v", err)
	}
	if restored.IsDeleted() {
		t.Error("restored item still deleted")
	}
	if restored.Status != model.StatusPublished {
		t.Errorf("restored status = %q, want prior status published", restored.Status)
	}
}

func TestContentRestoreNotDeleted(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, ContentInput{Type: "article", Title: "T", Status: "draft"})
	if _, err := svc.RestoreDeleted(ctx, item.ID); !errors.Is(err, ErrNotDeleted) {
		t.Errorf("err = %v, want ErrNotDeleted", err)
	}
}

func TestContentAutosaveDoesNotTouchLiveRow(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, ContentInput{Type: "article", Title: "Live", Body: "<p>live</p>", Status: "draft"})

	v, err := svc.Autosave(ctx, item.ID, "Draft edit", "<p>in progress</p>")
	if err != nil {
		t.Fatalf("Autosave: %v", err)
	}
	if !v.IsAutosave {
		t.Error("autosave version not flagged")
	}

	live, err := svc.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if live.Title != "Live" || live.Body != "<p>live</p>" {
		t.Errorf("live row changed by autosave: %q/%q", live.Title, live.Body)
	}
}

func TestContentGetPublishedServedFromCache(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, ContentInput{Type: "article", Title: "Cached", Status: "published"})

	if _, err := svc.GetPublished(ctx, "article", item.Slug); err != nil {
		t.Fatalf("GetPublished: %v", err)
	}

	// Bypass the service to unpublish directly: the cache must still serve it.
	if _, err := db.Exec(`UPDATE content SET status = 'draft' WHERE id = ?`, item.ID); err != nil {
		t.Fatalf("direct update: %v", err)
	}
	if _, err := svc.GetPublished(ctx, "article", item.Slug); err != nil {
		t.Errorf("expected cached hit, got %v", err)
	}

	// A service-level write invalidates and the miss becomes visible.
	if _, err := svc.SetStatus(ctx, item.ID, model.StatusDraft); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := svc.GetPublished(ctx, "article", item.Slug); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("err after invalidation = %v, want ErrContentNotFound", err)
	}
}

func TestContentPublishDue(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	due, err := svc.Create(ctx, ContentInput{Type: "article", Title: "Due", Status: "draft", ScheduledAt: &past})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notDue, err := svc.Create(ctx, ContentInput{Type: "article", Title: "Later", Status: "draft", ScheduledAt: &future})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	published, err := svc.PublishDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("PublishDue: %v", err)
	}
	if len(published) != 1 || published[0].ID != due.ID {
		t.Fatalf("published = %+v, want only the due item", published)
	}

	got, _ := svc.Get(ctx, due.ID)
	if got.Status != model.StatusPublished || !got.PublishedAt.Valid || got.ScheduledAt.Valid {
		t.Errorf("due item after publish = %+v", got)
	}
	still, _ := svc.Get(ctx, notDue.ID)
	if still.Status != model.StatusDraft {
		t.Errorf("future item published early")
	}
}

func TestContentListTrashView(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	kept, _ := svc.Create(ctx, ContentInput{Type: "article", Title: "Kept", Status: "draft"})
	trashed, _ := svc.Create(ctx, ContentInput{Type: "article", Title: "Trashed", Status: "draft"})
	if err := svc.SoftDelete(ctx, trashed.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	live, err := svc.List(ctx, store.ListContentParams{Type: "article", Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(live) != 1 || live[0].ID != kept.ID {
		t.Errorf("live list = %+v, want only the kept item", live)
	}

	trash, err := svc.List(ctx, store.ListContentParams{Type: "article", IncludeDeleted: true, Limit: 10})
	if err != nil {
		t.Fatalf("List trash: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != trashed.ID {
		t.Errorf("trash list = %+v, want only the deleted item", trash)
	}
}

func TestContentCreateInvalidatesRenderedListings(t *testing.T) {
	db := setupTestDB(t)
	caches := setupTestCaches(t)
	svc := NewContentService(db, NewVersionService(db), caches)
	ctx := context.Background()

	caches.SetRenderedPage(ctx, cache.HomeKey(), []byte("<html>stale</html>"), time.Minute)
	caches.SetRenderedPage(ctx, cache.RenderedListKey("article", 1), []byte("<html>stale</html>"), time.Minute)

	_, err := svc.Create(ctx, ContentInput{
		Type:   "article",
		Title:  "Breaking News",
		Body:   "<p>now</p>",
		Status: "published",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, ok := caches.GetRenderedPage(ctx, cache.HomeKey()); ok {
		t.Error("creating published content should drop the cached home page")
	}
	if _, ok := caches.GetRenderedPage(ctx, cache.RenderedListKey("article", 1)); ok {
		t.Error("creating published content should drop the cached listing page")
	}
}
