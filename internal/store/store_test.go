package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-cache/internal/mediatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func writeTestFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("content of "+name), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAddFolderIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.AddFolder(ctx, "/photos/2024")
	if err != nil {
		t.Fatalf("AddFolder error: %v", err)
	}
	id2, err := s.AddFolder(ctx, "/photos/2024")
	if err != nil {
		t.Fatalf("second AddFolder error: %v", err)
	}
	if id1 != id2 {
		t.Errorf("re-registration changed folder id: %d -> %d", id1, id2)
	}

	folders, err := s.ListFolders(ctx)
	if err != nil {
		t.Fatalf("ListFolders error: %v", err)
	}
	if len(folders) != 1 {
		t.Fatalf("got %d folders, want 1", len(folders))
	}
	if folders[0].FolderHash == "" {
		t.Error("folder hash not recorded")
	}
}

func TestReRegisterKeepsCacheEntries(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	entry := CacheEntry{
		FolderID:     id,
		OriginalPath: "/photos/a.jpg",
		FileHash:     "aaaa",
		CachedPath:   "/cache/optimized/aaaa.webp",
		MediaType:    mediatypes.Image,
		FileSize:     100,
		CachedSize:   40,
	}
	if err := s.AddCacheEntry(ctx, entry); err != nil {
		t.Fatal(err)
	}

	// Re-registering the same path must not cascade away the entries.
	if _, err := s.AddFolder(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EntryCount != 1 {
		t.Errorf("entry count after re-register = %d, want 1", stats.EntryCount)
	}
}

func TestGetFolderIDNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.GetFolderID(context.Background(), "/nope")
	if !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("err = %v, want ErrFolderNotFound", err)
	}
}

func TestAddCacheEntryUpsert(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}

	entry := CacheEntry{
		FolderID:     id,
		OriginalPath: "/photos/a.jpg",
		FileHash:     "aaaa",
		CachedPath:   "/cache/optimized/aaaa.webp",
		MediaType:    mediatypes.Image,
		FileSize:     100,
		CachedSize:   40,
	}
	if err := s.AddCacheEntry(ctx, entry); err != nil {
		t.Fatalf("AddCacheEntry error: %v", err)
	}

	// Same (folder, hash) with new sizes replaces, not duplicates.
	entry.CachedSize = 35
	if err := s.AddCacheEntry(ctx, entry); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EntryCount != 1 {
		t.Errorf("entry count = %d, want 1", stats.EntryCount)
	}
	if stats.CachedSize != 35 {
		t.Errorf("cached size = %d, want 35", stats.CachedSize)
	}

	path, ok, err := s.GetCachedPath(ctx, "aaaa")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || path != entry.CachedPath {
		t.Errorf("GetCachedPath = (%q, %v), want (%q, true)", path, ok, entry.CachedPath)
	}

	entries, err := s.EntriesForFolder(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].MediaType != mediatypes.Image || entries[0].CachedSize != 35 {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestGetCachedPathUnknownHash(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, ok, err := s.GetCachedPath(context.Background(), "ffff")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown hash reported as cached")
	}
}

func TestFileExistsSelfHealing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	id, err := s.AddFolder(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	original := writeTestFile(t, dir, "a.jpg")
	if err := s.AddCacheEntry(ctx, CacheEntry{
		FolderID:     id,
		OriginalPath: original,
		FileHash:     "aaaa",
		CachedPath:   filepath.Join(dir, "aaaa.webp"),
		MediaType:    mediatypes.Image,
		FileSize:     10,
		CachedSize:   5,
	}); err != nil {
		t.Fatal(err)
	}

	exists, err := s.FileExists(ctx, "aaaa")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("live original reported missing")
	}

	// Delete the original: the entry is stale and must be purged.
	if err := os.Remove(original); err != nil {
		t.Fatal(err)
	}
	exists, err = s.FileExists(ctx, "aaaa")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("deleted original still reported as existing")
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EntryCount != 0 {
		t.Errorf("stale entries not purged: count = %d", stats.EntryCount)
	}

	// The purge is permanent: asking again must not resurrect the entry.
	exists, err = s.FileExists(ctx, "aaaa")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("purged hash reported as existing on a later call")
	}
}

func TestRemoveFolderCascades(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range []string{"aaaa", "bbbb"} {
		if err := s.AddCacheEntry(ctx, CacheEntry{
			FolderID:     id,
			OriginalPath: "/photos/" + h + ".jpg",
			FileHash:     h,
			CachedPath:   "/cache/optimized/" + h + ".webp",
			MediaType:    mediatypes.Image,
			FileSize:     10,
			CachedSize:   5,
		}); err != nil {
			t.Fatal(err)
		}
	}

	derivatives, err := s.RemoveFolder(ctx, "/photos")
	if err != nil {
		t.Fatalf("RemoveFolder error: %v", err)
	}
	if len(derivatives) != 2 {
		t.Errorf("got %d derivatives, want 2", len(derivatives))
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EntryCount != 0 {
		t.Errorf("cascade left %d entries", stats.EntryCount)
	}

	if _, err := s.GetFolderID(ctx, "/photos"); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("folder still registered after remove: %v", err)
	}
}

func TestRemoveFolderUnknown(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.RemoveFolder(context.Background(), "/nope")
	if !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("err = %v, want ErrFolderNotFound", err)
	}
}

func TestClearFolderCacheKeepsFolder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddCacheEntry(ctx, CacheEntry{
		FolderID:     id,
		OriginalPath: "/photos/a.jpg",
		FileHash:     "aaaa",
		CachedPath:   "/cache/optimized/aaaa.webp",
		MediaType:    mediatypes.Image,
		FileSize:     10,
		CachedSize:   5,
	}); err != nil {
		t.Fatal(err)
	}

	derivatives, err := s.ClearFolderCache(ctx, "/photos")
	if err != nil {
		t.Fatalf("ClearFolderCache error: %v", err)
	}
	if len(derivatives) != 1 {
		t.Errorf("got %d derivatives, want 1", len(derivatives))
	}

	if _, err := s.GetFolderID(ctx, "/photos"); err != nil {
		t.Errorf("folder unregistered by cache clear: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EntryCount != 0 {
		t.Errorf("entries remain after clear: %d", stats.EntryCount)
	}
}

func TestUpdateFolderStats(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateFolderStats(ctx, id, 42); err != nil {
		t.Fatalf("UpdateFolderStats error: %v", err)
	}

	folders, err := s.ListFolders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if folders[0].TotalFiles != 42 {
		t.Errorf("total files = %d, want 42", folders[0].TotalFiles)
	}
	if folders[0].LastScanned == nil {
		t.Error("last scanned not recorded")
	}
}

func TestSaveMediaRecordsLongestPrefix(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	outerID, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	innerID, err := s.AddFolder(ctx, "/photos/raw")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().Truncate(time.Second)
	saved, err := s.SaveMediaRecords(ctx, []MediaRecord{
		{FilePath: "/photos/a.jpg", FileHash: "aa", FileSize: 1, ModifiedAt: now, MediaType: mediatypes.Image},
		{FilePath: "/photos/raw/b.jpg", FileHash: "bb", FileSize: 2, ModifiedAt: now, MediaType: mediatypes.Image},
		{FilePath: "/elsewhere/c.jpg", FileHash: "cc", FileSize: 3, ModifiedAt: now, MediaType: mediatypes.Image},
	})
	if err != nil {
		t.Fatalf("SaveMediaRecords error: %v", err)
	}
	if saved != 2 {
		t.Errorf("saved = %d, want 2 (record outside any folder skipped)", saved)
	}

	records, err := s.LoadMediaRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	byPath := map[string]MediaRecord{}
	for _, r := range records {
		byPath[r.FilePath] = r
	}
	if got := byPath["/photos/a.jpg"].FolderID; got != outerID {
		t.Errorf("a.jpg folder = %d, want %d", got, outerID)
	}
	if got := byPath["/photos/raw/b.jpg"].FolderID; got != innerID {
		t.Errorf("b.jpg folder = %d, want %d (longest prefix)", got, innerID)
	}
}

func TestSaveMediaRecordsCaseInsensitivePrefix(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/Photos")
	if err != nil {
		t.Fatal(err)
	}
	saved, err := s.SaveMediaRecords(ctx, []MediaRecord{
		{FilePath: "/photos/A.JPG", FileHash: "aa", FileSize: 1, ModifiedAt: time.Now(), MediaType: mediatypes.Image},
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved != 1 {
		t.Fatalf("saved = %d, want 1", saved)
	}
	records, err := s.LoadMediaRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if records[0].FolderID != id {
		t.Errorf("folder = %d, want %d", records[0].FolderID, id)
	}
}

func TestLoadMediaRecordsSkipsUnknownType(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if _, err := s.SaveMediaRecords(ctx, []MediaRecord{
		{FilePath: "/photos/good.jpg", FileHash: "aa", FileSize: 1, ModifiedAt: now, MediaType: mediatypes.Image},
	}); err != nil {
		t.Fatal(err)
	}

	// Simulate a corrupt row written by an older build.
	s.mu.Lock()
	_, err = s.db.Exec(`
		INSERT INTO media_files (folder_id, file_path, file_hash, file_size, modified_at, media_type)
		VALUES (?, '/photos/bad.jpg', 'bb', 2, ?, 'hologram')
	`, id, now.UTC().Format(timeLayout))
	s.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	records, err := s.LoadMediaRecords(ctx)
	if err != nil {
		t.Fatalf("LoadMediaRecords error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (corrupt row skipped)", len(records))
	}
	if records[0].FilePath != "/photos/good.jpg" {
		t.Errorf("surviving record = %s", records[0].FilePath)
	}
}

func TestDeleteMediaRecordByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddFolder(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveMediaRecords(ctx, []MediaRecord{
		{FilePath: "/photos/a.jpg", FileHash: "aa", FileSize: 1, ModifiedAt: time.Now(), MediaType: mediatypes.Image},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteMediaRecordByPath(ctx, "/photos/a.jpg"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	n, err := s.CountMediaRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	// Deleting an unknown path is a no-op.
	if err := s.DeleteMediaRecordByPath(ctx, "/photos/missing.jpg"); err != nil {
		t.Errorf("deleting unknown path: %v", err)
	}
}

func TestMediaPathsForFolder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	otherID, err := s.AddFolder(ctx, "/videos")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if _, err := s.SaveMediaRecords(ctx, []MediaRecord{
		{FilePath: "/photos/a.jpg", FileHash: "aa", FileSize: 1, ModifiedAt: now, MediaType: mediatypes.Image},
		{FilePath: "/videos/b.mp4", FileHash: "bb", FileSize: 2, ModifiedAt: now, MediaType: mediatypes.Video},
	}); err != nil {
		t.Fatal(err)
	}

	paths, err := s.MediaPathsForFolder(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != "/photos/a.jpg" {
		t.Errorf("paths = %v, want [/photos/a.jpg]", paths)
	}

	paths, err = s.MediaPathsForFolder(ctx, otherID)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != "/videos/b.mp4" {
		t.Errorf("paths = %v, want [/videos/b.mp4]", paths)
	}
}

func TestNormalizeMediaPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`C:\Photos\2024\`, "c:/photos/2024"},
		{"/Photos/Raw", "/photos/raw"},
		{"/photos/", "/photos"},
	}
	for _, tt := range tests {
		if got := normalizeMediaPath(tt.in); got != tt.want {
			t.Errorf("normalizeMediaPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
