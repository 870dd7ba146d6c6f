package navcache

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nav-cache.db")
	store, err := Open(path, "Asia/Bangkok")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSaveLoadRoundTripOverReopen(t *testing.T) {
	store, path := openTestStore(t)

	snap := &Snapshot{
		TS:    "2026-09-01T00:00:00Z",
		Count: 2,
		Data: []map[string]any{
			{"userName": "somchai", "branchCode": "BKK"},
			{"userName": "Malee", "branchCode": "CNX"},
		},
		Meta: map[string]string{"url": "http://nav/users", "user": "Pmc"},
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Close()

	reopened, err := Open(path, "Asia/Bangkok")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(LatestKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("latest snapshot missing after reopen")
	}
	if loaded.Count != 2 || len(loaded.Data) != 2 {
		t.Errorf("snapshot lost data: count=%d len=%d", loaded.Count, len(loaded.Data))
	}
	if loaded.Meta["user"] != "Pmc" {
		t.Errorf("meta lost: %v", loaded.Meta)
	}

	// Save also writes today's dated key.
	keys, err := reopened.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected latest + dated key, got %v", keys)
	}
}

func TestLoadMissingKeyReturnsNil(t *testing.T) {
	store, _ := openTestStore(t)
	snap, err := store.Load("nav:2000-01-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil for missing key, got %v", snap)
	}
}

func TestPruneRemovesOldDatedKeysOnly(t *testing.T) {
	store, _ := openTestStore(t)

	loc, _ := time.LoadLocation("Asia/Bangkok")
	today := time.Now().In(loc)
	yesterday := today.AddDate(0, 0, -1)
	old := today.AddDate(0, 0, -5)

	snap := &Snapshot{Count: 0, Data: []map[string]any{}}
	for _, key := range []string{
		LatestKey,
		"nav:" + yesterday.Format("2006-01-02"),
		"nav:" + old.Format("2006-01-02"),
		"nav:backup", // non-dated, exempt
	} {
		if err := store.put(key, snap); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	store.Prune(1)

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	remaining := map[string]bool{}
	for _, k := range keys {
		remaining[k] = true
	}

	if !remaining[LatestKey] {
		t.Error("latest key must survive pruning")
	}
	if !remaining["nav:backup"] {
		t.Error("non-dated key must survive pruning")
	}
	if !remaining["nav:"+yesterday.Format("2006-01-02")] {
		t.Error("yesterday is inside the retention window")
	}
	if remaining["nav:"+old.Format("2006-01-02")] {
		t.Error("5-day-old snapshot must be pruned")
	}
}

func TestFindUserByNameIsCaseSensitive(t *testing.T) {
	store, _ := openTestStore(t)

	snap := &Snapshot{
		Count: 1,
		Data:  []map[string]any{{"userName": "Somchai", "branchCode": "BKK"}},
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	found, err := store.FindUserByName("Somchai")
	if err != nil {
		t.Fatalf("FindUserByName: %v", err)
	}
	if found == nil || found["branchCode"] != "BKK" {
		t.Errorf("exact match not found: %v", found)
	}

	miss, err := store.FindUserByName("somchai")
	if err != nil {
		t.Fatalf("FindUserByName: %v", err)
	}
	if miss != nil {
		t.Error("lookup must be case-sensitive")
	}
}

func TestFindUserByNameWithoutSnapshot(t *testing.T) {
	store, _ := openTestStore(t)
	found, err := store.FindUserByName("anyone")
	if err != nil {
		t.Fatalf("FindUserByName: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil without a snapshot, got %v", found)
	}
}
