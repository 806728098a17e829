package store

import (
	"context"
	"testing"
	"time"
)

func TestFolderCounts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := setupTestStore(t)
	ctx := context.Background()
	project := createTestProject(t, s, "counts")
	other := createTestProject(t, s, "other")

	ids := buildFolderChain(t, s, project.ID)

	tx, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("Failed to begin batch: %v", err)
	}
	recs := []MediaRecord{
		{ProjectID: project.ID, FolderID: ids[0], Path: "/lib/top.jpg", Name: "top.jpg", Kind: "photo", Status: ExtractOK},
		{ProjectID: project.ID, FolderID: ids[2], Path: "/lib/2024/trip/a.jpg", Name: "a.jpg", Kind: "photo", Status: ExtractOK},
		{ProjectID: project.ID, FolderID: ids[2], Path: "/lib/2024/trip/b.jpg", Name: "b.jpg", Kind: "photo", Status: ExtractOK},
	}
	for i := range recs {
		if err := s.UpsertMedia(tx, &recs[i]); err != nil {
			t.Fatalf("Failed to upsert %s: %v", recs[i].Path, err)
		}
	}
	if err := s.EndBatch(tx, nil); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	// Same structure under another project must not leak into the counts.
	insertTestMedia(t, s, other.ID, MediaRecord{Path: "/lib/top.jpg", Name: "top.jpg", Kind: "photo"})

	counts, err := s.FolderCounts(ctx, project.ID)
	if err != nil {
		t.Fatalf("FolderCounts failed: %v", err)
	}

	byID := make(map[int64]FolderCount)
	for _, c := range counts {
		byID[c.FolderID] = c
	}
	if len(byID) != 3 {
		t.Fatalf("Expected counts for 3 folders, got %d", len(byID))
	}

	tests := []struct {
		name    string
		id      int64
		direct  int
		subtree int
	}{
		{"root", ids[0], 1, 3},
		{"middle", ids[1], 0, 2},
		{"leaf", ids[2], 2, 2},
	}
	for _, tt := range tests {
		got := byID[tt.id]
		if got.Direct != tt.direct || got.Subtree != tt.subtree {
			t.Errorf("%s: expected direct %d subtree %d, got direct %d subtree %d",
				tt.name, tt.direct, tt.subtree, got.Direct, got.Subtree)
		}
	}
}

func TestDateCounts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := setupTestStore(t)
	ctx := context.Background()
	project := createTestProject(t, s, "datecounts")

	days := []string{"2024-06-01", "2024-06-01", "2024-07-15", "2023-01-02"}
	for i, day := range days {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			t.Fatalf("Bad test date %s: %v", day, err)
		}
		unix := ts.Unix()
		date := day
		year := ts.Year()
		name := date + "-" + string(rune('a'+i)) + ".jpg"
		insertTestMedia(t, s, project.ID, MediaRecord{
			Path: "/lib/" + name, Name: name, Kind: "photo",
			CreatedTS: &unix, CreatedDate: &date, CreatedYear: &year,
		})
	}
	// A record with no derivable date is excluded from the buckets.
	insertTestMedia(t, s, project.ID, MediaRecord{Path: "/lib/undated.jpg", Name: "undated.jpg", Kind: "photo"})

	counts, err := s.DateCounts(ctx, project.ID)
	if err != nil {
		t.Fatalf("DateCounts failed: %v", err)
	}

	if counts.ByDay["2024-06-01"] != 2 {
		t.Errorf("Expected 2 on 2024-06-01, got %d", counts.ByDay["2024-06-01"])
	}
	if counts.ByMonth["2024-06"] != 2 || counts.ByMonth["2024-07"] != 1 {
		t.Errorf("Unexpected month rollup: %v", counts.ByMonth)
	}
	if counts.ByYear[2024] != 3 || counts.ByYear[2023] != 1 {
		t.Errorf("Unexpected year rollup: %v", counts.ByYear)
	}
	if total := len(counts.ByDay); total != 3 {
		t.Errorf("Expected 3 distinct days, got %d", total)
	}
}
