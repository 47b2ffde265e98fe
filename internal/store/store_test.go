package store

import (
	"context"
	"testing"
	"time"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_RecordDocumentUpserts(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	first := DocumentRecord{SourceKey: "acme-term.pdf", CarrierID: "acme", Chunks: 10, Vectors: 9, Status: StatusIndexed}
	if err := s.RecordDocument(ctx, first); err != nil {
		t.Fatalf("record: %v", err)
	}
	second := first
	second.Vectors = 10
	if err := s.RecordDocument(ctx, second); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	if err := s.RecordDocument(ctx, DocumentRecord{SourceKey: "broken.pdf", CarrierID: "broken", Status: StatusFailed, Error: "upsert failed"}); err != nil {
		t.Fatalf("record failed doc: %v", err)
	}

	docs, err := s.Documents(ctx)
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("want 2 documents, got %d", len(docs))
	}
	if docs[0].SourceKey != "acme-term.pdf" || docs[0].Vectors != 10 {
		t.Errorf("docs[0]: want acme-term.pdf with 10 vectors, got %s/%d", docs[0].SourceKey, docs[0].Vectors)
	}
	if docs[1].Status != StatusFailed || docs[1].Error != "upsert failed" {
		t.Errorf("docs[1]: want failed status with error, got %s/%q", docs[1].Status, docs[1].Error)
	}
}

func Test_Store_CursorAdvancesAndResets(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if got, err := s.Cursor(ctx, "dir:/guides"); err != nil || got != 0 {
		t.Fatalf("initial cursor: got %d, %v", got, err)
	}

	now := time.Now()
	if err := s.RecordRun(ctx, Run{Scope: "dir:/guides", Offset: 0, Documents: 5, Inserted: 50, NextOffset: 5, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if got, _ := s.Cursor(ctx, "dir:/guides"); got != 5 {
		t.Errorf("cursor after page 1: want 5, got %d", got)
	}

	if err := s.RecordRun(ctx, Run{Scope: "dir:/guides", Offset: 5, Documents: 2, Inserted: 20, NextOffset: 7, Done: true, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if got, _ := s.Cursor(ctx, "dir:/guides"); got != 0 {
		t.Errorf("cursor after final page: want 0, got %d", got)
	}

	if got, _ := s.Cursor(ctx, "urls"); got != 0 {
		t.Errorf("scopes must be isolated, got %d", got)
	}
}

func Test_Store_RecentRunsOldestFirst(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 4; i++ {
		if err := s.RecordRun(ctx, Run{Scope: "urls", Offset: i * 5, NextOffset: (i + 1) * 5, StartedAt: now, FinishedAt: now}); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns(ctx, "urls", 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("want 2 runs, got %d", len(runs))
	}
	if runs[0].Offset != 10 || runs[1].Offset != 15 {
		t.Errorf("want offsets [10 15], got [%d %d]", runs[0].Offset, runs[1].Offset)
	}
}

func Test_Store_EmptyLedger(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	docs, err := s.Documents(context.Background())
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if docs != nil {
		t.Errorf("want nil, got %v", docs)
	}
}
