package availability

import (
	"testing"
	"time"
)

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func uintPtr(v uint) *uint { return &v }

func TestRangesOverlap(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"identical ranges", "2024-05-01T10:00:00Z", "2024-05-01T12:00:00Z", "2024-05-01T10:00:00Z", "2024-05-01T12:00:00Z", true},
		{"partial overlap", "2024-05-01T09:00:00Z", "2024-05-01T11:00:00Z", "2024-05-01T10:00:00Z", "2024-05-01T12:00:00Z", true},
		{"containment", "2024-05-01T09:00:00Z", "2024-05-01T13:00:00Z", "2024-05-01T10:00:00Z", "2024-05-01T11:00:00Z", true},
		{"disjoint", "2024-05-01T08:00:00Z", "2024-05-01T09:00:00Z", "2024-05-01T10:00:00Z", "2024-05-01T11:00:00Z", false},
		{"touching at boundary does not overlap", "2024-05-01T08:00:00Z", "2024-05-01T10:00:00Z", "2024-05-01T10:00:00Z", "2024-05-01T12:00:00Z", false},
		{"touching the other way", "2024-05-01T10:00:00Z", "2024-05-01T12:00:00Z", "2024-05-01T08:00:00Z", "2024-05-01T10:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangesOverlap(ts(tt.aStart), ts(tt.aEnd), ts(tt.bStart), ts(tt.bEnd))
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}

			// Overlap is symmetric
			swapped := RangesOverlap(ts(tt.bStart), ts(tt.bEnd), ts(tt.aStart), ts(tt.aEnd))
			if swapped != got {
				t.Errorf("symmetry broken: a-b=%v, b-a=%v", got, swapped)
			}
		})
	}
}

func TestFindOverlappingUnavailableEvents_FiltersAvailableBlocks(t *testing.T) {
	events := []Availability{
		{ID: 1, Start: ts("2024-05-01T10:00:00Z"), End: ts("2024-05-01T12:30:00Z"), IsAvailable: false},
		{ID: 2, Start: ts("2024-05-01T09:30:00Z"), End: ts("2024-05-01T10:30:00Z"), IsAvailable: true},
	}

	got := FindOverlappingUnavailableEvents(events, "2024-05-01T09:00:00Z", "2024-05-01T11:00:00Z", ConflictOptions{})
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(got))
	}
	if got[0].ID != 1 {
		t.Errorf("expected conflict with block 1, got block %d", got[0].ID)
	}
}

func TestFindOverlappingUnavailableEvents_ExcludesEditedBlock(t *testing.T) {
	events := []Availability{
		{ID: 3, Start: ts("2024-05-01T07:00:00Z"), End: ts("2024-05-01T10:30:00Z"), IsAvailable: false},
	}

	got := FindOverlappingUnavailableEvents(events, "2024-05-01T09:00:00Z", "2024-05-01T11:00:00Z", ConflictOptions{
		ExcludeAvailabilityID: uintPtr(3),
	})
	if len(got) != 0 {
		t.Errorf("expected no conflicts when the edited block is excluded, got %d", len(got))
	}

	// Without the exclusion the same block conflicts
	got = FindOverlappingUnavailableEvents(events, "2024-05-01T09:00:00Z", "2024-05-01T11:00:00Z", ConflictOptions{})
	if len(got) != 1 {
		t.Errorf("expected 1 conflict without exclusion, got %d", len(got))
	}
}

func TestFindOverlappingUnavailableEvents_UnparseableWindow(t *testing.T) {
	events := []Availability{
		{ID: 1, Start: ts("2024-05-01T10:00:00Z"), End: ts("2024-05-01T12:00:00Z"), IsAvailable: false},
	}

	for _, window := range [][2]string{
		{"not-a-date", "2024-05-01T11:00:00Z"},
		{"2024-05-01T09:00:00Z", ""},
		{"", ""},
	} {
		got := FindOverlappingUnavailableEvents(events, window[0], window[1], ConflictOptions{})
		if len(got) != 0 {
			t.Errorf("window %q..%q: expected empty result, got %d", window[0], window[1], len(got))
		}
		if got == nil {
			t.Errorf("window %q..%q: expected empty slice, got nil", window[0], window[1])
		}
	}
}

func TestFindOverlappingUnavailableEvents_PreservesInputOrder(t *testing.T) {
	events := []Availability{
		{ID: 5, Start: ts("2024-05-01T10:00:00Z"), End: ts("2024-05-01T11:00:00Z"), IsAvailable: false},
		{ID: 2, Start: ts("2024-05-01T08:00:00Z"), End: ts("2024-05-01T09:30:00Z"), IsAvailable: false},
		{ID: 9, Start: ts("2024-05-01T09:00:00Z"), End: ts("2024-05-01T10:30:00Z"), IsAvailable: false},
	}

	got := FindOverlappingUnavailableEvents(events, "2024-05-01T08:30:00Z", "2024-05-01T11:00:00Z", ConflictOptions{})
	if len(got) != 3 {
		t.Fatalf("expected 3 conflicts, got %d", len(got))
	}
	for i, wantID := range []uint{5, 2, 9} {
		if got[i].ID != wantID {
			t.Errorf("position %d: expected block %d, got %d", i, wantID, got[i].ID)
		}
	}
}

func TestFindOverlappingUnavailableEvents_DateOnlyWindow(t *testing.T) {
	events := []Availability{
		{ID: 1, Start: ts("2024-05-01T10:00:00Z"), End: ts("2024-05-01T12:00:00Z"), IsAvailable: false},
	}

	got := FindOverlappingUnavailableEvents(events, "2024-05-01", "2024-05-02", ConflictOptions{})
	if len(got) != 1 {
		t.Errorf("expected date-only window to parse and conflict, got %d results", len(got))
	}
}
