package availability

import (
	"testing"
)

func TestBuildInitialFormValues_Create(t *testing.T) {
	values := BuildInitialFormValues(FormState{
		Mode:      FormModeCreate,
		SlotStart: "2024-05-01T10:00:00Z",
		SlotEnd:   "2024-05-01T12:00:00Z",
	})

	if values.Start != "2024-05-01T10:00:00Z" || values.End != "2024-05-01T12:00:00Z" {
		t.Errorf("expected slot times echoed, got %q..%q", values.Start, values.End)
	}
	if values.Visibility != VisibilityBusy {
		t.Errorf("expected default visibility busy, got %q", values.Visibility)
	}
	if values.GuideService != "" {
		t.Errorf("expected empty guide service, got %q", values.GuideService)
	}
	if values.IsAvailable {
		t.Error("expected new blocks to default to unavailable")
	}
	if values.Note != "" {
		t.Errorf("expected empty note, got %q", values.Note)
	}
}

func TestBuildInitialFormValues_Edit(t *testing.T) {
	block := &Availability{
		ID:             7,
		GuideServiceID: uintPtr(42),
		Start:          ts("2024-05-01T10:00:00Z"),
		End:            ts("2024-05-01T12:00:00Z"),
		IsAvailable:    true,
		Visibility:     VisibilityDetail,
		Note:           "morning paddle",
	}

	values := BuildInitialFormValues(FormState{Mode: FormModeEdit, Event: block})

	if values.Visibility != VisibilityDetail {
		t.Errorf("expected persisted visibility echoed, got %q", values.Visibility)
	}
	if values.GuideService != "42" {
		t.Errorf("expected guide service 42, got %q", values.GuideService)
	}
	if values.Note != "morning paddle" {
		t.Errorf("expected note echoed, got %q", values.Note)
	}
	if !values.IsAvailable {
		t.Error("expected is_available echoed")
	}
	if values.Start != "2024-05-01T10:00:00Z" {
		t.Errorf("expected persisted start echoed, got %q", values.Start)
	}
}

func TestBuildInitialFormValues_EditWithoutService(t *testing.T) {
	block := &Availability{
		ID:         8,
		Start:      ts("2024-05-02T08:00:00Z"),
		End:        ts("2024-05-02T09:00:00Z"),
		Visibility: VisibilityPrivate,
	}

	values := BuildInitialFormValues(FormState{Mode: FormModeEdit, Event: block})
	if values.GuideService != "" {
		t.Errorf("expected empty guide service for unassigned block, got %q", values.GuideService)
	}
	if values.Visibility != VisibilityPrivate {
		t.Errorf("expected private visibility echoed, got %q", values.Visibility)
	}
}
