package availability

import (
	"strconv"
	"time"
)

// FormMode selects how BuildInitialFormValues seeds the editing form.
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
)

// FormState is the input to BuildInitialFormValues: either a selected
// calendar slot (create) or an existing block (edit).
type FormState struct {
	Mode      FormMode
	SlotStart string
	SlotEnd   string
	Event     *Availability
}

// FormValues are the initial field values of the availability form.
// GuideService is a string because it is a form field; empty means
// unassigned.
type FormValues struct {
	Start        string     `json:"start"`
	End          string     `json:"end"`
	IsAvailable  bool       `json:"is_available"`
	Visibility   Visibility `json:"visibility"`
	GuideService string     `json:"guide_service"`
	Note         string     `json:"note"`
}

// BuildInitialFormValues maps calendar state to form fields. Create seeds
// from the selected slot with busy visibility and no service; edit echoes
// the persisted block verbatim. No validation happens here; that belongs
// to submit time.
func BuildInitialFormValues(state FormState) FormValues {
	if state.Mode == FormModeEdit && state.Event != nil {
		event := state.Event
		values := FormValues{
			Start:       event.Start.Format(time.RFC3339),
			End:         event.End.Format(time.RFC3339),
			IsAvailable: event.IsAvailable,
			Visibility:  event.Visibility,
			Note:        event.Note,
		}
		if event.GuideServiceID != nil {
			values.GuideService = strconv.FormatUint(uint64(*event.GuideServiceID), 10)
		}
		return values
	}

	return FormValues{
		Start:        state.SlotStart,
		End:          state.SlotEnd,
		IsAvailable:  false,
		Visibility:   VisibilityBusy,
		GuideService: "",
		Note:         "",
	}
}
