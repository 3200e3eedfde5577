package bookings

// UpdatePartyRequest partially updates a party. Sizes below the number of
// confirmed guests are rejected.
type UpdatePartyRequest struct {
	PartySize *int `json:"party_size,omitempty" binding:"omitempty,min=1"`
}

// GuestLinkRequest issues a fresh magic link for a guest on a party. TTL
// hours extend past the trip's end.
type GuestLinkRequest struct {
	GuestID  uint `json:"guest_id" binding:"required"`
	PartyID  uint `json:"party_id" binding:"required"`
	TTLHours int  `json:"ttl_hours" binding:"omitempty,min=1,max=720"`
}

// GuestSelfUpdateRequest is the portal's token-authenticated profile edit.
type GuestSelfUpdateRequest struct {
	FirstName             *string `json:"first_name,omitempty" binding:"omitempty,max=120"`
	LastName              *string `json:"last_name,omitempty" binding:"omitempty,max=120"`
	Phone                 *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	DateOfBirth           *string `json:"date_of_birth,omitempty"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty" binding:"omitempty,max=200"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty" binding:"omitempty,max=30"`
	MedicalNotes          *string `json:"medical_notes,omitempty"`
	DietaryNotes          *string `json:"dietary_notes,omitempty"`
}
