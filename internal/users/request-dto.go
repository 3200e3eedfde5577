package users

// UpdateProfileRequest updates the current user's profile fields
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=120"`
	LastName    *string `json:"last_name" binding:"omitempty,max=120"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=120"`
}

// InviteRequest invites an email address onto a service roster
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=OWNER OFFICE_MANAGER GUIDE owner office_manager guide"`
}

// AcceptInvitationRequest carries the raw invitation token
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}
