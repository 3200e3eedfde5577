package orgs

// CreateServiceRequest creates a new guide service
type CreateServiceRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=200"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"omitempty,max=40"`
	LogoURL      string `json:"logo_url" binding:"omitempty,url"`
	Timezone     string `json:"timezone" binding:"omitempty,max=64"`
}

// UpdateServiceRequest partially updates a guide service
type UpdateServiceRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,min=2,max=200"`
	ContactEmail *string `json:"contact_email,omitempty" binding:"omitempty,email"`
	Phone        *string `json:"phone,omitempty" binding:"omitempty,max=40"`
	LogoURL      *string `json:"logo_url,omitempty" binding:"omitempty,url"`
	Timezone     *string `json:"timezone,omitempty" binding:"omitempty,max=64"`
}
