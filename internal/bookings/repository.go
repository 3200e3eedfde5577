package bookings

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Guest profiles
	GetGuestByID(ctx context.Context, id uint) (*GuestProfile, error)
	GetGuestByEmail(ctx context.Context, email string) (*GuestProfile, error)
	CreateGuest(ctx context.Context, guest *GuestProfile) error
	UpdateGuest(ctx context.Context, guest *GuestProfile) error
	SearchGuests(ctx context.Context, query string) ([]GuestProfile, error)

	// Parties
	CreateParty(ctx context.Context, party *TripParty) error
	GetParty(ctx context.Context, id uint) (*TripParty, error)
	ListPartiesForTrip(ctx context.Context, tripID uint) ([]TripParty, error)
	ListPartiesForGuest(ctx context.Context, guestID uint) ([]TripParty, error)
	UpdateParty(ctx context.Context, party *TripParty) error
	AddPartyGuest(ctx context.Context, link *PartyGuest) error
	CountPartyGuests(ctx context.Context, partyID uint) (int64, error)

	// Access tokens
	CreateToken(ctx context.Context, token *GuestAccessToken) error
	GetTokenByHash(ctx context.Context, hash string) (*GuestAccessToken, error)
	UpdateToken(ctx context.Context, token *GuestAccessToken) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetGuestByID(ctx context.Context, id uint) (*GuestProfile, error) {
	var guest GuestProfile
	if err := r.db.WithContext(ctx).First(&guest, id).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *repository) GetGuestByEmail(ctx context.Context, email string) (*GuestProfile, error) {
	var guest GuestProfile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&guest).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *repository) CreateGuest(ctx context.Context, guest *GuestProfile) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

func (r *repository) UpdateGuest(ctx context.Context, guest *GuestProfile) error {
	return r.db.WithContext(ctx).Save(guest).Error
}

func (r *repository) SearchGuests(ctx context.Context, query string) ([]GuestProfile, error) {
	var guests []GuestProfile
	q := r.db.WithContext(ctx).Model(&GuestProfile{})
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern, pattern)
	}
	err := q.Order("last_name, first_name, email").Find(&guests).Error
	return guests, err
}

func (r *repository) CreateParty(ctx context.Context, party *TripParty) error {
	return r.db.WithContext(ctx).Create(party).Error
}

func (r *repository) GetParty(ctx context.Context, id uint) (*TripParty, error) {
	var party TripParty
	err := r.db.WithContext(ctx).
		Preload("PrimaryGuest").
		Preload("PartyGuests.Guest").
		First(&party, id).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *repository) ListPartiesForTrip(ctx context.Context, tripID uint) ([]TripParty, error) {
	var parties []TripParty
	err := r.db.WithContext(ctx).
		Preload("PrimaryGuest").
		Preload("PartyGuests.Guest").
		Where("trip_id = ?", tripID).
		Order("created_at, id").
		Find(&parties).Error
	return parties, err
}

func (r *repository) ListPartiesForGuest(ctx context.Context, guestID uint) ([]TripParty, error) {
	var parties []TripParty
	err := r.db.WithContext(ctx).
		Preload("PrimaryGuest").
		Joins("JOIN trip_party_guests ON trip_party_guests.party_id = trip_parties.id").
		Where("trip_party_guests.guest_id = ?", guestID).
		Order("trip_parties.created_at DESC").
		Find(&parties).Error
	return parties, err
}

func (r *repository) UpdateParty(ctx context.Context, party *TripParty) error {
	return r.db.WithContext(ctx).Omit("PrimaryGuest", "PartyGuests").Save(party).Error
}

func (r *repository) AddPartyGuest(ctx context.Context, link *PartyGuest) error {
	var existing PartyGuest
	err := r.db.WithContext(ctx).
		Where("party_id = ? AND guest_id = ?", link.PartyID, link.GuestID).
		First(&existing).Error
	if err == nil {
		*link = existing
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *repository) CountPartyGuests(ctx context.Context, partyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PartyGuest{}).
		Where("party_id = ?", partyID).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateToken(ctx context.Context, token *GuestAccessToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *repository) GetTokenByHash(ctx context.Context, hash string) (*GuestAccessToken, error) {
	var token GuestAccessToken
	err := r.db.WithContext(ctx).
		Preload("GuestProfile").
		Preload("Party").
		Where("token_hash = ?", hash).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *repository) UpdateToken(ctx context.Context, token *GuestAccessToken) error {
	return r.db.WithContext(ctx).Omit("GuestProfile", "Party").Save(token).Error
}
