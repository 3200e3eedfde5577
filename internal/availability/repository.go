package availability

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, block *Availability) error
	GetByID(ctx context.Context, id uint) (*Availability, error)
	ListForGuide(ctx context.Context, guideID uint, from, to *time.Time) ([]Availability, error)
	Update(ctx context.Context, block *Availability) error
	Delete(ctx context.Context, id uint) error
	DeleteForTrip(ctx context.Context, tripID uint, guideIDs []uint) error

	UpsertShare(ctx context.Context, share *AvailabilityShare) error
	ListShares(ctx context.Context, availabilityID uint) ([]AvailabilityShare, error)
	DeleteShare(ctx context.Context, availabilityID, serviceID uint) error

	GetIntegration(ctx context.Context, id uint) (*CalendarIntegration, error)
	ListIntegrations(ctx context.Context, guideID uint) ([]CalendarIntegration, error)
	CreateIntegration(ctx context.Context, integration *CalendarIntegration) error
	SaveIntegration(ctx context.Context, integration *CalendarIntegration) error
	DeleteIntegration(ctx context.Context, id uint) error

	ListExternalEvents(ctx context.Context, integrationID uint) ([]ExternalEvent, error)
	SaveExternalEvent(ctx context.Context, event *ExternalEvent) error
	DeleteExternalEvents(ctx context.Context, integrationID uint, uids []string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, block *Availability) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Availability, error) {
	var block Availability
	err := r.db.WithContext(ctx).First(&block, id).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *repository) ListForGuide(ctx context.Context, guideID uint, from, to *time.Time) ([]Availability, error) {
	query := r.db.WithContext(ctx).Where("guide_id = ?", guideID)
	if from != nil {
		query = query.Where(`"end" > ?`, *from)
	}
	if to != nil {
		query = query.Where("start < ?", *to)
	}

	var blocks []Availability
	err := query.Order("start, id").Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *repository) Update(ctx context.Context, block *Availability) error {
	return r.db.WithContext(ctx).Save(block).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("availability_id = ?", id).Delete(&AvailabilityShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Availability{}, id).Error
	})
}

// DeleteForTrip removes the assignment-sourced blocks mirroring a trip for
// the given guides.
func (r *repository) DeleteForTrip(ctx context.Context, tripID uint, guideIDs []uint) error {
	if len(guideIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("trip_id = ? AND source = ? AND guide_id IN ?", tripID, SourceAssignment, guideIDs).
		Delete(&Availability{}).Error
}

func (r *repository) UpsertShare(ctx context.Context, share *AvailabilityShare) error {
	var existing AvailabilityShare
	err := r.db.WithContext(ctx).
		Where("availability_id = ? AND guide_service_id = ?", share.AvailabilityID, share.GuideServiceID).
		First(&existing).Error
	if err == nil {
		existing.Visibility = share.Visibility
		*share = existing
		return r.db.WithContext(ctx).Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(share).Error
}

func (r *repository) ListShares(ctx context.Context, availabilityID uint) ([]AvailabilityShare, error) {
	var shares []AvailabilityShare
	err := r.db.WithContext(ctx).
		Where("availability_id = ?", availabilityID).
		Order("guide_service_id").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *repository) DeleteShare(ctx context.Context, availabilityID, serviceID uint) error {
	return r.db.WithContext(ctx).
		Where("availability_id = ? AND guide_service_id = ?", availabilityID, serviceID).
		Delete(&AvailabilityShare{}).Error
}

func (r *repository) GetIntegration(ctx context.Context, id uint) (*CalendarIntegration, error) {
	var integration CalendarIntegration
	err := r.db.WithContext(ctx).First(&integration, id).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

func (r *repository) ListIntegrations(ctx context.Context, guideID uint) ([]CalendarIntegration, error) {
	var integrations []CalendarIntegration
	err := r.db.WithContext(ctx).Where("guide_id = ?", guideID).Order("id").Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *repository) CreateIntegration(ctx context.Context, integration *CalendarIntegration) error {
	return r.db.WithContext(ctx).Create(integration).Error
}

func (r *repository) SaveIntegration(ctx context.Context, integration *CalendarIntegration) error {
	return r.db.WithContext(ctx).Save(integration).Error
}

func (r *repository) DeleteIntegration(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []ExternalEvent
		if err := tx.Where("integration_id = ?", id).Find(&events).Error; err != nil {
			return err
		}
		for _, event := range events {
			if event.AvailabilityID != nil {
				if err := tx.Delete(&Availability{}, *event.AvailabilityID).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("integration_id = ?", id).Delete(&ExternalEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&CalendarIntegration{}, id).Error
	})
}

func (r *repository) ListExternalEvents(ctx context.Context, integrationID uint) ([]ExternalEvent, error) {
	var events []ExternalEvent
	err := r.db.WithContext(ctx).Where("integration_id = ?", integrationID).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) SaveExternalEvent(ctx context.Context, event *ExternalEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// DeleteExternalEvents removes stale uids along with the availability rows
// they mirrored.
func (r *repository) DeleteExternalEvents(ctx context.Context, integrationID uint, uids []string) error {
	if len(uids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []ExternalEvent
		if err := tx.Where("integration_id = ? AND uid IN ?", integrationID, uids).Find(&events).Error; err != nil {
			return err
		}
		for _, event := range events {
			if event.AvailabilityID != nil {
				if err := tx.Delete(&Availability{}, *event.AvailabilityID).Error; err != nil {
					return err
				}
			}
		}
		return tx.Where("integration_id = ? AND uid IN ?", integrationID, uids).Delete(&ExternalEvent{}).Error
	})
}
