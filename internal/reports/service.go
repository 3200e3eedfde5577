package reports

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"anchorpoint/internal/trips"
	"anchorpoint/internal/users"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrTripNotFound   = errors.New("trip not found")
	ErrNotAssigned    = errors.New("author is not assigned to trip")
	ErrNotAuthor      = errors.New("only the author can modify a report")
)

// TripDirectory resolves trips and their guide assignments. Satisfied by
// trips.Repository.
type TripDirectory interface {
	GetByID(ctx context.Context, id uint) (*trips.Trip, error)
	ListAssignments(ctx context.Context, tripID uint) ([]trips.Assignment, error)
}

// RosterDirectory checks membership roles. Satisfied by users.Repository.
type RosterDirectory interface {
	HasActiveRole(ctx context.Context, userID, serviceID uint, roles ...users.Role) (bool, error)
}

type CreateReportRequest struct {
	Summary    string `json:"summary" binding:"required"`
	Conditions string `json:"conditions"`
	Incidents  string `json:"incidents"`
}

type UpdateReportRequest struct {
	Summary    *string `json:"summary"`
	Conditions *string `json:"conditions"`
	Incidents  *string `json:"incidents"`
}

type Service interface {
	CreateReport(ctx context.Context, serviceID, tripID, authorID uint, req *CreateReportRequest) (*TripReport, error)
	ListReports(ctx context.Context, serviceID, tripID uint) ([]TripReport, error)
	GetReport(ctx context.Context, serviceID, tripID, reportID uint) (*TripReport, error)
	UpdateReport(ctx context.Context, serviceID, tripID, reportID, editorID uint, req *UpdateReportRequest) (*TripReport, error)
	DeleteReport(ctx context.Context, serviceID, tripID, reportID, editorID uint) error
}

type service struct {
	repo     Repository
	tripRepo TripDirectory
	roster   RosterDirectory
}

func NewService(repo Repository, tripRepo TripDirectory, roster RosterDirectory) Service {
	return &service{repo: repo, tripRepo: tripRepo, roster: roster}
}

func (s *service) CreateReport(ctx context.Context, serviceID, tripID, authorID uint, req *CreateReportRequest) (*TripReport, error) {
	trip, err := s.getOwnedTrip(ctx, serviceID, tripID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canWrite(ctx, trip, authorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: user %d on trip %d", ErrNotAssigned, authorID, tripID)
	}

	report := &TripReport{
		TripID:     trip.ID,
		AuthorID:   authorID,
		Summary:    req.Summary,
		Conditions: req.Conditions,
		Incidents:  req.Incidents,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

func (s *service) ListReports(ctx context.Context, serviceID, tripID uint) ([]TripReport, error) {
	if _, err := s.getOwnedTrip(ctx, serviceID, tripID); err != nil {
		return nil, err
	}
	reports, err := s.repo.ListForTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (s *service) GetReport(ctx context.Context, serviceID, tripID, reportID uint) (*TripReport, error) {
	if _, err := s.getOwnedTrip(ctx, serviceID, tripID); err != nil {
		return nil, err
	}
	return s.getOwnedReport(ctx, tripID, reportID)
}

func (s *service) UpdateReport(ctx context.Context, serviceID, tripID, reportID, editorID uint, req *UpdateReportRequest) (*TripReport, error) {
	if _, err := s.getOwnedTrip(ctx, serviceID, tripID); err != nil {
		return nil, err
	}
	report, err := s.getOwnedReport(ctx, tripID, reportID)
	if err != nil {
		return nil, err
	}
	if report.AuthorID != editorID {
		return nil, ErrNotAuthor
	}

	if req.Summary != nil {
		report.Summary = *req.Summary
	}
	if req.Conditions != nil {
		report.Conditions = *req.Conditions
	}
	if req.Incidents != nil {
		report.Incidents = *req.Incidents
	}
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	return report, nil
}

// DeleteReport removes a report. The author may delete their own; owners and
// office managers may delete any.
func (s *service) DeleteReport(ctx context.Context, serviceID, tripID, reportID, editorID uint) error {
	if _, err := s.getOwnedTrip(ctx, serviceID, tripID); err != nil {
		return err
	}
	report, err := s.getOwnedReport(ctx, tripID, reportID)
	if err != nil {
		return err
	}

	if report.AuthorID != editorID {
		isManager, err := s.roster.HasActiveRole(ctx, editorID, serviceID, users.ManagementRoles...)
		if err != nil {
			return fmt.Errorf("failed to check role: %w", err)
		}
		if !isManager {
			return ErrNotAuthor
		}
	}

	if err := s.repo.Delete(ctx, reportID); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// canWrite allows assigned guides and service management to file reports.
func (s *service) canWrite(ctx context.Context, trip *trips.Trip, userID uint) (bool, error) {
	assignments, err := s.tripRepo.ListAssignments(ctx, trip.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list assignments: %w", err)
	}
	for _, a := range assignments {
		if a.GuideID == userID {
			return true, nil
		}
	}
	return s.roster.HasActiveRole(ctx, userID, trip.GuideServiceID, users.ManagementRoles...)
}

func (s *service) getOwnedTrip(ctx context.Context, serviceID, tripID uint) (*trips.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to fetch trip: %w", err)
	}
	if trip.GuideServiceID != serviceID {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

func (s *service) getOwnedReport(ctx context.Context, tripID, reportID uint) (*TripReport, error) {
	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	if report.TripID != tripID {
		return nil, ErrReportNotFound
	}
	return report, nil
}
