package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrReportForbidden = errors.New("report belongs to another company")
)

type ReportService struct {
	reportRepo *repository.ReportRepository
}

func NewReportService(reportRepo *repository.ReportRepository) *ReportService {
	return &ReportService{reportRepo: reportRepo}
}

func (s *ReportService) CreateReport(createdBy int64, req *dto.CreateReportRequest) (*model.Report, error) {
	report := &model.Report{
		CompanyID:   req.CompanyID,
		Title:       req.Title,
		Description: req.Description,
		EmbedURL:    req.EmbedURL,
		EmbedToken:  uuid.NewString(),
		CreatedBy:   createdBy,
	}
	if err := s.reportRepo.Create(report); err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport scopes access to the caller's company.
func (s *ReportService) GetReport(id, companyID int64) (*model.Report, error) {
	report, err := s.reportRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if report.CompanyID != companyID {
		return nil, ErrReportForbidden
	}
	return report, nil
}

func (s *ReportService) UpdateReport(id, companyID int64, req *dto.UpdateReportRequest) (*model.Report, error) {
	if _, err := s.GetReport(id, companyID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.EmbedURL != nil {
		fields["embed_url"] = *req.EmbedURL
		// URL changes invalidate the old embed token.
		fields["embed_token"] = uuid.NewString()
	}
	if len(fields) > 0 {
		if err := s.reportRepo.UpdateFields(id, fields); err != nil {
			return nil, err
		}
	}

	return s.GetReport(id, companyID)
}

func (s *ReportService) DeleteReport(id, companyID int64) error {
	if _, err := s.GetReport(id, companyID); err != nil {
		return err
	}
	return s.reportRepo.Delete(id)
}

func (s *ReportService) ListReports(companyID int64, page, pageSize int) ([]model.Report, int64, error) {
	return s.reportRepo.ListByCompany(companyID, page, pageSize)
}
