package service

import (
	"context"
	"fmt"

	"docuhub/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StorageByDepartment struct {
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name"`
	DocumentCount  int64  `json:"document_count"`
	StorageMB      string `json:"storage_mb"`
}

type DocumentStatisticsResponse struct {
	TotalDocuments   int64                 `json:"total_documents"`
	CountByStatus    map[string]int64      `json:"count_by_status"`
	TotalStorageMB   string                `json:"total_storage_mb"`
	StorageByDept    []StorageByDepartment `json:"storage_by_department"`
	TotalAnnotations int64                 `json:"total_annotations"`
}

type StatisticsService interface {
	GetDocumentStatistics(ctx context.Context) (*DocumentStatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService creates a new StatisticsService instance
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

var bytesPerMB = decimal.NewFromInt(1024 * 1024)

func (s *statisticsService) GetDocumentStatistics(ctx context.Context) (*DocumentStatisticsResponse, error) {
	resp := &DocumentStatisticsResponse{
		CountByStatus: make(map[string]int64),
	}

	if err := s.db.WithContext(ctx).Model(&model.Document{}).Count(&resp.TotalDocuments).Error; err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Document{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, fmt.Errorf("failed to count documents by status: %w", err)
	}
	for _, row := range statusRows {
		resp.CountByStatus[row.Status] = row.Count
	}

	var totalBytes int64
	if err := s.db.WithContext(ctx).Model(&model.Document{}).
		Select("COALESCE(SUM(file_size), 0)").
		Scan(&totalBytes).Error; err != nil {
		return nil, fmt.Errorf("failed to sum storage: %w", err)
	}
	resp.TotalStorageMB = decimal.NewFromInt(totalBytes).DivRound(bytesPerMB, 2).StringFixed(2)

	var deptRows []struct {
		DepartmentID   string
		DepartmentName string
		DocumentCount  int64
		TotalBytes     int64
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT d.id AS department_id, d.name AS department_name,
		       COUNT(doc.id) AS document_count,
		       COALESCE(SUM(doc.file_size), 0) AS total_bytes
		FROM departments d
		LEFT JOIN documents doc ON doc.assigned_to_department = d.id
		GROUP BY d.id, d.name
		ORDER BY d.name ASC
	`).Scan(&deptRows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate storage by department: %w", err)
	}
	for _, row := range deptRows {
		resp.StorageByDept = append(resp.StorageByDept, StorageByDepartment{
			DepartmentID:   row.DepartmentID,
			DepartmentName: row.DepartmentName,
			DocumentCount:  row.DocumentCount,
			StorageMB:      decimal.NewFromInt(row.TotalBytes).DivRound(bytesPerMB, 2).StringFixed(2),
		})
	}

	if err := s.db.WithContext(ctx).Model(&model.Annotation{}).Count(&resp.TotalAnnotations).Error; err != nil {
		return nil, fmt.Errorf("failed to count annotations: %w", err)
	}

	return resp, nil
}
