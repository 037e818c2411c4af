package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet-dashboard/internal/model"
)

type VehiclePositionRepository struct {
	db *gorm.DB
}

func NewVehiclePositionRepository(db *gorm.DB) *VehiclePositionRepository {
	return &VehiclePositionRepository{db: db}
}

func (r *VehiclePositionRepository) ListLatest(ctx context.Context) ([]model.VehiclePosition, error) {
	var positions []model.VehiclePosition
	err := r.db.WithContext(ctx).
		Order("vehicle_name ASC").
		Find(&positions).Error
	return positions, err
}

func (r *VehiclePositionRepository) ClearJob(ctx context.Context, jobID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Table("vehicle_positions").
		Where("job_id = ?", jobID).
		Update("job_id", nil)
	return res.RowsAffected, res.Error
}

func (r *VehiclePositionRepository) Refresh(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT refresh_vehicle_positions()").Error
}
