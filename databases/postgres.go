package databases

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/linesmerrill/reportform-dashboard/models"
)

// pgReportRow maps a reportform row read straight from Postgres
type pgReportRow struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	File      *string    `gorm:"column:file"`
	Location  *string    `gorm:"column:location"`
	DateTime  *time.Time `gorm:"column:date_time"`
	Detail    *string    `gorm:"column:detail"`
	CreatedBy *string    `gorm:"column:created_by"`
	UpdateAt  *time.Time `gorm:"column:update_at"`
	Status    *string    `gorm:"column:status"`
}

func (r pgReportRow) toModel() models.Report {
	rep := models.Report{
		ID:        r.ID,
		File:      deref(r.File),
		Location:  deref(r.Location),
		Detail:    deref(r.Detail),
		CreatedBy: deref(r.CreatedBy),
		Status:    models.Status(deref(r.Status)),
	}
	if r.DateTime != nil {
		rep.DateTime = *r.DateTime
	}
	if r.UpdateAt != nil {
		rep.UpdateAt = *r.UpdateAt
	}
	return rep
}

// OpenPostgres connects gorm to the Postgres database behind dsn
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

type postgresReportDatabase struct {
	db    *gorm.DB
	table string
}

// NewPostgresReportDatabase returns a report database that queries table
// directly through gorm
func NewPostgresReportDatabase(db *gorm.DB, table string) ReportDatabase {
	return &postgresReportDatabase{
		db:    db,
		table: table,
	}
}

func (p *postgresReportDatabase) ReadAll(ctx context.Context) ([]models.Report, error) {
	var rows []pgReportRow
	if err := p.db.WithContext(ctx).Table(p.table).Find(&rows).Error; err != nil {
		return nil, err
	}
	reports := make([]models.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.toModel())
	}
	return reports, nil
}

func (p *postgresReportDatabase) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	return p.db.WithContext(ctx).
		Table(p.table).
		Where("id = ?", id).
		Update("status", string(status)).
		Error
}
