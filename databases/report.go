package databases

// go generate: mockery --name ReportDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/reportform-dashboard/models"
)

// ReportDatabase is the remote report table as the dashboard sees it: read
// every row, or set the status of one row. An update that matches no row is
// not an error.
type ReportDatabase interface {
	ReadAll(ctx context.Context) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
}

type mongoReportDatabase struct {
	db    DatabaseHelper
	table string
}

// NewMongoReportDatabase initializes a report database backed by the mongo
// collection named table
func NewMongoReportDatabase(db DatabaseHelper, table string) ReportDatabase {
	return &mongoReportDatabase{
		db:    db,
		table: table,
	}
}

func (c *mongoReportDatabase) ReadAll(ctx context.Context) ([]models.Report, error) {
	cursor, err := c.db.Collection(c.table).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// UpdateStatus also stamps update_at, which a Postgres table gets from a trigger
func (c *mongoReportDatabase) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	_, err := c.db.Collection(c.table).UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{
			"$set":         bson.M{"status": status},
			"$currentDate": bson.M{"update_at": true},
		},
	)
	return err
}
