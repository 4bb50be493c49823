package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// Repository defines the interface for summary archival.
type Repository interface {
	SaveMonthlySummary(ctx context.Context, summary *models.MonthlySummary, imageKey string) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "monthly_summaries",
		logger:   logger,
	}, nil
}

// Database returns the handle of the configured database.
func (r *MongoDBRepository) Database() *mongo.Database {
	return r.client.Database(r.dbName)
}

type categoryDocument struct {
	Category string               `bson:"category"`
	Total    primitive.Decimal128 `bson:"total"`
}

type summaryDocument struct {
	FlockID        string               `bson:"flockId"`
	FlockName      string               `bson:"flockName"`
	Month          string               `bson:"month"`
	Year           string               `bson:"year"`
	Label          string               `bson:"label"`
	ExpenseTotal   primitive.Decimal128 `bson:"expenseTotal"`
	Categories     []categoryDocument   `bson:"categories"`
	EggSum         int64                `bson:"eggSum"`
	EggEntries     int64                `bson:"eggEntries"`
	EggAverage     *float64             `bson:"eggAverage"`
	EggMax         *int64               `bson:"eggMax"`
	CalcAvg        float64              `bson:"calcAvg"`
	DaysInMonth    int                  `bson:"daysInMonth"`
	TargetDailyAvg float64              `bson:"targetDailyAvg"`
	TopBreed       string               `bson:"topBreed,omitempty"`
	ImageKey       string               `bson:"imageKey"`
	GeneratedAt    time.Time            `bson:"generatedAt"`
	ArchivedAt     time.Time            `bson:"archivedAt"`
}

func toSummaryDocument(s *models.MonthlySummary, imageKey string, archivedAt time.Time) (summaryDocument, error) {
	total, err := primitive.ParseDecimal128(s.Expenses.Total.String())
	if err != nil {
		return summaryDocument{}, fmt.Errorf("encode expense total: %w", err)
	}

	categories := make([]categoryDocument, 0, len(s.Expenses.Categories))
	for _, c := range s.Expenses.Categories {
		amount, err := primitive.ParseDecimal128(c.Total.String())
		if err != nil {
			return summaryDocument{}, fmt.Errorf("encode %s total: %w", c.Category, err)
		}
		categories = append(categories, categoryDocument{Category: string(c.Category), Total: amount})
	}

	doc := summaryDocument{
		FlockID:        s.FlockID,
		FlockName:      s.FlockName,
		Month:          s.Month,
		Year:           s.Year,
		Label:          s.MonthLabel + " " + s.YearLabel,
		ExpenseTotal:   total,
		Categories:     categories,
		EggSum:         s.Logs.Sum,
		EggEntries:     s.Logs.Count,
		EggAverage:     s.Logs.Avg,
		EggMax:         s.Logs.Max,
		CalcAvg:        s.Logs.CalcAvg,
		DaysInMonth:    s.Logs.DaysInMonth,
		TargetDailyAvg: s.TargetDailyAvg,
		ImageKey:       imageKey,
		GeneratedAt:    s.GeneratedAt,
		ArchivedAt:     archivedAt,
	}
	if s.TopBreed != nil {
		doc.TopBreed = s.TopBreed.BreedName
	}
	return doc, nil
}

// SaveMonthlySummary upserts the archive document of one flock-month.
func (r *MongoDBRepository) SaveMonthlySummary(ctx context.Context, summary *models.MonthlySummary, imageKey string) error {
	doc, err := toSummaryDocument(summary, imageKey, time.Now().UTC())
	if err != nil {
		return err
	}

	collection := r.Database().Collection(r.collName)
	filter := bson.M{"flockId": doc.FlockID, "month": doc.Month, "year": doc.Year}
	_, err = collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert monthly summary: %w", err)
	}

	r.logger.Debug("monthly summary archived",
		zap.String("flock_id", doc.FlockID),
		zap.String("month", doc.Month),
		zap.String("year", doc.Year))
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
