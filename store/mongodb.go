// Package store provides the persistence collaborators for reports, match
// reports and sent-report entries. The core never queries on its own; these
// implementations cover exactly the operations the service interfaces name.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ARONDALTON/callisto-core/types"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

const (
	collectionReports      = "reports"
	collectionMatchReports = "matchReports"
	collectionSentReports  = "sentReports"
	collectionCounters     = "counters"

	sentSeqCounterID = "sentReportSeq"
)

// MongoDBStore implements report, match-report and sent-report storage using
// MongoDB. A single store instance serves all three collections.
type MongoDBStore struct {
	db *mongo.Database
}

// NewMongoDBStore creates a new MongoDB store
func NewMongoDBStore(db *mongo.Database) *MongoDBStore {
	return &MongoDBStore{db: db}
}

// SaveReport inserts or updates a report by ID
func (s *MongoDBStore) SaveReport(ctx context.Context, rec *types.Report) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("report record with ID is required")
	}

	_, err := s.db.Collection(collectionReports).UpdateOne(
		ctx,
		bson.M{"_id": rec.ID},
		bson.M{
			"$set": bson.M{
				"owner":      rec.Owner,
				"encrypted":  rec.Encrypted,
				"salt":       rec.Salt,
				"autosaved":  rec.Autosaved,
				"added":      rec.Added,
				"lastEdited": rec.LastEdited,
				"matchFound": rec.MatchFound,
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	log.Debug().
		Str("recordId", rec.ID).
		Msg("Report saved")

	return nil
}

// GetReport retrieves a report by ID
func (s *MongoDBStore) GetReport(ctx context.Context, id string) (*types.Report, error) {
	var rec types.Report
	err := s.db.Collection(collectionReports).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &rec, nil
}

// SaveMatchReport inserts a match report
func (s *MongoDBStore) SaveMatchReport(ctx context.Context, rec *types.MatchReport) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("match report record with ID is required")
	}

	_, err := s.db.Collection(collectionMatchReports).UpdateOne(
		ctx,
		bson.M{"_id": rec.ID},
		bson.M{
			"$set": bson.M{
				"reportId":  rec.ReportID,
				"encrypted": rec.Encrypted,
				"salt":      rec.Salt,
				"seen":      rec.Seen,
				"added":     rec.Added,
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save match report: %w", err)
	}

	log.Debug().
		Str("recordId", rec.ID).
		Str("reportId", rec.ReportID).
		Msg("Match report saved")

	return nil
}

// ListUnseenMatchReports returns all match reports not yet flagged seen,
// oldest first
func (s *MongoDBStore) ListUnseenMatchReports(ctx context.Context) ([]*types.MatchReport, error) {
	cursor, err := s.db.Collection(collectionMatchReports).Find(
		ctx,
		bson.M{"seen": false},
		options.Find().SetSort(bson.M{"added": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match reports: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*types.MatchReport
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode match reports: %w", err)
	}

	return results, nil
}

// MarkSeen atomically flags a match report as seen
func (s *MongoDBStore) MarkSeen(ctx context.Context, id string) error {
	result, err := s.db.Collection(collectionMatchReports).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark match report seen: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMatchReportsByReport deletes all match reports of a report. Deleting
// for a report with no match reports is a no-op.
func (s *MongoDBStore) DeleteMatchReportsByReport(ctx context.Context, reportID string) error {
	result, err := s.db.Collection(collectionMatchReports).DeleteMany(ctx, bson.M{"reportId": reportID})
	if err != nil {
		return fmt.Errorf("failed to delete match reports: %w", err)
	}

	log.Debug().
		Str("reportId", reportID).
		Int64("deleted", result.DeletedCount).
		Msg("Match reports deleted")

	return nil
}

// FirstMatchReportAdded returns the creation time of the oldest match report
// of a report, or nil if the report has none
func (s *MongoDBStore) FirstMatchReportAdded(ctx context.Context, reportID string) (*time.Time, error) {
	var result struct {
		Added time.Time `bson:"added"`
	}
	err := s.db.Collection(collectionMatchReports).FindOne(
		ctx,
		bson.M{"reportId": reportID},
		options.FindOne().SetSort(bson.M{"added": 1}).SetProjection(bson.M{"added": 1}),
	).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get first match report: %w", err)
	}

	return &result.Added, nil
}

// AppendSentReport stores a sent-report entry, assigning the next sequence
// number from an atomic counter
func (s *MongoDBStore) AppendSentReport(ctx context.Context, rec *types.SentReport) error {
	if rec == nil {
		return fmt.Errorf("sent report record is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(collectionCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": sentSeqCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return fmt.Errorf("failed to allocate sequence number: %w", err)
	}
	rec.Seq = int(counter.Seq)

	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}

	_, err = s.db.Collection(collectionSentReports).InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to append sent report: %w", err)
	}

	log.Debug().
		Str("recordId", rec.ID).
		Int("seq", rec.Seq).
		Msg("Sent report appended")

	return nil
}
