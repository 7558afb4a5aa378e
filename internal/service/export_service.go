package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"
	"athlos/fitness-tracker/internal/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrExportDisabled = errors.New("exports are not configured")

// Export is the document uploaded for a user.
type Export struct {
	ExportedAt  time.Time           `json:"exportedAt"`
	User        *domain.User        `json:"user"`
	Plans       []PlanWithItems     `json:"plans"`
	WorkoutLogs []domain.WorkoutLog `json:"workoutLogs"`
	WeightLogs  []domain.WeightLog  `json:"weightLogs"`
	Goals       []domain.Goal       `json:"goals"`
}

// ExportResult points at an uploaded export.
type ExportResult struct {
	ObjectKey string    `json:"objectKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ExportService interface {
	// Export serializes everything the user owns to JSON, uploads it and
	// returns a presigned download URL.
	Export(ctx context.Context, userID primitive.ObjectID) (*ExportResult, error)
}

type exportService struct {
	repos   *repository.Repositories
	storage storage.FileStorage
	expiry  time.Duration
	now     func() time.Time
}

// NewExportService returns a service that fails with ErrExportDisabled when fs is nil.
func NewExportService(repos *repository.Repositories, fs storage.FileStorage, expiry time.Duration) ExportService {
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	return &exportService{
		repos:   repos,
		storage: fs,
		expiry:  expiry,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *exportService) Export(ctx context.Context, userID primitive.ObjectID) (*ExportResult, error) {
	if s.storage == nil {
		return nil, ErrExportDisabled
	}

	doc, err := s.collect(ctx, userID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userID.Hex(), uuid.NewString())
	if err := s.storage.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.expiry)
	if err != nil {
		// Nobody can reach the object without a link.
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			log.WithError(delErr).Warnf("delete unreachable export %s", key)
		}
		return nil, fmt.Errorf("presign export: %w", err)
	}

	log.WithFields(log.Fields{"user": userID.Hex(), "key": key, "bytes": len(body)}).Info("export uploaded")
	return &ExportResult{ObjectKey: key, URL: url, ExpiresAt: doc.ExportedAt.Add(s.expiry)}, nil
}

func (s *exportService) collect(ctx context.Context, userID primitive.ObjectID) (*Export, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound)
	}
	user.PasswordHash = ""

	plans, err := s.repos.Plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	doc := &Export{
		ExportedAt: s.now(),
		User:       user,
		Plans:      make([]PlanWithItems, 0, len(plans)),
	}
	for _, p := range plans {
		items, err := s.repos.PlanItems.ListByPlan(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list items of %s: %w", p.ID.Hex(), err)
		}
		doc.Plans = append(doc.Plans, PlanWithItems{WorkoutPlan: p, Items: items})
	}

	if doc.WorkoutLogs, err = s.repos.Workouts.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("list workout logs: %w", err)
	}
	if doc.WeightLogs, err = s.repos.Weights.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("list weight logs: %w", err)
	}
	if doc.Goals, err = s.repos.Goals.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return doc, nil
}
