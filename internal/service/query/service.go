// Package query serves the read side of the API. Reads never mutate engine
// state, so they run outside transactions and the project listing may be
// served from a short-lived Redis cache.
package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bidvault/internal/engine"
	"bidvault/internal/model"
)

const (
	projectListKey = "cache:projects"
	projectListTTL = 10 * time.Second
)

// ProjectView is a project with its bids, as returned to API clients.
type ProjectView struct {
	model.Project
	Bids []model.Bid `json:"bids"`
}

type Service struct {
	store  engine.Storage
	rdb    *redis.Client
	logger *zap.Logger
}

func NewService(store engine.Storage, rdb *redis.Client, logger *zap.Logger) *Service {
	return &Service{store: store, rdb: rdb, logger: logger}
}

// ListProjects returns every project, cached briefly. A cache miss or a
// Redis outage falls through to the database.
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, projectListKey).Bytes(); err == nil {
			var projects []model.Project
			if err := json.Unmarshal(cached, &projects); err == nil {
				return projects, nil
			}
		}
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if body, err := json.Marshal(projects); err == nil {
			if err := s.rdb.Set(ctx, projectListKey, body, projectListTTL).Err(); err != nil {
				s.logger.Warn("Failed to cache project list", zap.Error(err))
			}
		}
	}
	return projects, nil
}

func (s *Service) GetProject(ctx context.Context, id int) (*ProjectView, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	bids, err := s.store.ListBids(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProjectView{Project: *p, Bids: bids}, nil
}

func (s *Service) GetDispute(ctx context.Context, id int) (*model.Dispute, error) {
	return s.store.GetDispute(ctx, id)
}

func (s *Service) EscrowBalance(ctx context.Context, projectID int) (int64, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return 0, err
	}
	return s.store.EscrowBalance(ctx, projectID)
}

func (s *Service) PartyBalance(ctx context.Context, userID int) (int64, error) {
	return s.store.PartyBalance(ctx, userID)
}
