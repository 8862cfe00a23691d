package tags

import (
	"context"
	"fmt"

	"companion/internal/library"
)

// Service exposes the four tag operations per kind. Each call is an
// independent write against the store; the most recent write for a key wins.
type Service struct {
	repo Repository
}

// NewService creates a tag Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add records the game under (steamID, kind, appid), overwriting any
// existing record. A repeated add leaves exactly one record for the key.
func (s *Service) Add(ctx context.Context, steamID string, kind Kind, game library.Game) (Record, error) {
	record := NewRecord(steamID, kind, game)
	if err := s.repo.Upsert(ctx, record); err != nil {
		return Record{}, fmt.Errorf("add %s tag: %w", kind, err)
	}
	return record, nil
}

// Remove deletes the record if present; removing an absent record is a no-op.
func (s *Service) Remove(ctx context.Context, steamID string, kind Kind, appID int64) error {
	if err := s.repo.Delete(ctx, steamID, kind, appID); err != nil {
		return fmt.Errorf("remove %s tag: %w", kind, err)
	}
	return nil
}

// Exists answers the membership query for (steamID, kind, appid).
func (s *Service) Exists(ctx context.Context, steamID string, kind Kind, appID int64) (bool, error) {
	exists, err := s.repo.Exists(ctx, steamID, kind, appID)
	if err != nil {
		return false, fmt.Errorf("check %s tag: %w", kind, err)
	}
	return exists, nil
}

// ListAll returns every record of the given kind for the identity. Order is
// not guaranteed.
func (s *Service) ListAll(ctx context.Context, steamID string, kind Kind) ([]Record, error) {
	records, err := s.repo.ListByKind(ctx, steamID, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s tags: %w", kind, err)
	}
	return records, nil
}

// LikedNames returns the display names of the identity's liked games, used to
// seed the recommendation chat's system instruction.
func (s *Service) LikedNames(ctx context.Context, steamID string) ([]string, error) {
	records, err := s.ListAll(ctx, steamID, KindLiked)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Name)
	}
	return names, nil
}
