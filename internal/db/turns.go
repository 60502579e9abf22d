package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chat-relay/internal/models"
)

var (
	// ErrInvalidTurn reports a turn rejected before reaching the store.
	ErrInvalidTurn = errors.New("turnstore: invalid turn")
	// ErrStoreUnavailable reports that the backing store could not be reached.
	ErrStoreUnavailable = errors.New("turnstore: store unavailable")
)

// TurnStore appends immutable chat turns to the turns collection. There is
// no update or delete path; a written turn never changes.
type TurnStore struct {
	mongo *Mongo
}

func NewTurnStore(m *Mongo) *TurnStore {
	return &TurnStore{mongo: m}
}

// Append validates and durably persists one turn. Validation happens before
// any store traffic; insert failures are wrapped in ErrStoreUnavailable.
func (s *TurnStore) Append(ctx context.Context, ownerID, role, content string) (*models.Turn, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidTurn)
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: role %q is not allowed", ErrInvalidTurn, role)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidTurn)
	}

	turn := &models.Turn{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.mongo.Turns.InsertOne(ctx, turn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return turn, nil
}

// ListByOwner returns an owner's turns ordered by creation time ascending,
// the shape a client uses to rebuild a conversation. The relay itself never
// calls this.
func (s *TurnStore) ListByOwner(ctx context.Context, ownerID string, limit int64) ([]models.Turn, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidTurn)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := s.mongo.Turns.Find(ctx, bson.M{"owner_id": ownerID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	turns := make([]models.Turn, 0)
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return turns, nil
}
