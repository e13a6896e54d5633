package reconcile

//go:generate mockgen -source=remote.go -destination=mock_remote_test.go -package=reconcile

import (
	"context"

	"github.com/google/uuid"

	"github.com/labs/fleamarket/internal/client"
	"github.com/labs/fleamarket/internal/models"
)

// Remote is the server as seen by the repository. *client.Client
// implements it.
type Remote interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context, query client.ItemQuery) ([]models.Item, error)
	CreateItem(ctx context.Context, input *client.ItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, patch *client.ItemPatch) (*models.Item, error)
	PlaceBid(ctx context.Context, itemID uuid.UUID, amount float64) (*client.Bid, error)
	ListBids(ctx context.Context, itemID uuid.UUID) ([]client.Bid, error)
	ListNotifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkUnread(ctx context.Context, id uuid.UUID) error
}

var _ Remote = (*client.Client)(nil)
