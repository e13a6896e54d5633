package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/labs/fleamarket/internal/models"
)

// ItemQuery filters the public catalogue.
type ItemQuery struct {
	CategoryID *uint
	Search     string
	SellerID   *uuid.UUID
}

func (q ItemQuery) values() url.Values {
	v := url.Values{}
	if q.CategoryID != nil {
		v.Set("category", strconv.FormatUint(uint64(*q.CategoryID), 10))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SellerID != nil {
		v.Set("sellerId", q.SellerID.String())
	}
	return v
}

// ItemInput is a new listing.
type ItemInput struct {
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	ItemType       models.ItemType `json:"itemType"`
	Price          *float64        `json:"price,omitempty"`
	StartingBid    *float64        `json:"startingBid,omitempty"`
	Images         []string        `json:"images,omitempty"`
	CategoryID     *uint           `json:"categoryId,omitempty"`
	AuctionEndTime *time.Time      `json:"auctionEndTime,omitempty"`
	PickupLocation string          `json:"pickupLocation,omitempty"`
}

// ItemPatch is an edit of an existing listing; nil fields stay unchanged.
type ItemPatch struct {
	Title          *string          `json:"title,omitempty"`
	Description    *string          `json:"description,omitempty"`
	ItemType       *models.ItemType `json:"itemType,omitempty"`
	Price          *float64         `json:"price,omitempty"`
	StartingBid    *float64         `json:"startingBid,omitempty"`
	Images         []string         `json:"images,omitempty"`
	CategoryID     *uint            `json:"categoryId,omitempty"`
	AuctionEndTime *time.Time       `json:"auctionEndTime,omitempty"`
	PickupLocation *string          `json:"pickupLocation,omitempty"`
}

// Bid is a bid as the server reports it.
type Bid struct {
	models.Bid
	BidderName string `json:"bidderName"`
}

type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &categories)
	return categories, err
}

func (c *Client) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items/"+id.String(), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) ListItems(ctx context.Context, query ItemQuery) ([]models.Item, error) {
	var items []models.Item
	err := c.do(ctx, http.MethodGet, "/api/items", query.values(), nil, &items)
	return items, err
}

func (c *Client) CreateItem(ctx context.Context, input *ItemInput) (*models.Item, error) {
	var item models.Item
	if err := c.do(ctx, http.MethodPost, "/api/items", nil, input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, id uuid.UUID, patch *ItemPatch) (*models.Item, error) {
	var item models.Item
	if err := c.do(ctx, http.MethodPut, "/api/items/"+id.String(), nil, patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+id.String(), nil, nil, nil)
}

func (c *Client) PlaceBid(ctx context.Context, itemID uuid.UUID, amount float64) (*Bid, error) {
	var bid Bid
	body := map[string]float64{"amount": amount}
	if err := c.do(ctx, http.MethodPost, "/api/items/"+itemID.String()+"/bids", nil, body, &bid); err != nil {
		return nil, err
	}
	return &bid, nil
}

func (c *Client) ListBids(ctx context.Context, itemID uuid.UUID) ([]Bid, error) {
	var bids []Bid
	err := c.do(ctx, http.MethodGet, "/api/items/"+itemID.String()+"/bids", nil, nil, &bids)
	return bids, err
}

func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := url.Values{}
	if unreadOnly {
		query.Set("unreadOnly", "true")
	}
	err := c.do(ctx, http.MethodGet, "/api/notifications", query, nil, &notifications)
	return notifications, err
}

func (c *Client) MarkRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/"+id.String()+"/read", nil, nil, nil)
}

func (c *Client) MarkUnread(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/"+id.String()+"/unread", nil, nil, nil)
}
