package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"photobook-order-bot/internal/delivery"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orders   map[int]DBOrder
	items    map[int][]DBLineItem
	byFolder map[string]int
	nextID   int
	err      error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   make(map[int]DBOrder),
		items:    make(map[int][]DBLineItem),
		byFolder: make(map[string]int),
		nextID:   1,
	}
}

func (r *fakeRepo) UpsertOrder(_ context.Context, order DBOrder, items []DBLineItem) (int, error) {
	if r.err != nil {
		return -1, r.err
	}
	id, ok := r.byFolder[order.FolderPath]
	if !ok {
		id = r.nextID
		r.nextID++
		r.byFolder[order.FolderPath] = id
	}
	order.ID = id
	r.orders[id] = order
	r.items[id] = items
	return id, nil
}

func (r *fakeRepo) UpdateOrderStatus(_ context.Context, orderID int, status Status) error {
	if r.err != nil {
		return r.err
	}
	o, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	r.orders[orderID] = o
	return nil
}

func (r *fakeRepo) GetOrderByID(_ context.Context, orderID int) (*DBOrder, error) {
	if r.err != nil {
		return nil, r.err
	}
	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *fakeRepo) GetOrdersFolders(_ context.Context, statuses ...Status) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	var folders []string
	for _, o := range r.orders {
		for _, s := range statuses {
			if o.Status == s {
				folders = append(folders, o.FolderPath)
			}
		}
	}
	return folders, nil
}

func testSubmission() Submission {
	return Submission{
		UserID:     7,
		Title:      "Summer",
		FolderPath: "7_summer_1700000000",
		PDFPath:    "/orders/7_summer_1700000000/photobook.pdf",
		Pages:      24,
		Delivery: delivery.Details{
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Line1:       "1 Main St",
			City:        "London",
			CountryCode: "GB",
		},
		ShippingMethod: "Standard",
		LineItems: []LineItem{
			{Name: "Photobook", Cost: decimal.RequireFromString("24.99")},
			{Name: "Shipping: Standard", Cost: decimal.RequireFromString("3.99")},
		},
		Total:         decimal.RequireFromString("28.98"),
		Currency:      "GBP",
		PaymentMethod: "card",
		PaymentToken:  "pi_123",
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewDefaultService(repo)

	id, err := svc.Submit(ctx, testSubmission())
	require.NoError(t, err)

	stored := repo.orders[id]
	assert.Equal(t, StatusSubmitted, stored.Status)
	assert.Equal(t, "28.98", stored.Total)
	assert.Equal(t, "pi_123", stored.PaymentToken)

	var recipient map[string]string
	require.NoError(t, json.Unmarshal([]byte(stored.Delivery), &recipient))
	assert.Equal(t, "Ada Lovelace", recipient["recipient_name"])

	assert.Equal(t, []DBLineItem{
		{Name: "Photobook", Cost: "24.99"},
		{Name: "Shipping: Standard", Cost: "3.99"},
	}, repo.items[id])

	// Resubmitting the same folder reuses the order.
	again, err := svc.Submit(ctx, testSubmission())
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestService_SubmitError(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection reset")

	id, err := NewDefaultService(repo).Submit(context.Background(), testSubmission())
	assert.Error(t, err)
	assert.Equal(t, -1, id)
}

func TestService_StatusChanges(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewDefaultService(repo)
	id, err := svc.Submit(ctx, testSubmission())
	require.NoError(t, err)

	require.NoError(t, svc.MarkPaymentFailed(ctx, id))
	assert.Equal(t, StatusPaymentFailed, repo.orders[id].Status)

	require.NoError(t, svc.MarkPaid(ctx, id))
	assert.Equal(t, StatusPaid, repo.orders[id].Status)

	require.NoError(t, svc.Cancel(ctx, id))
	assert.Equal(t, StatusCancelled, repo.orders[id].Status)

	assert.ErrorIs(t, svc.Cancel(ctx, 99), ErrOrderNotFound)
}

func TestService_GetOrderByID(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewDefaultService(repo)
	id, err := svc.Submit(ctx, testSubmission())
	require.NoError(t, err)

	o, err := svc.GetOrderByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	assert.Equal(t, "Summer", o.Title)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("28.98")))

	_, err = svc.GetOrderByID(ctx, 99)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	bad := repo.orders[id]
	bad.Total = "twelve"
	repo.orders[id] = bad
	_, err = svc.GetOrderByID(ctx, id)
	assert.Error(t, err)
}

func TestService_GetLiveFolders(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewDefaultService(repo)

	live := testSubmission()
	cancelled := testSubmission()
	cancelled.FolderPath = "7_winter_1700000001"

	_, err := svc.Submit(ctx, live)
	require.NoError(t, err)
	id, err := svc.Submit(ctx, cancelled)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, id))

	folders, err := svc.GetLiveFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{live.FolderPath}, folders)

	repo.err = errors.New("timeout")
	_, err = svc.GetLiveFolders(ctx)
	assert.Error(t, err)
}

func TestCreateFolderPath(t *testing.T) {
	created := time.Unix(1700000000, 0)

	path := CreateFolderPath(42, "Summer Trip", created)
	assert.Equal(t, path, CreateFolderPath(42, "Summer Trip", created))
	assert.True(t, strings.HasPrefix(path, "42"))
	assert.Contains(t, path, "summer")
	assert.Contains(t, path, "1700000000")
	assert.NotContains(t, path, " ")

	assert.Contains(t, CreateFolderPath(42, "", created), "photobook")
}
