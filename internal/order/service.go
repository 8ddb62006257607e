package order

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

type Service interface {
	Submit(ctx context.Context, sub Submission) (int, error)
	MarkPaid(ctx context.Context, orderID int) error
	MarkPaymentFailed(ctx context.Context, orderID int) error
	Cancel(ctx context.Context, orderID int) error
	GetOrderByID(ctx context.Context, orderID int) (*Order, error)
	GetLiveFolders(ctx context.Context) ([]string, error)
}

type DefaultService struct {
	repo Repo
}

func NewDefaultService(repo Repo) Service {
	return &DefaultService{
		repo: repo,
	}
}

func (d *DefaultService) Submit(ctx context.Context, sub Submission) (int, error) {
	recipient, err := json.Marshal(sub.Delivery.JSON())
	if err != nil {
		slog.Error("Failed to encode delivery details", "error", err, "userID", sub.UserID)
		return -1, err
	}

	dbOrder := DBOrder{
		Status:         StatusSubmitted,
		UserID:         sub.UserID,
		Title:          sub.Title,
		FolderPath:     sub.FolderPath,
		PDFPath:        sub.PDFPath,
		Pages:          sub.Pages,
		Delivery:       string(recipient),
		ShippingMethod: sub.ShippingMethod,
		Total:          sub.Total.String(),
		Currency:       sub.Currency,
		PaymentMethod:  sub.PaymentMethod,
		PaymentToken:   sub.PaymentToken,
		CreatedAt:      sub.CreatedAt,
	}

	items := make([]DBLineItem, len(sub.LineItems))
	for i, item := range sub.LineItems {
		items[i] = DBLineItem{
			Name: item.Name,
			Cost: item.Cost.String(),
		}
	}

	orderID, err := d.repo.UpsertOrder(ctx, dbOrder, items)
	if err != nil {
		slog.Error("Failed to submit order", "error", err, "userID", sub.UserID, "folder", sub.FolderPath)
		return -1, err
	}

	slog.Info("Order submitted", "orderID", orderID, "userID", sub.UserID)
	return orderID, nil
}

func (d *DefaultService) MarkPaid(ctx context.Context, orderID int) error {
	return d.setStatus(ctx, orderID, StatusPaid)
}

func (d *DefaultService) MarkPaymentFailed(ctx context.Context, orderID int) error {
	return d.setStatus(ctx, orderID, StatusPaymentFailed)
}

func (d *DefaultService) Cancel(ctx context.Context, orderID int) error {
	return d.setStatus(ctx, orderID, StatusCancelled)
}

func (d *DefaultService) setStatus(ctx context.Context, orderID int, status Status) error {
	if err := d.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		slog.Error("Failed to update order status", "error", err, "orderID", orderID, "status", status)
		return err
	}
	return nil
}

func (d *DefaultService) GetOrderByID(ctx context.Context, orderID int) (*Order, error) {
	dbOrder, err := d.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		slog.Error("Error retrieving order", "error", err, "orderID", orderID)
		return nil, err
	}
	if dbOrder == nil {
		return nil, ErrOrderNotFound
	}

	total, err := decimal.NewFromString(dbOrder.Total)
	if err != nil {
		slog.Error("Order has malformed total", "error", err, "orderID", orderID, "total", dbOrder.Total)
		return nil, err
	}

	return &Order{
		ID:             dbOrder.ID,
		Status:         dbOrder.Status,
		UserID:         dbOrder.UserID,
		Title:          dbOrder.Title,
		FolderPath:     dbOrder.FolderPath,
		PDFPath:        dbOrder.PDFPath,
		Pages:          dbOrder.Pages,
		ShippingMethod: dbOrder.ShippingMethod,
		Total:          total,
		Currency:       dbOrder.Currency,
		PaymentMethod:  dbOrder.PaymentMethod,
		CreatedAt:      dbOrder.CreatedAt,
	}, nil
}

// GetLiveFolders lists asset folders that still belong to an order.
func (d *DefaultService) GetLiveFolders(ctx context.Context) ([]string, error) {
	folders, err := d.repo.GetOrdersFolders(ctx, StatusSubmitted, StatusPaymentFailed, StatusPaid)
	if err != nil {
		slog.Error("Error retrieving order folders", "error", err)
		return nil, err
	}
	return folders, nil
}
