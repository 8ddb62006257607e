package order

import (
	"time"

	"photobook-order-bot/internal/delivery"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusSubmitted     Status = "submitted"
	StatusPaymentFailed Status = "payment_failed"
	StatusPaid          Status = "paid"
	StatusCancelled     Status = "cancelled"
)

type LineItem struct {
	Name string
	Cost decimal.Decimal
}

type Submission struct {
	UserID         int64
	Title          string
	FolderPath     string
	PDFPath        string
	Pages          int
	Delivery       delivery.Details
	ShippingMethod string
	LineItems      []LineItem
	Total          decimal.Decimal
	Currency       string
	PaymentMethod  string
	PaymentToken   string
	CreatedAt      time.Time
}

type Order struct {
	ID             int
	Status         Status
	UserID         int64
	Title          string
	FolderPath     string
	PDFPath        string
	Pages          int
	ShippingMethod string
	Total          decimal.Decimal
	Currency       string
	PaymentMethod  string
	CreatedAt      time.Time
}

type DBOrder struct {
	ID             int       `db:"order_id"`
	Status         Status    `db:"status"`
	UserID         int64     `db:"user_id"`
	Title          string    `db:"title"`
	FolderPath     string    `db:"folder_path"`
	PDFPath        string    `db:"pdf_path"`
	Pages          int       `db:"pages"`
	Delivery       string    `db:"delivery"`
	ShippingMethod string    `db:"shipping_method"`
	Total          string    `db:"total"`
	Currency       string    `db:"currency"`
	PaymentMethod  string    `db:"payment_method"`
	PaymentToken   string    `db:"payment_token"`
	CreatedAt      time.Time `db:"created_at"`
}

type DBLineItem struct {
	OrderID int    `db:"order_id"`
	Name    string `db:"name"`
	Cost    string `db:"cost"`
}
