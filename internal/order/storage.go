package order

import (
	"context"
	"fmt"

	"photobook-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repo interface {
	UpsertOrder(ctx context.Context, order DBOrder, items []DBLineItem) (int, error)
	UpdateOrderStatus(ctx context.Context, orderID int, status Status) error
	GetOrderByID(ctx context.Context, orderID int) (*DBOrder, error)
	GetOrdersFolders(ctx context.Context, statuses ...Status) ([]string, error)
}

type DefaultRepo struct {
	db *pgx.ConnPool
}

func NewDefaultRepo(db *pgx.ConnPool) Repo {
	return &DefaultRepo{db: db}
}

// UpsertOrder keys orders by folder path, so resubmitting the same photobook
// updates the row and replaces its line items.
func (d *DefaultRepo) UpsertOrder(ctx context.Context, order DBOrder, items []DBLineItem) (int, error) {
	tx, err := d.db.BeginEx(ctx, nil)
	if err != nil {
		return -1, &pkg.ErrDBProcedure{
			Cause: "failed to begin transaction",
			Err:   err,
		}
	}

	query, args, err := psql.Insert("orders").
		Columns("status", "user_id", "title", "folder_path", "pdf_path", "pages", "delivery",
			"shipping_method", "total", "currency", "payment_method", "payment_token", "created_at").
		Values(string(order.Status), order.UserID, order.Title, order.FolderPath, order.PDFPath, order.Pages, order.Delivery,
			order.ShippingMethod, sq.Expr("?::numeric", order.Total), order.Currency, order.PaymentMethod, order.PaymentToken, order.CreatedAt).
		Suffix(`ON CONFLICT (folder_path) DO UPDATE SET
			status = EXCLUDED.status,
			pdf_path = EXCLUDED.pdf_path,
			pages = EXCLUDED.pages,
			delivery = EXCLUDED.delivery,
			shipping_method = EXCLUDED.shipping_method,
			total = EXCLUDED.total,
			payment_method = EXCLUDED.payment_method,
			payment_token = EXCLUDED.payment_token
			RETURNING order_id`).
		ToSql()
	if err != nil {
		return -1, d.rollback(ctx, tx, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err})
	}

	var orderID int
	if err := tx.QueryRowEx(ctx, query, nil, args...).Scan(&orderID); err != nil {
		return -1, d.rollback(ctx, tx, &pkg.ErrDBProcedure{
			Cause: "failed to upsert order",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		})
	}

	query, args, err = psql.Delete("order_line_items").Where(sq.Eq{"order_id": orderID}).ToSql()
	if err != nil {
		return -1, d.rollback(ctx, tx, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err})
	}
	if _, err := tx.ExecEx(ctx, query, nil, args...); err != nil {
		return -1, d.rollback(ctx, tx, &pkg.ErrDBProcedure{
			Cause: "failed to clear line items",
			Info:  fmt.Sprintf("orderID: %d", orderID),
			Err:   err,
		})
	}

	if len(items) > 0 {
		insert := psql.Insert("order_line_items").Columns("order_id", "name", "cost")
		for _, item := range items {
			insert = insert.Values(orderID, item.Name, sq.Expr("?::numeric", item.Cost))
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return -1, d.rollback(ctx, tx, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err})
		}
		if _, err := tx.ExecEx(ctx, query, nil, args...); err != nil {
			return -1, d.rollback(ctx, tx, &pkg.ErrDBProcedure{
				Cause: "failed to insert line items",
				Info:  fmt.Sprintf("query: %s", query),
				Err:   err,
			})
		}
	}

	if err := tx.CommitEx(ctx); err != nil {
		return -1, d.rollback(ctx, tx, &pkg.ErrDBProcedure{
			Cause: "failed to commit transaction",
			Err:   err,
		})
	}

	return orderID, nil
}

func (d *DefaultRepo) UpdateOrderStatus(ctx context.Context, orderID int, status Status) error {
	query, args, err := psql.Update("orders").
		Set("status", string(status)).
		Where(sq.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	if _, err := d.db.ExecEx(ctx, query, nil, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to update order status",
			Info:  fmt.Sprintf("orderID: %d, status: %s", orderID, status),
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) GetOrderByID(ctx context.Context, orderID int) (*DBOrder, error) {
	query, args, err := psql.Select("order_id", "status", "user_id", "title", "folder_path", "pdf_path", "pages",
		"delivery::text", "shipping_method", "total::text", "currency", "payment_method", "payment_token", "created_at").
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	var o DBOrder
	var status string
	err = d.db.QueryRowEx(ctx, query, nil, args...).Scan(
		&o.ID, &status, &o.UserID, &o.Title, &o.FolderPath, &o.PDFPath, &o.Pages,
		&o.Delivery, &o.ShippingMethod, &o.Total, &o.Currency, &o.PaymentMethod, &o.PaymentToken, &o.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select order",
			Info:  fmt.Sprintf("orderID: %d", orderID),
			Err:   err,
		}
	}
	o.Status = Status(status)
	return &o, nil
}

func (d *DefaultRepo) GetOrdersFolders(ctx context.Context, statuses ...Status) ([]string, error) {
	builder := psql.Select("folder_path").From("orders")
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		builder = builder.Where(sq.Eq{"status": values})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	rows, err := d.db.QueryEx(ctx, query, nil, args...)
	if err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select order folders",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			return nil, &pkg.ErrDBProcedure{Cause: "failed to scan folder path", Err: err}
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to read order folders", Err: err}
	}
	return folders, nil
}

func (d *DefaultRepo) rollback(ctx context.Context, tx *pgx.Tx, cause error) error {
	if err := tx.RollbackEx(ctx); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to rollback transaction",
			Info:  cause.Error(),
			Err:   err,
		}
	}
	return cause
}
