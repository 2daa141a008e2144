package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"wildcafe-pos/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder inserts order and fills in its generated ID.
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

// GetOrderByID fetches one order with its table name. sql.ErrNoRows when absent.
func (d *DB) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		ColumnExpr("s.*").
		ColumnExpr("d.name AS table_name").
		Join("LEFT JOIN desk AS d ON d.id = s.desk_id").
		Where("s.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkOrderPaid moves a pending order to paid. The status guard in the WHERE
// clause makes this the only place two payments can race, and only one wins:
// it returns false when no pending row with that id exists.
func (d *DB) MarkOrderPaid(ctx context.Context, id int64, p models.Payment) (bool, error) {
	res, err := d.Bun.ExecContext(ctx,
		"UPDATE sales SET status = ?, payment_mode = ?, price = ?, change_amount = ?, ? = ? WHERE id = ? AND status = ?",
		string(models.StatusPaid), p.Mode, p.AmountPaid, p.ChangeAmount,
		bun.Ident("timestamp"), p.PaidAt,
		id, string(models.StatusPending),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetPendingOrders lists open orders oldest first.
func (d *DB) GetPendingOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		ColumnExpr("s.*").
		ColumnExpr("d.name AS table_name").
		Join("LEFT JOIN desk AS d ON d.id = s.desk_id").
		Where("s.status = ?", string(models.StatusPending)).
		OrderExpr("s.timestamp ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetPaidOrders lists paid orders with from <= timestamp <= to, newest first.
func (d *DB) GetPaidOrders(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		ColumnExpr("s.*").
		ColumnExpr("d.name AS table_name").
		Join("LEFT JOIN desk AS d ON d.id = s.desk_id").
		Where("s.status = ?", string(models.StatusPaid)).
		Where("s.timestamp >= ?", from).
		Where("s.timestamp <= ?", to).
		OrderExpr("s.timestamp DESC, s.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// DeleteOrder removes an order in any status and reports how many rows went.
func (d *DB) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Order)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) DeleteAllOrders(ctx context.Context) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Order)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------- DESKS ----------------

// GetDeskName returns the table's name. sql.ErrNoRows when it does not exist.
func (d *DB) GetDeskName(ctx context.Context, id int64) (string, error) {
	var name string
	err := d.Bun.NewSelect().
		Model((*models.Desk)(nil)).
		Column("name").
		Where("id = ?", id).
		Limit(1).
		Scan(ctx, &name)
	if err != nil {
		return "", err
	}
	return name, nil
}

// ---------------- REPORTS ----------------

// GetReportRows returns paid sales with start <= timestamp < end shaped for kind.
func (d *DB) GetReportRows(ctx context.Context, kind models.ReportKind, start, end time.Time) ([]models.ReportRow, error) {
	q := d.Bun.NewSelect().
		TableExpr("sales AS s").
		Where("s.status = ?", string(models.StatusPaid)).
		Where("s.timestamp >= ?", start).
		Where("s.timestamp < ?", end).
		OrderExpr("s.timestamp ASC, s.id ASC")

	switch kind {
	case models.ReportSales:
		q = q.ColumnExpr("s.id, s.desk_id, s.payment_mode, s.price AS total_price, s.timestamp, s.status")
	case models.ReportItems, models.ReportCategories:
		q = q.ColumnExpr("s.id, s.products, s.timestamp")
	case models.ReportTables:
		q = q.ColumnExpr("s.id, s.desk_id, d.name AS table_name, s.price AS total_price, s.timestamp").
			Join("LEFT JOIN desk AS d ON d.id = s.desk_id")
	default:
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}

	rows := []models.ReportRow{}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
