package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

const orderColumns = `id, order_number, user_id, first_name, last_name, email, phone,
	delivery_method, address, city, zip_code, pickup_point_name, pickup_point_address,
	payment_method, subtotal, discount_amount, shipping_cost, cod_fee, tax, total,
	promo_code, status, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order  models.Order
		userID uuid.NullUUID

		address, city, zip, pickupName, pickupAddress, promo sql.NullString
	)

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&userID,
		&order.FirstName,
		&order.LastName,
		&order.Email,
		&order.Phone,
		&order.DeliveryMethod,
		&address,
		&city,
		&zip,
		&pickupName,
		&pickupAddress,
		&order.PaymentMethod,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.ShippingCost,
		&order.CODFee,
		&order.Tax,
		&order.Total,
		&promo,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		order.UserID = &userID.UUID
	}
	order.Address = stringPtr(address)
	order.City = stringPtr(city)
	order.ZipCode = stringPtr(zip)
	order.PickupPointName = stringPtr(pickupName)
	order.PickupPointAddress = stringPtr(pickupAddress)
	order.PromoCode = stringPtr(promo)

	return &order, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// InsertOrder stores order and fills in its generated id and timestamps. A
// clash on order_number is reported as database.ErrDuplicateOrderNumber and
// leaves the transaction usable, so the caller can retry with a new number.
func InsertOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (
			order_number, user_id, first_name, last_name, email, phone,
			delivery_method, address, city, zip_code, pickup_point_name, pickup_point_address,
			payment_method, subtotal, discount_amount, shipping_cost, cod_fee, tax, total,
			promo_code, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW(), NOW())
		 ON CONFLICT (order_number) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		order.OrderNumber, order.UserID, order.FirstName, order.LastName, order.Email, order.Phone,
		order.DeliveryMethod, order.Address, order.City, order.ZipCode, order.PickupPointName, order.PickupPointAddress,
		order.PaymentMethod, order.Subtotal, order.DiscountAmount, order.ShippingCost, order.CODFee, order.Tax, order.Total,
		order.PromoCode, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// InsertOrderItems stores items under orderID, filling in their ids.
func InsertOrderItems(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []models.OrderItem) error {
	for i := range items {
		item := &items[i]
		item.OrderID = orderID

		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, product_image, quantity, price, addons, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			 RETURNING id, created_at`,
			orderID, item.ProductID, item.ProductName, item.ProductImage, item.Quantity, item.Price, item.Addons,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
		}
	}

	return nil
}

// GetOrderByNumber loads an order and its items for tracking.
func GetOrderByNumber(ctx context.Context, db *sql.DB, orderNumber string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(db.QueryRowContext(ctx, query, orderNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := getOrderItems(ctx, db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func getOrderItems(ctx context.Context, db *sql.DB, orderID uuid.UUID) ([]models.OrderItem, error) {
	itemsQuery := `
		SELECT id, order_id, product_id, product_name, product_image, quantity, price, addons, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductImage,
			&item.Quantity,
			&item.Price,
			&item.Addons,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// ListOrdersCursor returns userID's orders newest first, without items.
func ListOrdersCursor(ctx context.Context, db *sql.DB, userID uuid.UUID, cursor string, limit int) (*CursorPage, error) {
	args := []interface{}{userID}
	where := "user_id = $1"
	if cursor != "" {
		cursorData, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		where += " AND (created_at, id) < ($2, $3)"
		args = append(args, cursorData.CreatedAt, cursorData.ID)
	}
	args = append(args, limit+1)

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, orderColumns, where, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// CountOrdersForEmail is used by tests and support tooling to confirm whether
// a checkout persisted anything.
func CountOrdersForEmail(ctx context.Context, db *sql.DB, email string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE email = $1`, email).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
