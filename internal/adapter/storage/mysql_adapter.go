package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

const mysqlDuplicateEntry = 1062

//go:embed schema.sql
var schemaSQL string

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) CreateAccount(ctx context.Context, creds domain.Credentials) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO accounts (id, mobile, name, role, shop_name, shop_address, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		creds.ID, creds.Mobile, creds.Name, creds.Role, creds.ShopName, creds.ShopAddress,
		creds.PasswordHash, creds.CreatedAt,
	)
	if isDuplicateEntry(err) {
		return port.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FindByMobile(ctx context.Context, mobile string) (*domain.Credentials, error) {
	var c domain.Credentials
	err := m.db.QueryRowContext(ctx, `
		SELECT id, mobile, name, role, shop_name, shop_address, password_hash, created_at
		FROM accounts WHERE mobile = ?`, mobile,
	).Scan(&c.ID, &c.Mobile, &c.Name, &c.Role, &c.ShopName, &c.ShopAddress, &c.PasswordHash, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	err := m.db.QueryRowContext(ctx, `
		SELECT id, mobile, name, role, shop_name, shop_address, created_at
		FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Mobile, &a.Name, &a.Role, &a.ShopName, &a.ShopAddress, &a.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &a, nil
}

func (m *MySQLAdapter) UpdateAccount(ctx context.Context, account domain.Account) error {
	var exists int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE id = ?`, account.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("query account: %w", err)
	}
	if exists == 0 {
		return port.ErrNotFound
	}

	_, err = m.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, shop_name = ?, shop_address = ?
		WHERE id = ?`,
		account.Name, account.ShopName, account.ShopAddress, account.ID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) AppendOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, account_id, total, status, shop_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.AccountID, order.Total, order.Status, order.ShopName, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, name, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, i, l.Name, l.UnitPrice, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	for i, e := range order.Timeline {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_timeline (order_id, position, status, at, completed)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, i, e.Status, e.Timestamp, e.Completed,
		)
		if err != nil {
			return fmt.Errorf("insert timeline entry: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, account_id, total, status, shop_name, created_at
		FROM orders WHERE account_id = ? ORDER BY seq DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.AccountID, &o.Total, &o.Status, &o.ShopName, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		if err := m.loadOrderDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
		if !orders[i].Consistent() {
			return nil, fmt.Errorf("order %s: stored total %d does not match lines %d",
				orders[i].ID, orders[i].Total, orders[i].LinesTotal())
		}
	}
	return orders, nil
}

func (m *MySQLAdapter) loadOrderDetails(ctx context.Context, o *domain.Order) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT name, unit_price, quantity FROM order_lines
		WHERE order_id = ? ORDER BY position`, o.ID)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.Name, &l.UnitPrice, &l.Quantity); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order lines: %w", err)
	}

	trows, err := m.db.QueryContext(ctx, `
		SELECT status, at, completed FROM order_timeline
		WHERE order_id = ? ORDER BY position`, o.ID)
	if err != nil {
		return fmt.Errorf("query timeline: %w", err)
	}
	defer trows.Close()

	for trows.Next() {
		var e domain.TimelineEntry
		if err := trows.Scan(&e.Status, &e.Timestamp, &e.Completed); err != nil {
			return fmt.Errorf("scan timeline entry: %w", err)
		}
		o.Timeline = append(o.Timeline, e)
	}
	return trows.Err()
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, vendor_id, name, price, stock, category, description, image_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.VendorID, p.Name, p.Price, p.Stock, p.Category, p.Description, p.ImageRef,
		p.CreatedAt, p.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return port.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) error {
	current, err := m.GetProduct(ctx, p.VendorID, p.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return port.ErrNotFound
	}

	_, err = m.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, price = ?, stock = ?, category = ?, description = ?, image_ref = ?, updated_at = ?
		WHERE id = ? AND vendor_id = ?`,
		p.Name, p.Price, p.Stock, p.Category, p.Description, p.ImageRef, p.UpdatedAt,
		p.ID, p.VendorID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, vendorID, productID string) error {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM products WHERE id = ? AND vendor_id = ?`, productID, vendorID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, vendorID, productID string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, name, price, stock, category, description, image_ref, created_at, updated_at
		FROM products WHERE id = ? AND vendor_id = ?`, productID, vendorID,
	).Scan(&p.ID, &p.VendorID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Description, &p.ImageRef,
		&p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, vendorID string) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, vendor_id, name, price, stock, category, description, image_ref, created_at, updated_at
		FROM products WHERE vendor_id = ? ORDER BY seq`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Description,
			&p.ImageRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) GetPreferences(ctx context.Context, accountID string) (*domain.Preferences, error) {
	var p domain.Preferences
	err := m.db.QueryRowContext(ctx, `
		SELECT theme, language FROM preferences WHERE account_id = ?`, accountID,
	).Scan(&p.Theme, &p.Language)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) SavePreferences(ctx context.Context, accountID string, prefs domain.Preferences) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO preferences (account_id, theme, language) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE theme = VALUES(theme), language = VALUES(language)`,
		accountID, prefs.Theme, prefs.Language,
	)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
