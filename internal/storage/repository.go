// Package storage is the SQLite adapter behind the ledger and user ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/log"
	"caixa/internal/users"
)

// dateFormat is how movement and user timestamps are stored. RFC3339 in UTC
// sorts lexicographically, which the date index relies on.
const dateFormat = time.RFC3339

// SQLiteRepository implements the ledger and user repositories over one
// SQLite database file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

var (
	_ ledger.Store = (*SQLiteRepository)(nil)
	_ users.Repo   = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository opens (creating if needed) the database and applies
// migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- categories ---

func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Category(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.NotFoundError{Kind: "category", ID: id}
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE name = ? COLLATE NOCASE AND id != ?",
		name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	return n > 0, nil
}

// --- accounts ---

const accountColumns = `a.id, a.name, a.type, a.display_order, c.id, c.name
	FROM accounts a JOIN categories c ON c.id = a.category_id`

func (r *SQLiteRepository) Accounts(ctx context.Context) ([]core.Account, error) {
	return r.queryAccounts(ctx, "SELECT "+accountColumns+" ORDER BY a.id")
}

func (r *SQLiteRepository) AccountsByType(ctx context.Context, t core.AccountType) ([]core.Account, error) {
	return r.queryAccounts(ctx, "SELECT "+accountColumns+" WHERE a.type = ? ORDER BY a.id", t.String())
}

func (r *SQLiteRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Account(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" WHERE a.id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, &core.NotFoundError{Kind: "account", ID: id}
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (core.Account, error) {
	var a core.Account
	var typeName string
	var order sql.NullInt64
	if err := s.Scan(&a.ID, &a.Name, &typeName, &order, &a.Category.ID, &a.Category.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, err
		}
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	t, err := core.ParseAccountType(typeName)
	if err != nil {
		return core.Account{}, fmt.Errorf("account %d: %w", a.ID, err)
	}
	a.Type = t
	if order.Valid {
		o := int(order.Int64)
		a.DisplayOrder = &o
	}
	return a, nil
}

func (r *SQLiteRepository) AddAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (name, type, category_id, display_order) VALUES (?, ?, ?, ?)",
		a.Name, a.Type.String(), a.Category.ID, orderValue(a.DisplayOrder))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return r.Account(ctx, id)
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET name = ?, type = ?, category_id = ?, display_order = ? WHERE id = ?",
		a.Name, a.Type.String(), a.Category.ID, orderValue(a.DisplayOrder), a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Account{}, &core.NotFoundError{Kind: "account", ID: a.ID}
	}
	return r.Account(ctx, a.ID)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "account", ID: id}
	}
	return nil
}

func (r *SQLiteRepository) AccountNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE name = ? COLLATE NOCASE AND id != ?",
		name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

func orderValue(order *int) any {
	if order == nil {
		return nil
	}
	return *order
}

// --- movements ---

const movementColumns = "id, date, amount_cents, account_id FROM movements"

func (r *SQLiteRepository) Movements(ctx context.Context) ([]core.Movement, error) {
	return r.queryMovements(ctx, "SELECT "+movementColumns+" ORDER BY date DESC, id DESC")
}

func (r *SQLiteRepository) Movement(ctx context.Context, id int64) (core.Movement, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+movementColumns+" WHERE id = ?", id)
	m, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Movement{}, &core.NotFoundError{Kind: "movement", ID: id}
	}
	return m, err
}

func (r *SQLiteRepository) MovementsByPeriod(ctx context.Context, start, end time.Time) ([]core.Movement, error) {
	return r.queryMovements(ctx,
		"SELECT "+movementColumns+" WHERE date >= ? AND date <= ? ORDER BY date DESC, id DESC",
		start.UTC().Format(dateFormat), end.UTC().Format(dateFormat))
}

func (r *SQLiteRepository) MovementsByAccount(ctx context.Context, accountID int64) ([]core.Movement, error) {
	return r.queryMovements(ctx,
		"SELECT "+movementColumns+" WHERE account_id = ? ORDER BY date DESC, id DESC", accountID)
}

func (r *SQLiteRepository) MovementsByAccountType(ctx context.Context, t core.AccountType) ([]core.Movement, error) {
	return r.queryMovements(ctx,
		`SELECT m.id, m.date, m.amount_cents, m.account_id FROM movements m
		 JOIN accounts a ON a.id = m.account_id
		 WHERE a.type = ? ORDER BY m.date DESC, m.id DESC`, t.String())
}

func (r *SQLiteRepository) queryMovements(ctx context.Context, query string, args ...any) ([]core.Movement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var out []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMovement(s scanner) (core.Movement, error) {
	var m core.Movement
	var date string
	if err := s.Scan(&m.ID, &date, &m.Amount.Cents, &m.AccountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Movement{}, err
		}
		return core.Movement{}, fmt.Errorf("scan movement: %w", err)
	}
	d, err := time.Parse(dateFormat, date)
	if err != nil {
		return core.Movement{}, fmt.Errorf("movement %d date: %w", m.ID, err)
	}
	m.Date = d
	return m, nil
}

func (r *SQLiteRepository) AddMovement(ctx context.Context, m core.Movement) (core.Movement, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movements (date, amount_cents, account_id) VALUES (?, ?, ?)",
		m.Date.UTC().Format(dateFormat), m.Amount.Cents, m.AccountID)
	if err != nil {
		return core.Movement{}, fmt.Errorf("insert movement: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return core.Movement{}, fmt.Errorf("movement id: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) UpdateMovement(ctx context.Context, m core.Movement) (core.Movement, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE movements SET date = ?, amount_cents = ?, account_id = ? WHERE id = ?",
		m.Date.UTC().Format(dateFormat), m.Amount.Cents, m.AccountID, m.ID)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Movement{}, &core.NotFoundError{Kind: "movement", ID: m.ID}
	}
	return m, nil
}

func (r *SQLiteRepository) DeleteMovement(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "movement", ID: id}
	}
	return nil
}

// --- users ---

const userColumns = "id, name, email, phone, cpf, photo, created_at, updated_at FROM users"

func (r *SQLiteRepository) Users(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []users.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) User(ctx context.Context, id int64) (users.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, &core.NotFoundError{Kind: "user", ID: id}
	}
	return u, err
}

func scanUser(s scanner) (users.User, error) {
	var u users.User
	var created, updated string
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.CPF, &u.Photo, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, err
		}
		return users.User{}, fmt.Errorf("scan user: %w", err)
	}
	var err error
	if u.CreatedAt, err = time.Parse(dateFormat, created); err != nil {
		return users.User{}, fmt.Errorf("user %d created_at: %w", u.ID, err)
	}
	if u.UpdatedAt, err = time.Parse(dateFormat, updated); err != nil {
		return users.User{}, fmt.Errorf("user %d updated_at: %w", u.ID, err)
	}
	return u, nil
}

func (r *SQLiteRepository) AddUser(ctx context.Context, u users.User) (users.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, cpf, photo, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.Name, u.Email, u.Phone, u.CPF, u.Photo,
		u.CreatedAt.UTC().Format(dateFormat), u.UpdatedAt.UTC().Format(dateFormat))
	if err != nil {
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return users.User{}, fmt.Errorf("user id: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u users.User) (users.User, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, phone = ?, cpf = ?, photo = ?, updated_at = ? WHERE id = ?",
		u.Name, u.Email, u.Phone, u.CPF, u.Photo, u.UpdatedAt.UTC().Format(dateFormat), u.ID)
	if err != nil {
		return users.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return users.User{}, &core.NotFoundError{Kind: "user", ID: u.ID}
	}
	return u, nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "user", ID: id}
	}
	return nil
}

func (r *SQLiteRepository) UserEmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ? COLLATE NOCASE AND id != ?",
		email, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}
