package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RelikeddDev/controlio/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps :memory: databases alive and sidesteps
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ----- cards -----

const cardColumns = `id, name, bank, card_type, last_four_digits, color,
	cutoff_day, payment_day, personal_payment_days, credit_limit_cents,
	annual_fee_cents, notes, created_at, updated_at`

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.Card) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Bank, string(c.Type), c.LastFourDigits, c.Color,
		c.CutoffDay, c.PaymentDay, joinDays(c.PersonalPaymentDays),
		c.CreditLimit.Cents, c.AnnualFee.Cents, c.Notes,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err != nil {
		return core.Card{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.Card) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards SET name = ?, bank = ?, card_type = ?,
			last_four_digits = ?, color = ?, cutoff_day = ?, payment_day = ?,
			personal_payment_days = ?, credit_limit_cents = ?,
			annual_fee_cents = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Bank, string(c.Type), c.LastFourDigits, c.Color,
		c.CutoffDay, c.PaymentDay, joinDays(c.PersonalPaymentDays),
		c.CreditLimit.Cents, c.AnnualFee.Cents, c.Notes, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update card %s: %w", c.ID, err)
	}
	return requireRow(res, c.ID)
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return requireRow(res, id)
}

// ----- categories -----

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, cat_type, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), c.Icon, c.Color, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var (
		c       core.Category
		catType string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, cat_type, icon, color, created_at
		FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &catType, &c.Icon, &c.Color, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	c.Type = core.TransactionType(catType)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, cat_type, icon, color, created_at
		FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var (
			c       core.Category
			catType string
		)
		if err := rows.Scan(&c.ID, &c.Name, &catType, &c.Icon, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(catType)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, cat_type = ?, icon = ?, color = ?
		WHERE id = ?`,
		c.Name, string(c.Type), c.Icon, c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return requireRow(res, c.ID)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// ----- transactions -----

const txColumns = `id, card_id, category_id, tx_type, kind, amount_cents,
	tx_date, description, installments, first_payment_date,
	recurring_interval, recurring_start, recurring_end, created_at, updated_at`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CardID, t.CategoryID, string(t.Type), string(t.Kind),
		t.Amount.Cents, t.Date, t.Description, t.Installments,
		nullTime(t.FirstPaymentDate), string(t.RecurringInterval),
		nullTime(t.RecurringStart), nullTime(t.RecurringEnd),
		t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// CreateTransactions inserts a batch atomically.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.CardID, t.CategoryID, string(t.Type), string(t.Kind),
			t.Amount.Cents, t.Date, t.Description, t.Installments,
			nullTime(t.FirstPaymentDate), string(t.RecurringInterval),
			nullTime(t.RecurringStart), nullTime(t.RecurringEnd),
			t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions ORDER BY tx_date DESC`)
}

func (r *SQLiteRepository) ListTransactionsByCard(ctx context.Context, cardID string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE card_id = ? ORDER BY tx_date DESC`,
		cardID)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET card_id = ?, category_id = ?, tx_type = ?,
			kind = ?, amount_cents = ?, tx_date = ?, description = ?,
			installments = ?, first_payment_date = ?, recurring_interval = ?,
			recurring_start = ?, recurring_end = ?, updated_at = ?
		WHERE id = ?`,
		t.CardID, t.CategoryID, string(t.Type), string(t.Kind),
		t.Amount.Cents, t.Date, t.Description, t.Installments,
		nullTime(t.FirstPaymentDate), string(t.RecurringInterval),
		nullTime(t.RecurringStart), nullTime(t.RecurringEnd),
		t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return requireRow(res, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return requireRow(res, id)
}

// ----- receipts -----

const receiptColumns = `id, card_id, image_base64, status, raw_text,
	draft_amount_cents, draft_date, fail_reason, created_at, updated_at`

func (r *SQLiteRepository) CreateReceipt(ctx context.Context, rc core.Receipt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO receipts (`+receiptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rc.ID, rc.CardID, rc.ImageBase64, string(rc.Status), rc.RawText,
		rc.DraftAmount.Cents, nullTime(rc.DraftDate), rc.FailReason,
		rc.CreatedAt, rc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetReceipt(ctx context.Context, id string) (core.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE id = ?`, id)
	rc, err := scanReceipt(row)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt %s: %w", id, err)
	}
	return rc, nil
}

func (r *SQLiteRepository) ListReceiptsByStatus(ctx context.Context, status core.ReceiptStatus, limit int) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+receiptColumns+` FROM receipts
		WHERE status = ? ORDER BY created_at LIMIT ?`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list receipts by status: %w", err)
	}
	defer rows.Close()

	var receipts []core.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}

// UpdateReceiptResult records the outcome of an analysis attempt.
func (r *SQLiteRepository) UpdateReceiptResult(ctx context.Context, rc core.Receipt) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE receipts SET status = ?, raw_text = ?, draft_amount_cents = ?,
			draft_date = ?, fail_reason = ?, updated_at = ?
		WHERE id = ?`,
		string(rc.Status), rc.RawText, rc.DraftAmount.Cents,
		nullTime(rc.DraftDate), rc.FailReason, rc.UpdatedAt, rc.ID)
	if err != nil {
		return fmt.Errorf("update receipt %s: %w", rc.ID, err)
	}
	return requireRow(res, rc.ID)
}

// ----- scanning helpers -----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (core.Card, error) {
	var (
		c        core.Card
		cardType string
		days     string
		limit    int64
		fee      int64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Bank, &cardType, &c.LastFourDigits,
		&c.Color, &c.CutoffDay, &c.PaymentDay, &days, &limit, &fee,
		&c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, ErrNotFound
	}
	if err != nil {
		return core.Card{}, err
	}
	c.Type = core.CardType(cardType)
	c.PersonalPaymentDays = splitDays(days)
	c.CreditLimit = core.Money{Cents: limit}
	c.AnnualFee = core.Money{Cents: fee}
	return c, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t           core.Transaction
		txType      string
		kind        string
		interval    string
		amount      int64
		firstPay    sql.NullTime
		recStart    sql.NullTime
		recurEnd    sql.NullTime
	)
	err := row.Scan(&t.ID, &t.CardID, &t.CategoryID, &txType, &kind,
		&amount, &t.Date, &t.Description, &t.Installments, &firstPay,
		&interval, &recStart, &recurEnd, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(txType)
	t.Kind = core.TransactionKind(kind)
	t.RecurringInterval = core.RecurringInterval(interval)
	t.Amount = core.Money{Cents: amount}
	t.FirstPaymentDate = firstPay.Time
	t.RecurringStart = recStart.Time
	t.RecurringEnd = recurEnd.Time
	return t, nil
}

func scanReceipt(row rowScanner) (core.Receipt, error) {
	var (
		rc        core.Receipt
		status    string
		amount    int64
		draftDate sql.NullTime
	)
	err := row.Scan(&rc.ID, &rc.CardID, &rc.ImageBase64, &status,
		&rc.RawText, &amount, &draftDate, &rc.FailReason,
		&rc.CreatedAt, &rc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, ErrNotFound
	}
	if err != nil {
		return core.Receipt{}, err
	}
	rc.Status = core.ReceiptStatus(status)
	rc.DraftAmount = core.Money{Cents: amount}
	rc.DraftDate = draftDate.Time
	return rc, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func joinDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func splitDays(s string) []int {
	if s == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return days
}
