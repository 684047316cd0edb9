// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mcp-nutrition-scan/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrSystemList    = errors.New("reserved system list name")
	ErrDuplicateList = errors.New("list already exists")
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases and foreign keys consistent
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := storage.EnsureScannedList(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    PRAGMA foreign_keys = ON;

    CREATE TABLE IF NOT EXISTS products (
        id TEXT PRIMARY KEY,
        barcode TEXT NOT NULL DEFAULT '',
        name TEXT NOT NULL,
        name_folded TEXT NOT NULL,
        brand TEXT NOT NULL DEFAULT '',
        scan_mode TEXT NOT NULL,
        ingredients TEXT NOT NULL DEFAULT '[]',
        ingredients_text TEXT NOT NULL DEFAULT '',
        quantity TEXT NOT NULL DEFAULT '',
        serving_size TEXT NOT NULL DEFAULT '',
        nutriscore_grade TEXT NOT NULL DEFAULT '',
        nova_group INTEGER NOT NULL DEFAULT 0,
        nutrients TEXT NOT NULL DEFAULT '{}',
        ai_analysis TEXT NOT NULL DEFAULT '',
        ai_junk_score REAL,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS lists (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        system INTEGER NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS list_products (
        list_id TEXT NOT NULL,
        product_id TEXT NOT NULL,
        added_at TEXT NOT NULL,
        PRIMARY KEY (list_id, product_id),
        FOREIGN KEY (list_id) REFERENCES lists(id) ON DELETE CASCADE,
        FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_products_barcode ON products(barcode);
    CREATE INDEX IF NOT EXISTS idx_products_name_folded ON products(name_folded);
    CREATE INDEX IF NOT EXISTS idx_list_products_added ON list_products(list_id, added_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const productColumns = `p.id, p.barcode, p.name, p.brand, p.scan_mode, p.ingredients, p.ingredients_text,
        p.quantity, p.serving_size, p.nutriscore_grade, p.nova_group, p.nutrients, p.ai_analysis,
        p.ai_junk_score, p.created_at`

// SaveProduct inserts or replaces a product. A replaced product keeps its list
// memberships.
func (s *SQLiteStorage) SaveProduct(p *models.Product) error {
	ingredients, err := json.Marshal(nonNil(p.Ingredients))
	if err != nil {
		return fmt.Errorf("failed to encode ingredients: %w", err)
	}
	nutrients, err := json.Marshal(p.Nutrients)
	if err != nil {
		return fmt.Errorf("failed to encode nutrients: %w", err)
	}

	var junk sql.NullFloat64
	if p.AIJunkScore != nil {
		junk = sql.NullFloat64{Float64: *p.AIJunkScore, Valid: true}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO products (id, barcode, name, name_folded, brand, scan_mode, ingredients,
            ingredients_text, quantity, serving_size, nutriscore_grade, nova_group, nutrients,
            ai_analysis, ai_junk_score, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            barcode = excluded.barcode, name = excluded.name, name_folded = excluded.name_folded,
            brand = excluded.brand, scan_mode = excluded.scan_mode, ingredients = excluded.ingredients,
            ingredients_text = excluded.ingredients_text, quantity = excluded.quantity,
            serving_size = excluded.serving_size, nutriscore_grade = excluded.nutriscore_grade,
            nova_group = excluded.nova_group, nutrients = excluded.nutrients,
            ai_analysis = excluded.ai_analysis, ai_junk_score = excluded.ai_junk_score
    `
	_, err = s.db.Exec(query,
		p.ID, p.Barcode, p.Name, FoldName(p.Name), p.Brand, string(p.ScanMode), string(ingredients),
		p.IngredientsText, p.Quantity, p.ServingSize, p.NutriscoreGrade, p.NovaGroup, string(nutrients),
		p.AIAnalysis, junk, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetProduct(id string) (*models.Product, error) {
	row := s.db.QueryRow(`SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchProducts matches every word of query against folded product names,
// newest first. A query with no searchable words matches nothing.
func (s *SQLiteStorage) SearchProducts(query string, limit int) ([]*models.Product, error) {
	words := strings.Fields(FoldName(query))
	if len(words) == 0 {
		return []*models.Product{}, nil
	}

	q := `SELECT ` + productColumns + ` FROM products p WHERE 1=1`
	args := []interface{}{}

	for _, word := range words {
		q += ` AND (' ' || p.name_folded || ' ') LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(word)+"%")
	}

	q += " ORDER BY p.created_at DESC LIMIT ?"
	args = append(args, normalizeLimit(limit))

	return s.queryProducts(q, args...)
}

func (s *SQLiteStorage) CreateList(name string) (*models.ProductList, error) {
	return s.createList(name, false)
}

// EnsureScannedList returns the system "Scanned" list, creating it on first use.
func (s *SQLiteStorage) EnsureScannedList() (*models.ProductList, error) {
	l, err := s.GetListByName(models.ScannedListName)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.createList(models.ScannedListName, true)
}

func (s *SQLiteStorage) createList(name string, system bool) (*models.ProductList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("list name is required")
	}
	if !system && strings.EqualFold(name, models.ScannedListName) {
		return nil, fmt.Errorf("%w: %s", ErrSystemList, name)
	}
	if _, err := s.GetListByName(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateList, name)
	}

	l := &models.ProductList{
		ID:        uuid.NewString(),
		Name:      name,
		System:    system,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO lists (id, name, system, created_at) VALUES (?, ?, ?, ?)`,
		l.ID, l.Name, l.System, formatTime(l.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert list: %w", err)
	}
	return l, nil
}

func (s *SQLiteStorage) GetList(id string) (*models.ProductList, error) {
	return s.getList(`SELECT id, name, system, created_at FROM lists WHERE id = ?`, id)
}

func (s *SQLiteStorage) GetListByName(name string) (*models.ProductList, error) {
	return s.getList(`SELECT id, name, system, created_at FROM lists WHERE name = ?`, name)
}

func (s *SQLiteStorage) getList(query string, arg string) (*models.ProductList, error) {
	l := &models.ProductList{}
	var createdAt string
	err := s.db.QueryRow(query, arg).Scan(&l.ID, &l.Name, &l.System, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list %s: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query list: %w", err)
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return l, nil
}

// Lists returns every list, the system list first.
func (s *SQLiteStorage) Lists() ([]*models.ProductList, error) {
	rows, err := s.db.Query(`SELECT id, name, system, created_at FROM lists ORDER BY system DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.ProductList
	for rows.Next() {
		l := &models.ProductList{}
		var createdAt string
		if err := rows.Scan(&l.ID, &l.Name, &l.System, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// AddToList puts a product at the front of a list. It reports false, without
// moving the product, when the list already holds it.
func (s *SQLiteStorage) AddToList(listID, productID string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM lists WHERE id = ?`, listID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query list: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	if err := tx.QueryRow(`SELECT COUNT(*) FROM products WHERE id = ?`, productID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query product: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}

	res, err := tx.Exec(`INSERT OR IGNORE INTO list_products (list_id, product_id, added_at) VALUES (?, ?, ?)`,
		listID, productID, formatTime(time.Now().UTC()))
	if err != nil {
		return false, fmt.Errorf("failed to add product to list: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return affected > 0, nil
}

// RemoveFromList reports whether the product was on the list.
func (s *SQLiteStorage) RemoveFromList(listID, productID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM list_products WHERE list_id = ? AND product_id = ?`, listID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to remove product from list: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// SaveScanned stores a product and files it under the system list.
func (s *SQLiteStorage) SaveScanned(p *models.Product) error {
	if err := s.SaveProduct(p); err != nil {
		return err
	}
	scanned, err := s.EnsureScannedList()
	if err != nil {
		return err
	}
	if _, err := s.AddToList(scanned.ID, p.ID); err != nil {
		return fmt.Errorf("failed to add to %s list: %w", models.ScannedListName, err)
	}
	return nil
}

// ListProducts returns a list's products, by default newest first.
func (s *SQLiteStorage) ListProducts(q models.ListQuery) ([]*models.Product, error) {
	if _, err := s.GetList(q.ListID); err != nil {
		return nil, err
	}

	query := `
        SELECT ` + productColumns + `
        FROM products p
        JOIN list_products lp ON lp.product_id = p.id
        WHERE lp.list_id = ?
    `
	args := []interface{}{q.ListID}

	if q.ScanMode != "" {
		query += " AND p.scan_mode = ?"
		args = append(args, string(q.ScanMode))
	}

	direction := "DESC"
	if q.Direction == models.SortAscending {
		direction = "ASC"
	}
	switch q.Sort {
	case models.SortByName:
		if q.Direction == "" {
			direction = "ASC"
		}
		query += " ORDER BY p.name_folded " + direction + ", lp.added_at DESC"
	default:
		query += " ORDER BY lp.added_at " + direction + ", lp.rowid " + direction
	}

	query += " LIMIT ?"
	args = append(args, normalizeLimit(q.Limit))

	return s.queryProducts(query, args...)
}

func (s *SQLiteStorage) queryProducts(query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var scanMode, ingredients, nutrients, createdAt string
	var junk sql.NullFloat64

	err := row.Scan(
		&p.ID, &p.Barcode, &p.Name, &p.Brand, &scanMode, &ingredients, &p.IngredientsText,
		&p.Quantity, &p.ServingSize, &p.NutriscoreGrade, &p.NovaGroup, &nutrients, &p.AIAnalysis,
		&junk, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.ScanMode = models.ScanMode(scanMode)
	if junk.Valid {
		v := junk.Float64
		p.AIJunkScore = &v
	}
	if err := json.Unmarshal([]byte(ingredients), &p.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients: %w", err)
	}
	if err := json.Unmarshal([]byte(nutrients), &p.Nutrients); err != nil {
		return nil, fmt.Errorf("failed to decode nutrients: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return p, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
