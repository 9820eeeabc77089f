package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"safatyundangan/backend/internal/domain"
	"safatyundangan/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	productOrder    []string
	categories      []string
	transactions    []domain.Transaction
	txIndex         map[string]int
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_MANAGER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_MANAGER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_MANAGER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"manager", managerPwd, domain.RoleManager},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func int64Ptr(v int64) *int64 {
	return &v
}

// NewSeeded builds a store preloaded with the demo catalog and ledger of the
// storefront.
func NewSeeded() *Store {
	products := []domain.Product{
		{
			ID: "1", Name: "Undangan Hardcover Mewah", Category: "Undangan Pernikahan",
			Price: 5000, DisplayPrice: "Rp 5.000 / pcs",
			Image:       "https://picsum.photos/400/300?random=1",
			Description: "Undangan tebal dengan foil emas dan amplop eksklusif. Pilihan tepat untuk acara formal.",
			Stock:       1500,
		},
		{
			ID: "2", Name: "Undangan Softcover Floral", Category: "Undangan Pernikahan",
			Price: 2500, DisplayPrice: "Rp 2.500 / pcs",
			Image:       "https://picsum.photos/400/300?random=2",
			Description: "Desain minimalis dengan motif bunga yang manis. Bahan art carton berkualitas.",
			Stock:       2000,
		},
		{
			ID: "3", Name: "Kartu Nama Bisnis", Category: "Office",
			Price: 35000, DisplayPrice: "Rp 35.000 / Box",
			Image:       "https://picsum.photos/400/300?random=3",
			Description: "Cetak kartu nama 1 atau 2 sisi dengan laminasi doff atau glossy. Isi 100 pcs.",
			Stock:       50,
		},
		{
			ID: "4", Name: "X-Banner Standing", Category: "Promosi",
			Price: 85000, DisplayPrice: "Rp 85.000",
			Image:       "https://picsum.photos/400/300?random=4",
			Description: "Banner promosi lengkap dengan tiang penyangga. Praktis dan mudah dibawa.",
			Stock:       12,
		},
		{
			ID: "5", Name: "Cetak Sticker Label", Category: "Packaging",
			Price: 15000, DisplayPrice: "Rp 15.000 / Lembar A3",
			Image:       "https://picsum.photos/400/300?random=5",
			Description: "Sticker kromo atau vinyl anti air. Sudah termasuk cutting sesuai pola.",
			Stock:       500,
		},
		{
			ID: "6", Name: "Buku Yasin Custom", Category: "Buku",
			Price: 12000, DisplayPrice: "Rp 12.000 / pcs",
			Image:       "https://picsum.photos/400/300?random=6",
			Description: "Buku Yasin dengan cover custom foto almarhum, tersedia hardcover dan softcover.",
			Stock:       75,
		},
	}

	transactions := []domain.Transaction{
		{
			ID: "TRX-001", Date: "2024-05-01", CustomerName: "Budi Santoso",
			CustomerAddress: "Jl. Melati No. 45, Jakarta Selatan",
			TotalAmount:     500000, Status: domain.StatusLunas,
			Items: []domain.TransactionItem{{Name: "Undangan Hardcover Mewah", Quantity: 100, Price: 5000}},
		},
		{
			ID: "TRX-002", Date: "2024-05-02", CustomerName: "Siti Aminah",
			CustomerAddress: "Komplek Permata Hijau Blok A2",
			TotalAmount:     175000, Status: domain.StatusLunas,
			Items: []domain.TransactionItem{{Name: "Kartu Nama Bisnis", Quantity: 5, Price: 35000}},
		},
		{
			ID: "TRX-003", Date: "2024-05-03", CustomerName: "PT Maju Jaya",
			CustomerAddress: "Gedung Cyber Lt. 2, Kuningan",
			TotalAmount:     850000, Status: domain.StatusPending,
			Items: []domain.TransactionItem{{Name: "X-Banner Standing", Quantity: 10, Price: 85000}},
		},
		{
			ID: "TRX-004", Date: "2024-05-03", CustomerName: "Rian & Rini",
			CustomerAddress: "Jl. Kenanga No. 10, Bandung",
			TotalAmount:     2500000, Status: domain.StatusLunas,
			Items: []domain.TransactionItem{{Name: "Undangan Softcover Floral", Quantity: 1000, Price: 2500}},
		},
		{
			ID: "TRX-005", Date: "2024-05-04", CustomerName: "Keluarga Besar H. Ahmad",
			CustomerAddress: "Jl. Raya Bogor KM 25",
			TotalAmount:     600000, Status: domain.StatusLunas,
			Items: []domain.TransactionItem{{Name: "Buku Yasin Custom", Quantity: 50, Price: 12000}},
		},
		{
			ID: "TRX-006", Date: "2024-05-05", CustomerName: "Doni Pratama",
			CustomerAddress: "Jl. Sudirman No. 88",
			TotalAmount:     3000000, PaidAmount: int64Ptr(1000000), Status: domain.StatusDP,
			Items: []domain.TransactionItem{{Name: "Undangan Hardcover Premium", Quantity: 200, Price: 15000}},
		},
		{
			ID: "TRX-007", Date: "2024-06-06", CustomerName: "Sari & Bimo",
			CustomerAddress: "Komp. Gading Serpong",
			TotalAmount:     1500000, PaidAmount: int64Ptr(750000), Status: domain.StatusDP,
			Items: []domain.TransactionItem{{Name: "Undangan Softcover Custom", Quantity: 500, Price: 3000}},
		},
	}

	productMap := make(map[string]domain.Product, len(products))
	productOrder := make([]string, 0, len(products))
	for _, p := range products {
		productMap[p.ID] = p
		productOrder = append(productOrder, p.ID)
	}

	txIndex := make(map[string]int, len(transactions))
	for i, tx := range transactions {
		txIndex[tx.ID] = i
	}

	return &Store{
		products:     productMap,
		productOrder: productOrder,
		categories: []string{
			"Undangan Pernikahan",
			"Office",
			"Promosi",
			"Packaging",
			"Buku",
			"Digital",
		},
		transactions:    transactions,
		txIndex:         txIndex,
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

// NewEmpty builds a store with no catalog or ledger, only seed users. Used by
// tests that need full control of the data set.
func NewEmpty() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		productOrder:    make([]string, 0, 16),
		categories:      make([]string, 0, 8),
		transactions:    make([]domain.Transaction, 0, 32),
		txIndex:         make(map[string]int),
		auditLogs:       make([]domain.AuditLog, 0, 32),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		products = append(products, s.products[id])
	}
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.Category == "" || product.Price < 1 || product.Stock < 0 {
		return nil, store.ErrValidation
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrValidation
	}

	s.products[product.ID] = product
	s.productOrder = append(s.productOrder, product.ID)
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.Category == "" || product.Price < 1 || product.Stock < 0 {
		return nil, store.ErrValidation
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]string, len(s.categories))
	copy(categories, s.categories)
	return categories, nil
}

func (s *Store) AddCategory(_ context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.categories, name) {
		return store.ErrValidation
	}
	s.categories = append(s.categories, name)
	return nil
}

// RemoveCategory drops the category from the set. Products still referencing
// it keep their category string untouched.
func (s *Store) RemoveCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.Index(s.categories, name)
	if idx < 0 {
		return store.ErrNotFound
	}
	s.categories = slices.Delete(s.categories, idx, idx+1)
	return nil
}

// ListTransactions returns the ledger in insertion order. Display ordering
// (most recent first) is applied by the reporting layer, not here.
func (s *Store) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		result = append(result, cloneTransaction(tx))
	}
	return result, nil
}

func (s *Store) GetTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.txIndex[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	tx := cloneTransaction(s.transactions[idx])
	return &tx, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" || tx.Date == "" || tx.CustomerName == "" || len(tx.Items) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txIndex[tx.ID]; exists {
		return nil, store.ErrValidation
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	s.txIndex[tx.ID] = len(s.transactions)
	s.transactions = append(s.transactions, cloneTransaction(tx))
	created := cloneTransaction(tx)
	return &created, nil
}

// UpdateTransactionPayment replaces the payment triple in one step so total,
// paid and status can never drift apart. Items, date and customer fields are
// untouched.
func (s *Store) UpdateTransactionPayment(_ context.Context, id string, total int64, paid int64, status string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.txIndex[id]
	if !exists {
		return nil, store.ErrNotFound
	}

	tx := &s.transactions[idx]
	tx.TotalAmount = total
	tx.PaidAmount = int64Ptr(paid)
	tx.Status = status

	updated := cloneTransaction(*tx)
	return &updated, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.AuditLog, 0, limit)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrValidation
	}
	user.Username = username
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	cloned := tx
	cloned.Items = make([]domain.TransactionItem, len(tx.Items))
	copy(cloned.Items, tx.Items)
	if tx.PaidAmount != nil {
		cloned.PaidAmount = int64Ptr(*tx.PaidAmount)
	}
	return cloned
}

func cmpString(a string, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
