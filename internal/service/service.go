package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"safatyundangan/backend/internal/domain"
	"safatyundangan/backend/internal/invitation"
	"safatyundangan/backend/internal/report"
	"safatyundangan/backend/internal/store"
	"safatyundangan/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo          store.Repository
	invitations   *invitation.Engine
	checkoutDelay time.Duration
}

func New(repo store.Repository, invitations *invitation.Engine, checkoutDelay time.Duration) *Service {
	if checkoutDelay < 0 {
		checkoutDelay = 0
	}

	return &Service{
		repo:          repo,
		invitations:   invitations,
		checkoutDelay: checkoutDelay,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireBackofficeActor(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		return domain.Product{}, store.ErrValidation
	}
	if req.Price < 1 || req.Stock < 0 {
		return domain.Product{}, store.ErrValidation
	}

	product := domain.Product{
		ID:           xid.New("prd"),
		Name:         req.Name,
		Category:     req.Category,
		Price:        req.Price,
		DisplayPrice: displayPrice(req.Category, req.Price),
		Image:        strings.TrimSpace(req.Image),
		Description:  strings.TrimSpace(req.Description),
		Stock:        req.Stock,
	}

	saved, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", saved.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", saved.Name, saved.Price, saved.Stock))
	return *saved, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireBackofficeActor(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrValidation
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Product{}, store.ErrValidation
		}
		updated.Category = category
	}
	if req.Price != nil {
		if *req.Price < 1 {
			return domain.Product{}, store.ErrValidation
		}
		updated.Price = *req.Price
	}
	if req.Image != nil {
		updated.Image = strings.TrimSpace(*req.Image)
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrValidation
		}
		updated.Stock = *req.Stock
	}
	updated.DisplayPrice = displayPrice(updated.Category, updated.Price)

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", saved.Name, saved.Price, saved.Stock))
	return *saved, nil
}

func (s *Service) AddCategory(ctx context.Context, req domain.CategoryCreateRequest) error {
	if err := requireBackofficeActor(ctx); err != nil {
		return err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return store.ErrValidation
	}
	if err := s.repo.AddCategory(ctx, name); err != nil {
		return err
	}

	s.logAudit(ctx, "category_add", "category", name, "")
	return nil
}

// RemoveCategory drops the category from the list. Products already assigned
// to it keep their category string, matching how the printable catalog treats
// orphaned categories.
func (s *Service) RemoveCategory(ctx context.Context, name string) error {
	if err := requireBackofficeActor(ctx); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return store.ErrValidation
	}
	if err := s.repo.RemoveCategory(ctx, name); err != nil {
		return err
	}

	s.logAudit(ctx, "category_remove", "category", name, "")
	return nil
}

// Checkout records a storefront order. Prices are always taken from the live
// catalog, never from the client payload. Stock is intentionally not
// decremented: the shop prints to order, so the stock figure is a material
// estimate maintained by hand through product updates.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerAddress = strings.TrimSpace(req.CustomerAddress)
	if req.CustomerName == "" || req.CustomerAddress == "" {
		return domain.CheckoutResponse{}, store.ErrValidation
	}
	// Negative money inputs are treated as zero, not rejected: the storefront
	// form sends 0 for blank fields and the engine mirrors that.
	if req.Discount < 0 {
		req.Discount = 0
	}
	if req.PaidAmount < 0 {
		req.PaidAmount = 0
	}

	normalized := normalizeItems(req.Items)
	if len(normalized) == 0 {
		return domain.CheckoutResponse{}, store.ErrValidation
	}

	ids := make([]string, 0, len(normalized))
	for _, item := range normalized {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	subtotal := int64(0)
	lines := make([]domain.TransactionItem, 0, len(normalized))
	for _, item := range normalized {
		product, exists := products[item.ProductID]
		if !exists {
			return domain.CheckoutResponse{}, store.ErrValidation
		}
		subtotal += int64(item.Qty) * product.Price
		lines = append(lines, domain.TransactionItem{
			Name:     product.Name,
			Quantity: item.Qty,
			Price:    product.Price,
		})
	}

	discount := req.Discount
	if discount > subtotal {
		discount = subtotal
	}
	total := subtotal - discount
	paid := req.PaidAmount

	tx := domain.Transaction{
		ID:              xid.New("TRX"),
		Date:            time.Now().UTC().Format(domain.DateLayout),
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		TotalAmount:     total,
		Discount:        discount,
		PaidAmount:      &paid,
		Status:          report.DeriveStatus(total, paid),
		Items:           lines,
		CreatedAt:       time.Now().UTC(),
	}

	// Print-queue handoff pacing inherited from the storefront UX. Checkout
	// always resolves; the delay is not cancellable.
	if s.checkoutDelay > 0 {
		time.Sleep(s.checkoutDelay)
	}

	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.logAudit(ctx, "checkout", "transaction", created.ID, fmt.Sprintf("total=%d,paid=%d,status=%s", created.TotalAmount, paid, created.Status))

	remaining := created.TotalAmount - created.Paid()
	if remaining < 0 {
		remaining = 0
	}
	return domain.CheckoutResponse{
		Transaction: *created,
		Subtotal:    subtotal,
		Remaining:   remaining,
	}, nil
}

// EditTransactionPayment rewrites the payment figures of an existing ledger
// entry and re-derives its status. Overpayment is surfaced in the response
// rather than clamped, so the cashier can hand back change.
func (s *Service) EditTransactionPayment(ctx context.Context, id string, req domain.TransactionEditRequest) (domain.TransactionEditResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.TransactionEditResponse{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.TransactionEditResponse{}, store.ErrValidation
	}
	if req.TotalAmount < 0 || req.PaidAmount < 0 {
		return domain.TransactionEditResponse{}, store.ErrValidation
	}

	if _, err := s.repo.GetTransactionByID(ctx, id); err != nil {
		return domain.TransactionEditResponse{}, err
	}

	status := report.DeriveStatus(req.TotalAmount, req.PaidAmount)
	updated, err := s.repo.UpdateTransactionPayment(ctx, id, req.TotalAmount, req.PaidAmount, status)
	if err != nil {
		return domain.TransactionEditResponse{}, err
	}

	s.logAudit(ctx, "transaction_edit", "transaction", updated.ID, fmt.Sprintf("total=%d,paid=%d,status=%s", req.TotalAmount, req.PaidAmount, status))

	remaining := int64(0)
	overpaid := int64(0)
	if diff := req.TotalAmount - req.PaidAmount; diff > 0 {
		remaining = diff
	} else {
		overpaid = -diff
	}
	return domain.TransactionEditResponse{
		Transaction: *updated,
		Remaining:   remaining,
		Overpaid:    overpaid,
	}, nil
}

// ListTransactions returns the ledger ordered most recent date first.
func (s *Service) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return report.SortByDateDesc(txs), nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Transaction{}, store.ErrValidation
	}
	tx, err := s.repo.GetTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

func (s *Service) PeriodReport(ctx context.Context, query domain.PeriodQuery) (domain.PeriodReport, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return domain.PeriodReport{}, err
	}

	var filtered []domain.Transaction
	switch query.Mode {
	case domain.PeriodDaily:
		if _, err := time.Parse(domain.DateLayout, query.Date); err != nil {
			return domain.PeriodReport{}, store.ErrValidation
		}
		filtered = report.FilterDaily(txs, query.Date)
	case domain.PeriodRange:
		if _, err := time.Parse(domain.DateLayout, query.StartDate); err != nil {
			return domain.PeriodReport{}, store.ErrValidation
		}
		if _, err := time.Parse(domain.DateLayout, query.EndDate); err != nil {
			return domain.PeriodReport{}, store.ErrValidation
		}
		filtered = report.FilterRange(txs, query.StartDate, query.EndDate)
	case domain.PeriodMonthly:
		if query.Month < 1 || query.Month > 12 || query.Year < 1 {
			return domain.PeriodReport{}, store.ErrValidation
		}
		filtered = report.FilterMonthly(txs, query.Month, query.Year)
	default:
		return domain.PeriodReport{}, store.ErrValidation
	}

	return domain.PeriodReport{
		Query:            query,
		Transactions:     filtered,
		TransactionCount: len(filtered),
		Revenue:          report.Revenue(filtered),
	}, nil
}

func (s *Service) AnnualReport(ctx context.Context, year int) (domain.AnnualReport, error) {
	if year < 1 {
		return domain.AnnualReport{}, store.ErrValidation
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return domain.AnnualReport{}, err
	}
	return report.AnnualRecap(txs, year), nil
}

func (s *Service) ReceivablesReport(ctx context.Context) (domain.ReceivablesReport, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return domain.ReceivablesReport{}, err
	}
	return report.Receivables(txs), nil
}

func (s *Service) StockReport(ctx context.Context) (domain.StockReport, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.StockReport{}, err
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return domain.StockReport{}, err
	}

	rows := make([]domain.StockRow, 0, len(products))
	for _, product := range products {
		sold := report.SoldCount(product, txs)
		rows = append(rows, domain.StockRow{
			ProductID:          product.ID,
			Name:               product.Name,
			Category:           product.Category,
			TotalStockEstimate: report.TotalStockEstimate(product, txs),
			Sold:               sold,
			Stock:              product.Stock,
			Label:              report.StockLabel(product.Stock),
		})
	}

	return domain.StockReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Rows:        rows,
	}, nil
}

func (s *Service) GenerateInvitation(ctx context.Context, req domain.InvitationRequest) (domain.InvitationResponse, error) {
	if s.invitations == nil {
		return domain.InvitationResponse{}, invitation.ErrNotConfigured
	}
	resp, err := s.invitations.Generate(ctx, req)
	if err != nil {
		return domain.InvitationResponse{}, err
	}
	return *resp, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return nil, store.ErrValidation
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "storefront", Role: "public"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func requireBackofficeActor(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return errors.New("authentication required")
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager {
		return fmt.Errorf("admin or manager role required")
	}
	return nil
}

func normalizeItems(items []domain.CartItem) []domain.CartItem {
	agg := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Qty < 1 {
			continue
		}
		if _, seen := agg[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		agg[item.ProductID] += item.Qty
	}

	normalized := make([]domain.CartItem, 0, len(agg))
	for _, id := range order {
		normalized = append(normalized, domain.CartItem{ProductID: id, Qty: agg[id]})
	}
	return normalized
}

// categoryUnits maps a category to the unit suffix shown on price labels.
// Categories without an entry show the bare price.
var categoryUnits = map[string]string{
	"Undangan Pernikahan": "pcs",
	"Office":              "Box",
	"Packaging":           "Lembar A3",
	"Buku":                "pcs",
}

func displayPrice(category string, price int64) string {
	label := "Rp " + formatRupiah(price)
	if unit, ok := categoryUnits[category]; ok {
		label += " / " + unit
	}
	return label
}

// formatRupiah renders 1234567 as "1.234.567".
func formatRupiah(amount int64) string {
	if amount < 0 {
		return "-" + formatRupiah(-amount)
	}
	digits := fmt.Sprintf("%d", amount)
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
