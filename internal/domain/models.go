package domain

import "time"

// DateLayout is the wire format for all calendar dates in the API. Period
// filtering and annual bucketing depend on this exact 10-character layout.
const DateLayout = "2006-01-02"

type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Price        int64  `json:"price"`
	DisplayPrice string `json:"display_price"`
	Image        string `json:"image,omitempty"`
	Description  string `json:"description,omitempty"`
	Stock        int    `json:"stock"`
}

type ProductCreateRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	Stock       int    `json:"stock"`
}

type ProductUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Image       *string `json:"image,omitempty"`
	Description *string `json:"description,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
}

// CartItem references a catalog product by id. Lines with the same product id
// are merged (quantities added) rather than duplicated.
type CartItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// TransactionItem is a snapshot of a product line at the time of sale. It is
// deliberately decoupled from the live Product so historical records stay
// immutable when the catalog changes.
type TransactionItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type Transaction struct {
	ID              string            `json:"id"`
	Date            string            `json:"date"`
	CustomerName    string            `json:"customer_name"`
	CustomerAddress string            `json:"customer_address,omitempty"`
	TotalAmount     int64             `json:"total_amount"`
	Discount        int64             `json:"discount,omitempty"`
	PaidAmount      *int64            `json:"paid_amount,omitempty"`
	Status          string            `json:"status"`
	Items           []TransactionItem `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Paid returns the recorded paid amount, treating an absent value as zero.
func (t Transaction) Paid() int64 {
	if t.PaidAmount == nil {
		return 0
	}
	return *t.PaidAmount
}

type CheckoutRequest struct {
	CustomerName    string     `json:"customer_name"`
	CustomerAddress string     `json:"customer_address"`
	Discount        int64      `json:"discount"`
	PaidAmount      int64      `json:"paid_amount"`
	Items           []CartItem `json:"items"`
}

type CheckoutResponse struct {
	Transaction Transaction `json:"transaction"`
	Subtotal    int64       `json:"subtotal"`
	Remaining   int64       `json:"remaining"`
}

type TransactionEditRequest struct {
	TotalAmount int64 `json:"total_amount"`
	PaidAmount  int64 `json:"paid_amount"`
}

type TransactionEditResponse struct {
	Transaction Transaction `json:"transaction"`
	Remaining   int64       `json:"remaining"`
	Overpaid    int64       `json:"overpaid"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

type PeriodQuery struct {
	Mode      string `json:"mode"`
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Month     int    `json:"month,omitempty"`
	Year      int    `json:"year,omitempty"`
}

type PeriodReport struct {
	Query            PeriodQuery   `json:"query"`
	Transactions     []Transaction `json:"transactions"`
	TransactionCount int           `json:"transaction_count"`
	Revenue          int64         `json:"revenue"`
}

type MonthRecap struct {
	Month            int    `json:"month"`
	Label            string `json:"label"`
	TransactionCount int    `json:"transaction_count"`
	Revenue          int64  `json:"revenue"`
}

type AnnualReport struct {
	Year              int          `json:"year"`
	Months            []MonthRecap `json:"months"`
	TotalTransactions int          `json:"total_transactions"`
	TotalRevenue      int64        `json:"total_revenue"`
}

type Receivable struct {
	Transaction Transaction `json:"transaction"`
	Remaining   int64       `json:"remaining"`
}

type ReceivablesReport struct {
	Items           []Receivable `json:"items"`
	TotalReceivable int64        `json:"total_receivable"`
}

type StockRow struct {
	ProductID          string `json:"product_id"`
	Name               string `json:"name"`
	Category           string `json:"category"`
	TotalStockEstimate int    `json:"total_stock_estimate"`
	Sold               int    `json:"sold"`
	Stock              int    `json:"stock"`
	Label              string `json:"label"`
}

type StockReport struct {
	GeneratedAt string     `json:"generated_at"`
	Rows        []StockRow `json:"rows"`
}

type InvitationRequest struct {
	GroomName string `json:"groom_name"`
	BrideName string `json:"bride_name"`
	Date      string `json:"date"`
	Venue     string `json:"venue"`
	Tone      string `json:"tone"`
	Language  string `json:"language"`
}

type InvitationResponse struct {
	Wording string `json:"wording"`
	Model   string `json:"model"`
	Cached  bool   `json:"cached"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	StatusLunas   = "Lunas"
	StatusDP      = "DP"
	StatusPending = "Pending"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

const (
	StockSafe     = "safe"
	StockLow      = "low"
	StockCritical = "critical"
)

const (
	PeriodDaily   = "daily"
	PeriodRange   = "range"
	PeriodMonthly = "monthly"
)

const (
	ToneFormal   = "formal"
	ToneCasual   = "casual"
	ToneIslamic  = "islami"
	ToneJavanese = "javanese"
)

const (
	LanguageIndonesian = "id"
	LanguageEnglish    = "en"
	LanguageJavanese   = "jw"
)
