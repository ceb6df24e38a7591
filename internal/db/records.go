package db

// ClientRecord is a row of the clients table.
type ClientRecord struct {
	ID       uint    `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name     string  `gorm:"column:name;not null"`
	Document *string `gorm:"column:document"`
	Contact  *string `gorm:"column:contact"`
}

func (ClientRecord) TableName() string { return "clients" }

// ProposalRecord is a row of the proposals table. Timestamps are stored as
// text; see CreatedAtLayout and ExpiresAtLayout.
type ProposalRecord struct {
	ID           uint    `gorm:"column:id;primaryKey;autoIncrement:false"`
	ClientID     uint    `gorm:"column:client_id;not null;index"`
	Title        string  `gorm:"column:title;not null"`
	Created      string  `gorm:"column:created_at;not null;autoCreateTime:false"`
	Status       string  `gorm:"column:status;not null"`
	ExpiresAt    *string `gorm:"column:expires_at"`
	Owner        *string `gorm:"column:owner"`
	PaymentTerms *string `gorm:"column:payment_terms"`

	// DiscountKind is NULL when the proposal has no discount.
	DiscountKind       *string  `gorm:"column:discount_kind"`
	DiscountPercentage *float64 `gorm:"column:discount_percentage"`
	DiscountAmount     *float64 `gorm:"column:discount_amount"`
}

func (ProposalRecord) TableName() string { return "proposals" }

// ItemRecord is a row of the items table. The autoincrement id records
// insertion order, which is the order items are replayed on load.
type ItemRecord struct {
	ID          uint    `gorm:"column:id;primaryKey;autoIncrement"`
	ProposalID  uint    `gorm:"column:proposal_id;not null;index"`
	Description string  `gorm:"column:description;not null"`
	Quantity    int     `gorm:"column:quantity;not null"`
	UnitPrice   float64 `gorm:"column:unit_price;not null"`
}

func (ItemRecord) TableName() string { return "items" }

const (
	// CreatedAtLayout is the text encoding of proposals.created_at.
	CreatedAtLayout = "2006-01-02 15:04:05"
	// ExpiresAtLayout is the text encoding of proposals.expires_at.
	ExpiresAtLayout = "2006-01-02"
)
