package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address represents a billing or shipping address.
type Address struct {
	Name       string `json:"name"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"` // ISO 3166-1 alpha-2, e.g. "US"
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ShipmentType constants.
const (
	ShipmentTypePhysical   = "PHYSICAL"
	ShipmentTypeElectronic = "ELECTRONIC"
)

// ShipmentStatus constants. Physical shipments move
// INVENTORY_ASSIGNED -> RELEASED -> CANCELLED, or ONHOLD -> {RELEASED, CANCELLED}.
const (
	ShipmentStatusInventoryAssigned = "INVENTORY_ASSIGNED"
	ShipmentStatusOnHold            = "ONHOLD"
	ShipmentStatusReleased          = "RELEASED"
	ShipmentStatusCancelled         = "CANCELLED"
)

// OrderSku is a single line item on a shipment.
type OrderSku struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShipmentNumber string    `gorm:"type:varchar(64);not null;index" json:"shipment_number"`
	SkuGuid        string    `gorm:"type:varchar(128);not null" json:"sku_guid"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceMinor int64     `gorm:"not null" json:"unit_price_minor"`
}

// OrderShipment belongs to exactly one order.
type OrderShipment struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShipmentNumber string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"shipment_number"`
	OrderNumber    string     `gorm:"type:varchar(64);not null;index" json:"order_number"`
	Type           string     `gorm:"type:varchar(16);not null" json:"type"`   // PHYSICAL | ELECTRONIC
	Status         string     `gorm:"type:varchar(32);not null" json:"status"` // see ShipmentStatus constants
	TotalMinor     *int64     `json:"total_minor"`                             // nil until totals are priced
	Skus           []OrderSku `gorm:"foreignKey:ShipmentNumber;references:ShipmentNumber" json:"skus"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Total returns the shipment total, or nil when the shipment is unpriced.
func (s *OrderShipment) Total(currency string) *Money {
	if s.TotalMinor == nil {
		return nil
	}
	m := NewMoney(*s.TotalMinor, currency)
	return &m
}

// IsElectronic reports whether this shipment settles immediately at
// order initialization time.
func (s *OrderShipment) IsElectronic() bool {
	return s.Type == ShipmentTypeElectronic
}

// IsCancelled reports whether the shipment has been cancelled.
func (s *OrderShipment) IsCancelled() bool {
	return s.Status == ShipmentStatusCancelled
}

// IsReleased reports whether the shipment has been released for capture.
func (s *OrderShipment) IsReleased() bool {
	return s.Status == ShipmentStatusReleased
}

// Order is the aggregate root. Its payment collection is an append-only
// audit trail: entries are appended, never edited or removed.
type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber    string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_number"`
	StoreCode      string          `gorm:"type:varchar(64);not null;index" json:"store_code"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Currency       string          `gorm:"type:varchar(10);not null" json:"currency"`
	TotalMinor     int64           `gorm:"not null" json:"total_minor"`
	BillingAddress Address         `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	Shipments      []OrderShipment `gorm:"foreignKey:OrderNumber;references:OrderNumber" json:"shipments"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	// payments is intentionally unexported: only AppendPayment and
	// PaymentSnapshot touch it, so history cannot be rewritten.
	payments []*OrderPayment `gorm:"-"`
}

// Total returns the order total in the order's currency.
func (o *Order) Total() Money {
	return NewMoney(o.TotalMinor, o.Currency)
}

// AppendPayment records a payment on the order's audit trail.
func (o *Order) AppendPayment(p *OrderPayment) {
	if p == nil {
		return
	}
	o.payments = append(o.payments, p)
}

// PaymentSnapshot returns a copy of the payment list in append order.
func (o *Order) PaymentSnapshot() []*OrderPayment {
	out := make([]*OrderPayment, len(o.payments))
	copy(out, o.payments)
	return out
}

// ShipmentByNumber looks up a shipment on the order.
func (o *Order) ShipmentByNumber(number string) *OrderShipment {
	for i := range o.Shipments {
		if o.Shipments[i].ShipmentNumber == number {
			return &o.Shipments[i]
		}
	}
	return nil
}

// HasElectronicShipment reports whether any shipment is electronic.
func (o *Order) HasElectronicShipment() bool {
	for i := range o.Shipments {
		if o.Shipments[i].IsElectronic() {
			return true
		}
	}
	return false
}

// HasReleasedShipment reports whether any shipment has been released.
func (o *Order) HasReleasedShipment() bool {
	for i := range o.Shipments {
		if o.Shipments[i].IsReleased() {
			return true
		}
	}
	return false
}
