package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses written on a successful placement.
const (
	OrderStatusPlaced    = "placed" // cash, settled on delivery
	OrderStatusPaid      = "paid"   // confirmed by the payment gateway
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is a status an admin may set.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPlaced, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderLine is one embedded line item.
type OrderLine struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Order is stored in the `orders` collection.  Total is the caller
// supplied amount; it is never recomputed from the lines.
type Order struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User       primitive.ObjectID  `bson:"user" json:"user"`
	Payment    primitive.ObjectID  `bson:"payment" json:"payment"`
	Category   *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	Products   []OrderLine         `bson:"products" json:"products"`
	Total      float64             `bson:"total" json:"total"`
	Note       string              `bson:"note" json:"note"`
	Phone      string              `bson:"phone" json:"phone"`
	Status     string              `bson:"status" json:"status"`
	PaymentRef string              `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

// OrderLineDetail is a line with its product resolved.  Product is nil
// when the referenced product no longer exists.
type OrderLineDetail struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// OrderDetail is the populated read model: references resolved to their
// documents.  Dangling references resolve to nil.
type OrderDetail struct {
	ID         primitive.ObjectID `json:"_id"`
	User       *User              `json:"user"`
	Payment    *PaymentMethod     `json:"payment"`
	Products   []OrderLineDetail  `json:"products"`
	Total      float64            `json:"total"`
	Note       string             `json:"note"`
	Phone      string             `json:"phone"`
	Status     string             `json:"status"`
	PaymentRef string             `json:"paymentRef,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// OrderPatch is the admin-side partial update.
type OrderPatch struct {
	Status *string `json:"status"`
	Note   *string `json:"note"`
	Phone  *string `json:"phone"`
}

func (p OrderPatch) Set() bson.M {
	set := bson.M{}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Note != nil {
		set["note"] = *p.Note
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	return set
}
