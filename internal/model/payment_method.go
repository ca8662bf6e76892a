package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KindCash marks the payment method settled on delivery; every other kind
// goes through the gateway.
const KindCash = "cash"

// PaymentMethod is reference data created by admins (cash, EVC Plus,
// Zaad, Sahal ...).  Orders reference it by id.
type PaymentMethod struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Type        string             `bson:"type" json:"type"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsCash reports whether the method is the cash kind.  Type wins when
// set; older documents only carry a name.
func (m *PaymentMethod) IsCash() bool {
	if t := strings.TrimSpace(m.Type); t != "" {
		return strings.EqualFold(t, KindCash)
	}
	return strings.EqualFold(strings.TrimSpace(m.Name), KindCash)
}

type PaymentMethodPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

func (p PaymentMethodPatch) Set() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	return set
}
