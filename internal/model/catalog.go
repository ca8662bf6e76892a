package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups products.  Name is unique across the collection.
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Photo       string             `bson:"photo,omitempty" json:"photo,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type CategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Photo       *string `json:"photo"`
}

func (p CategoryPatch) Set() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Photo != nil {
		set["photo"] = *p.Photo
	}
	return set
}

// Product is a sellable item.  Category is a weak reference checked at
// creation time only; deleting the category does not touch the product.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"`
	Price       float64            `bson:"price" json:"price"`
	SalePrice   *float64           `bson:"salePrice,omitempty" json:"salePrice,omitempty"`
	SaleStarts  *time.Time         `bson:"saleStarts,omitempty" json:"saleStarts,omitempty"`
	SaleEnds    *time.Time         `bson:"salePriceDate,omitempty" json:"salePriceDate,omitempty"`
	IsTrending  bool               `bson:"isTrending" json:"isTrending"`
	IsFavourite bool               `bson:"isFavourite" json:"isFavourite"`
	Rating      float64            `bson:"rating" json:"rating"`
	Units       int                `bson:"units" json:"units"`
	Category    primitive.ObjectID `bson:"category" json:"category"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// OnSale reports whether the sale price applies at now.  An open-ended
// window (nil bound) counts as unbounded on that side.
func (p *Product) OnSale(now time.Time) bool {
	if p.SalePrice == nil {
		return false
	}
	if p.SaleStarts != nil && now.Before(*p.SaleStarts) {
		return false
	}
	if p.SaleEnds != nil && now.After(*p.SaleEnds) {
		return false
	}
	return true
}

type ProductPatch struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Images      *[]string           `json:"images"`
	Price       *float64            `json:"price"`
	SalePrice   *float64            `json:"salePrice"`
	SaleStarts  *time.Time          `json:"saleStarts"`
	SaleEnds    *time.Time          `json:"salePriceDate"`
	IsTrending  *bool               `json:"isTrending"`
	IsFavourite *bool               `json:"isFavourite"`
	Rating      *float64            `json:"rating"`
	Units       *int                `json:"units"`
	Category    *primitive.ObjectID `json:"category"`
}

func (p ProductPatch) Set() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Images != nil {
		set["images"] = *p.Images
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.SalePrice != nil {
		set["salePrice"] = *p.SalePrice
	}
	if p.SaleStarts != nil {
		set["saleStarts"] = *p.SaleStarts
	}
	if p.SaleEnds != nil {
		set["salePriceDate"] = *p.SaleEnds
	}
	if p.IsTrending != nil {
		set["isTrending"] = *p.IsTrending
	}
	if p.IsFavourite != nil {
		set["isFavourite"] = *p.IsFavourite
	}
	if p.Rating != nil {
		set["rating"] = *p.Rating
	}
	if p.Units != nil {
		set["units"] = *p.Units
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	return set
}
