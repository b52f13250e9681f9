package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan is a package definition that can be sold to clients.
type Plan struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Units        int                  `bson:"units" json:"units"`
	DurationDays int                  `bson:"durationDays" json:"durationDays"`
	Price        primitive.Decimal128 `bson:"price" json:"-"`
	IsChildPlan  bool                 `bson:"isChildPlan" json:"isChildPlan"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
}

// PriceValue returns the plan price as an exact decimal.
// An unset or malformed price reads as zero.
func (p *Plan) PriceValue() decimal.Decimal {
	return DecimalFrom128(p.Price)
}

// DecimalFrom128 converts a BSON decimal into a decimal.Decimal.
func DecimalFrom128(d primitive.Decimal128) decimal.Decimal {
	bi, exp, err := d.BigInt()
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(bi, int32(exp))
}

// DecimalTo128 converts a decimal.Decimal into its BSON representation.
func DecimalTo128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}
