package bom

import (
	"github.com/shopspring/decimal"
)

// Mode selects how a BOM line converts produced units into material quantity.
type Mode string

const (
	// ModeLinear consumes QuantityPerUnit of material per unit produced.
	ModeLinear Mode = "linear"
	// ModeArea derives consumption from piece dimensions packed against a
	// roll width. See UnitsPerProduct for the exact packing policy.
	ModeArea Mode = "area"
)

// Orientation controls whether a piece is rotated 90 degrees before packing.
type Orientation string

const (
	OrientationNormal  Orientation = "normal"
	OrientationRotated Orientation = "rotated"
)

// FabricationParams describes how one unit of a product variant consumes a
// raw material. Dimensions and roll width share one length unit (meters).
type FabricationParams struct {
	Mode            Mode
	QuantityPerUnit decimal.Decimal
	PieceWidth      decimal.Decimal
	PieceLength     decimal.Decimal
	Orientation     Orientation
	RollWidth       decimal.Decimal
}

// Item is one BOM line: variant -> raw material with fabrication params.
type Item struct {
	ID         int64
	VariantID  int64
	MaterialID int64
	Params     FabricationParams
}
