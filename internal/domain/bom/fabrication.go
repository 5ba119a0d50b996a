package bom

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// UnitsPerProduct converts fabrication params into raw-material quantity
// consumed per unit produced. Pure function.
//
// Linear mode: QuantityPerUnit as-is.
//
// Area mode packing policy: pieces are cut from a roll of RollWidth. The
// effective piece width/length swap when Orientation is rotated. The number
// of pieces cut side by side across the roll is floor(RollWidth / width),
// floored at 1 (an oversized piece still consumes the full roll width). The
// roll length consumed per piece is length / piecesAcross, rounded UP to
// 3 decimals. That is the single explicit rounding step, applied per piece
// before multiplying by QuantityPerUnit so material is never silently
// under-ordered.
func UnitsPerProduct(p FabricationParams) (decimal.Decimal, error) {
	switch p.Mode {
	case ModeLinear:
		if p.QuantityPerUnit.IsNegative() {
			return decimal.Zero, fmt.Errorf("quantity per unit must be non-negative, got %s", p.QuantityPerUnit)
		}
		return p.QuantityPerUnit, nil

	case ModeArea:
		width, length := p.PieceWidth, p.PieceLength
		if p.Orientation == OrientationRotated {
			width, length = length, width
		}
		if !width.IsPositive() || !length.IsPositive() {
			return decimal.Zero, fmt.Errorf("piece dimensions must be positive, got %s x %s", width, length)
		}
		if !p.RollWidth.IsPositive() {
			return decimal.Zero, fmt.Errorf("roll width must be positive, got %s", p.RollWidth)
		}
		if p.QuantityPerUnit.IsNegative() {
			return decimal.Zero, fmt.Errorf("quantity per unit must be non-negative, got %s", p.QuantityPerUnit)
		}

		piecesAcross := p.RollWidth.Div(width).Floor()
		if piecesAcross.LessThan(one) {
			piecesAcross = one
		}
		metersPerPiece := length.Div(piecesAcross).RoundUp(3)
		return metersPerPiece.Mul(p.QuantityPerUnit), nil

	default:
		return decimal.Zero, fmt.Errorf("unknown fabrication mode %q", p.Mode)
	}
}
