// Package report renders engine outputs (kardex listings, requirement plans)
// as XLSX workbooks for export.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jbetancur12/matplan/internal/domain/kardex"
	"github.com/jbetancur12/matplan/internal/domain/planning"
)

const dateLayout = "2006-01-02 15:04"

// KardexWorkbook builds an XLSX with one row per ledger entry.
// materialNames maps material id to a display name; unknown ids fall back to
// the numeric id.
func KardexWorkbook(entries []kardex.Entry, materialNames map[int64]string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"Date", "Material", "Warehouse", "Lot", "Movement", "Quantity", "Balance", "Reference", "Note"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, e := range entries {
		row := i + 2
		name := materialNames[e.MaterialID]
		if name == "" {
			name = fmt.Sprintf("#%d", e.MaterialID)
		}
		lot := ""
		if e.LotID != nil {
			lot = fmt.Sprintf("%d", *e.LotID)
		}
		values := []any{
			e.OccurredAt.Format(dateLayout),
			name,
			e.WarehouseID,
			lot,
			string(e.Type),
			e.Quantity.String(),
			e.BalanceAfter.String(),
			fmt.Sprintf("%s/%d", e.ReferenceType, e.ReferenceID),
			e.Note,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// RequirementsWorkbook builds an XLSX requirement plan: one row per material
// plus one indented row per lot suggestion.
func RequirementsWorkbook(orderCode string, reqs []planning.MaterialRequirement) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	if err := f.SetCellValue(sheet, "A1", fmt.Sprintf("Material requirements for order %s", orderCode)); err != nil {
		return nil, err
	}

	headers := []string{"Material", "Unit", "Required", "Available", "Missing", "Best price", "Supplier"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 4
	for _, r := range reqs {
		price, supplier := "", ""
		if r.BestPrice != nil {
			price = r.BestPrice.UnitPrice.String()
			supplier = r.BestPrice.SupplierName
		}
		label := fmt.Sprintf("%s %s", r.MaterialCode, r.MaterialName)
		if r.Err != "" {
			label += " [" + r.Err + "]"
		}
		values := []any{label, r.Unit, r.Required.String(), r.Available.String(), r.Missing.String(), price, supplier}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
		row++

		for _, s := range r.Suggestions {
			use := fmt.Sprintf("  lot %s: use %s of %s", s.SupplierLotCode, s.SuggestedUse, s.Available)
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, use); err != nil {
				return nil, err
			}
			row++
		}
	}
	return f, nil
}
