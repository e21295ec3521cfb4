// internal/adapters/spreadsheet/spreadsheet.go
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProductHeaders is the column layout shared by export and import.
var ProductHeaders = []string{"Product ID", "Name", "Price", "Stock"}

var (
	saleHeaders = []string{"Sale ID", "Timestamp", "Items", "Subtotal", "Tax", "Total"}
	lineHeaders = []string{"Sale ID", "Product ID", "Name", "Unit Price", "Quantity", "Line Total"}
)

// WriteProducts writes the catalog as a single "Products" sheet.
func WriteProducts(w io.Writer, products []domain.Product) error {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeader(sheet, ProductHeaders)

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ProductID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetInt(p.Stock)
	}
	sheet.SetColWidth(2, 2, 32)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteSales writes one "Sales" row per sale and one "Lines" row per sold product.
func WriteSales(w io.Writer, sales []domain.SaleRecord) error {
	file := xlsx.NewFile()

	salesSheet, err := file.AddSheet("Sales")
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}
	linesSheet, err := file.AddSheet("Lines")
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeader(salesSheet, saleHeaders)
	addHeader(linesSheet, lineHeaders)

	for _, s := range sales {
		row := salesSheet.AddRow()
		row.AddCell().SetInt64(s.SaleID)
		row.AddCell().SetString(s.Timestamp.UTC().Format(time.RFC3339))
		row.AddCell().SetInt(s.ItemCount())
		row.AddCell().SetString(s.Subtotal.StringFixed(2))
		row.AddCell().SetString(s.Tax.StringFixed(2))
		row.AddCell().SetString(s.Total.StringFixed(2))

		for _, l := range s.Items {
			line := linesSheet.AddRow()
			line.AddCell().SetInt64(s.SaleID)
			line.AddCell().SetString(l.ProductID)
			line.AddCell().SetString(l.Name)
			line.AddCell().SetString(l.UnitPrice.StringFixed(2))
			line.AddCell().SetInt(l.Quantity)
			line.AddCell().SetString(l.LineTotal.StringFixed(2))
		}
	}
	salesSheet.SetColWidth(2, 2, 24)
	linesSheet.SetColWidth(3, 3, 32)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		cell := row.AddCell()
		cell.Value = h
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
	// xlsx column numbers start at 1.
	for i := range headers {
		sheet.SetColWidth(i+1, i+1, 15)
	}
}

// ReadProducts reads the first sheet of the workbook at path. The first row
// is a header; blank rows are skipped.
func ReadProducts(path string) (*domain.ParsedCatalog, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	return readFirstSheet(file)
}

// ParseProducts is ReadProducts for a workbook already in memory.
func ParseProducts(data []byte) (*domain.ParsedCatalog, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	return readFirstSheet(file)
}

func readFirstSheet(file *xlsx.File) (*domain.ParsedCatalog, error) {
	result := &domain.ParsedCatalog{}
	if len(file.Sheets) == 0 {
		return result, nil
	}

	seen := make(map[string]int)
	rowNum := 0
	err := file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowNum++
		if rowNum == 1 {
			return nil
		}

		cells := rowValues(r, len(ProductHeaders))
		if strings.Join(cells, "") == "" {
			return nil
		}
		result.RowsRead++

		product, err := parseRow(cells)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			return nil
		}
		if first, dup := seen[product.ProductID]; dup {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: product %s already listed on row %d", rowNum, product.ProductID, first))
			return nil
		}
		seen[product.ProductID] = rowNum
		result.Products = append(result.Products, *product)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process Excel rows: %w", err)
	}

	return result, nil
}

func rowValues(r *xlsx.Row, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if c := r.GetCell(i); c != nil {
			out[i] = strings.TrimSpace(c.String())
		}
	}
	return out
}

func parseRow(cells []string) (*domain.Product, error) {
	price, err := locale.ParseAmount(cells[2])
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}

	stock := 0
	if cells[3] != "" {
		f, err := strconv.ParseFloat(cells[3], 64)
		if err != nil || f != float64(int(f)) {
			return nil, fmt.Errorf("stock: %q is not a whole number", cells[3])
		}
		stock = int(f)
	}

	product := &domain.Product{
		ProductID: cells[0],
		Name:      cells[1],
		Price:     price,
		Stock:     stock,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}
