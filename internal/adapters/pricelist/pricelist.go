// internal/adapters/pricelist/pricelist.go
package pricelist

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// Supplier price lists print one product per line:
//
//	SKU   DESCRIPTION          QTY   PRICE
//	B-100 House blend 250g      24   $8.50
//
// Long descriptions may wrap onto the lines above the priced line.
var (
	headerRe = regexp.MustCompile(`(?i)^\s*(SKU|ID|CODE|ITEM)\b.*\bPRICE\b`)
	footerRe = regexp.MustCompile(`(?i)^\s*(SUBTOTAL|TOTAL|END OF LIST|PRICES VALID)`)
	priceRe  = regexp.MustCompile(`\$?\s*\d{1,3}(?:,\d{3})*\.\d{2}\s*(?:[A-Z]{3})?\s*$`)
	itemRe   = regexp.MustCompile(`^(\S+)\s+(.+?)\s+(\d+)$`)
	spaceRe  = regexp.MustCompile(`\s+`)
	fillerRe = regexp.MustCompile(`\.{3,}|-{3,}`)
)

// Reader extracts products from a supplier price list PDF.
type Reader struct {
	logger *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger.With(slog.String("adapter", "pricelist"))}
}

// ReadFile extracts the text of every page and parses it with ParseLines.
func (r *Reader) ReadFile(path string) (*domain.ParsedCatalog, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var lines []string
	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		page := doc.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			r.logger.Warn("failed to extract text from page",
				slog.Int("page", pageNum),
				slog.String("error", err.Error()))
			continue
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}

	result := ParseLines(lines)
	r.logger.Info("parsed price list",
		slog.String("file", path),
		slog.Int("products", len(result.Products)),
		slog.Int("errors", len(result.Errors)))

	return result, nil
}

// ParseLines reads product rows between the column header and the footer.
// Without a header line the whole text is scanned.
func ParseLines(lines []string) *domain.ParsedCatalog {
	result := &domain.ParsedCatalog{}

	start := 0
	for i, line := range lines {
		if headerRe.MatchString(line) {
			start = i + 1
			break
		}
	}

	seen := make(map[string]bool)
	var buffer []string
	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(fillerRe.ReplaceAllString(lines[i], " "))
		if line == "" {
			continue
		}
		if footerRe.MatchString(line) {
			break
		}
		if !priceRe.MatchString(line) {
			buffer = append(buffer, line)
			continue
		}

		result.RowsRead++
		full := strings.Join(append(buffer, line), " ")
		buffer = buffer[:0]

		product, err := parseItem(full)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", i+1, err))
			continue
		}
		if seen[product.ProductID] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: product %s listed twice", i+1, product.ProductID))
			continue
		}
		seen[product.ProductID] = true
		result.Products = append(result.Products, *product)
	}

	return result
}

func parseItem(line string) (*domain.Product, error) {
	priceText := priceRe.FindString(line)
	rest := strings.TrimSpace(priceRe.ReplaceAllString(line, ""))
	rest = spaceRe.ReplaceAllString(rest, " ")

	price, err := locale.ParseAmount(priceText)
	if err != nil {
		return nil, err
	}

	m := itemRe.FindStringSubmatch(rest)
	if m == nil {
		return nil, fmt.Errorf("expected \"SKU DESCRIPTION QTY PRICE\", got %q", line)
	}
	stock, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", m[3])
	}

	product := &domain.Product{
		ProductID: m[1],
		Name:      m[2],
		Price:     price,
		Stock:     stock,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}
