package transfer

import (
	"fmt"
	"strings"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// LinesPerPage is the number of product lines on one page of the exported
// document.
const LinesPerPage = 40

// pageBreak separates pages in the rendered document.
const pageBreak = "\f"

// ExportDocument renders the collection as a paginated plain-text document:
// a title header on each page followed by one descriptive line per product,
// breaking to a new page every LinesPerPage lines.
func ExportDocument(items []product.Product) string {
	var (
		pages []string
		page  strings.Builder
		lines int
		pageN int
	)

	openPage := func() {
		pageN++
		page.Reset()
		fmt.Fprintf(&page, "Product Catalog - page %d\n\n", pageN)
		lines = 0
	}
	closePage := func() {
		pages = append(pages, page.String())
	}

	openPage()
	for _, p := range items {
		if lines == LinesPerPage {
			closePage()
			openPage()
		}
		fmt.Fprintf(&page, "%s | %s | %s | $%s | stock: %d | %s\n",
			p.ID, p.Name, p.Category, p.Price.String(), p.Stock, p.Description)
		lines++
	}
	closePage()

	return strings.Join(pages, pageBreak)
}
