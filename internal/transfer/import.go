package transfer

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storekeep/storekeep/internal/domain/product"
)

// ParseCSV parses a delimited text blob into candidate records. The header
// line is discarded. Each remaining line is split on the raw comma: quoting
// is NOT honored here, so quoted fields containing commas will split apart.
// A line is silently dropped when any of id, name, category, price or stock
// is empty after the split, or when price or stock does not parse as a
// number.
//
// It returns the accepted candidates and the number of dropped lines.
func ParseCSV(text string) (candidates []product.Product, dropped int) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 5 {
			dropped++
			continue
		}
		id, name, category := fields[0], fields[1], fields[2]
		priceRaw, stockRaw := fields[3], fields[4]
		if id == "" || name == "" || category == "" || priceRaw == "" || stockRaw == "" {
			dropped++
			continue
		}

		price, err := decimal.NewFromString(priceRaw)
		if err != nil {
			dropped++
			continue
		}
		stock, err := strconv.Atoi(stockRaw)
		if err != nil {
			dropped++
			continue
		}

		c := product.Product{
			Name:     name,
			Category: product.Category(category),
			Price:    price,
			Stock:    stock,
		}
		if len(fields) > 5 {
			c.Description = fields[5]
		}
		if len(fields) > 6 {
			c.URL = fields[6]
		}
		candidates = append(candidates, c)
	}
	return candidates, dropped
}

// Adder submits one candidate record for creation. *catalog.Manager
// satisfies this.
type Adder interface {
	Add(ctx context.Context, candidate product.Product) (*product.Product, error)
}

// ItemFailure records one candidate that failed submission.
type ItemFailure struct {
	Name string
	Err  error
}

// Result summarizes a bulk import run.
type Result struct {
	// Submitted is the number of candidates that reached submission.
	Submitted int
	// Succeeded is the number of successful creations.
	Succeeded int
	// Dropped counts lines rejected during parsing, before submission.
	Dropped int
	// Failures holds the per-candidate submission errors.
	Failures []ItemFailure
}

// Importer submits parsed candidates one at a time. Submissions are strictly
// sequential: a failure on one candidate is recorded and processing
// continues with the next.
type Importer struct {
	adder Adder
	lg    *zap.Logger
}

// NewImporter creates an Importer. lg may be nil.
func NewImporter(adder Adder, lg *zap.Logger) *Importer {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Importer{adder: adder, lg: lg}
}

// Run parses the CSV text and submits every accepted candidate. It stops
// early only when ctx is cancelled.
func (im *Importer) Run(ctx context.Context, text string) (Result, error) {
	candidates, droppedCount := ParseCSV(text)
	res := Result{Dropped: droppedCount}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "import interrupted")
		}

		res.Submitted++
		if _, err := im.adder.Add(ctx, c); err != nil {
			res.Failures = append(res.Failures, ItemFailure{Name: c.Name, Err: err})
			im.lg.Warn("import candidate failed",
				zap.String("name", c.Name),
				zap.Error(err),
			)
			continue
		}
		res.Succeeded++
	}

	im.lg.Info("import finished",
		zap.Int("submitted", res.Submitted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("dropped", res.Dropped),
		zap.Int("failed", len(res.Failures)),
	)
	return res, nil
}
