package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"disburse/internal/models"
)

var emailDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_.@-]`)

// merchantRow holds the fields a merchant row cannot do without.
type merchantRow struct {
	Reference string `validate:"required,max=255"`
	Email     string `validate:"required,email"`
}

func sanitizeEmail(raw string) string {
	return strings.ToLower(emailDisallowed.ReplaceAllString(raw, ""))
}

// ImportMerchants inserts the merchants in r. Rows whose reference or email
// already exists, or that lack a usable reference or email, are counted as
// skipped.
func (i *Importer) ImportMerchants(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	t, err := newTable(r, "reference", "email", "live_on", "disbursement_frequency", "minimum_monthly_fee")
	if err != nil {
		return res, err
	}

	batch := make([]models.Merchant, 0, i.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := i.merchants.CreateBatch(ctx, batch)
		if err != nil {
			return err
		}
		res.Imported += int(inserted)
		res.Skipped += len(batch) - int(inserted)
		batch = batch[:0]
		return nil
	}

	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		res.Read++

		liveOn, err := parseTime(row("live_on"))
		if err != nil {
			return res, fmt.Errorf("line %d: %w", t.line, err)
		}
		minFee, err := toCents(row("minimum_monthly_fee"))
		if err != nil {
			return res, fmt.Errorf("line %d: %w", t.line, err)
		}

		m := merchantRow{Reference: row("reference"), Email: sanitizeEmail(row("email"))}
		if err := i.validate.Struct(m); err != nil {
			res.Skipped++
			i.log.Warn().Int("line", t.line).Err(err).Msg("invalid merchant row skipped")
			continue
		}

		batch = append(batch, models.Merchant{
			Reference:              m.Reference,
			Email:                  m.Email,
			LiveOn:                 liveOn,
			DisbursementFrequency:  strings.ToUpper(row("disbursement_frequency")),
			MinimumMonthlyFeeCents: minFee,
			Currency:               models.DefaultCurrency,
		})
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	i.log.Info().
		Int("read", res.Read).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("merchants imported")
	return res, nil
}
