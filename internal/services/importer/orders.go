package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"disburse/internal/models"
	"disburse/internal/repositories"
)

// ImportOrders inserts the orders in r in a single transaction, so a
// malformed row leaves the store untouched. Orders of unknown merchants are
// skipped.
func (i *Importer) ImportOrders(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	ids, err := i.merchants.IDsByReference(ctx)
	if err != nil {
		return res, err
	}

	t, err := newTable(r, "merchant_reference", "amount", "created_at")
	if err != nil {
		return res, err
	}

	err = i.orders.ExecuteInTransaction(ctx, func(tx repositories.OrderRepository) error {
		batch := make([]models.Order, 0, i.batchSize)
		flush := func() error {
			if err := tx.CreateBatch(ctx, batch, i.batchSize); err != nil {
				return err
			}
			res.Imported += len(batch)
			batch = batch[:0]
			return nil
		}

		for {
			row, err := t.next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			res.Read++

			ref := row("merchant_reference")
			merchantID, ok := ids[ref]
			if !ok {
				res.Skipped++
				i.log.Debug().Int("line", t.line).Str("merchant_reference", ref).Msg("order for unknown merchant skipped")
				continue
			}

			amount, err := toCents(row("amount"))
			if err != nil {
				return fmt.Errorf("line %d: %w", t.line, err)
			}
			createdAt, err := parseTime(row("created_at"))
			if err != nil {
				return fmt.Errorf("line %d: %w", t.line, err)
			}

			batch = append(batch, models.Order{MerchantID: merchantID, Amount: amount, CreatedAt: createdAt})
			if len(batch) >= i.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})
	if err != nil {
		return ImportResult{Read: res.Read, Skipped: res.Skipped}, err
	}

	i.log.Info().
		Int("read", res.Read).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("orders imported")
	return res, nil
}
