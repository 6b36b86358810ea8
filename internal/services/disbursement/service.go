package disbursement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"disburse/internal/models"
	"disburse/internal/services/fee"
	"disburse/internal/services/period"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service runs disbursements for all merchants.
type Service struct {
	merchants  MerchantStore
	aggregator *Aggregator
	fees       FeeCalculator
	recorder   *Recorder

	workers   int
	batchSize int
	now       func() time.Time
	log       zerolog.Logger
}

// NewService wires the orchestrator. The fee calculator defaults to one
// reading the disbursement store, references default to random ones.
func NewService(merchants MerchantStore, orders OrderStore, disbursements DisbursementStore, opts Options) *Service {
	if merchants == nil {
		panic("merchant store is required")
	}
	if disbursements == nil {
		panic("disbursement store is required")
	}

	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.ReferenceMaxAttempts < 1 {
		opts.ReferenceMaxAttempts = DefaultReferenceMaxAttempts
	}
	if opts.MerchantBatchSize < 1 {
		opts.MerchantBatchSize = DefaultMerchantBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.References == nil {
		opts.References = NewReferenceGenerator()
	}
	if opts.Fees == nil {
		opts.Fees = fee.NewCalculator(disbursements)
	}

	return &Service{
		merchants:  merchants,
		aggregator: NewAggregator(orders),
		fees:       opts.Fees,
		recorder:   NewRecorder(disbursements, opts.References, opts.ReferenceMaxAttempts, opts.Logger),
		workers:    opts.Workers,
		batchSize:  opts.MerchantBatchSize,
		now:        func() time.Time { return opts.Now().UTC() },
		log:        opts.Logger,
	}
}

// Run processes every merchant once. Merchant failures are collected in the
// report; the returned error is only set when merchants could not be listed
// or ctx was cancelled.
func (s *Service) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
	}
	log := s.log.With().Str("run_id", report.ID).Logger()
	log.Info().Int("workers", s.workers).Msg("disbursement run started")

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.workers)

	listErr := s.merchants.FindInBatches(ctx, s.batchSize, func(batch []models.Merchant) error {
		for _, m := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			g.Go(func() error {
				res := s.runMerchant(ctx, &m, log)
				mu.Lock()
				defer mu.Unlock()
				merge(report, res)
				return nil
			})
		}
		return nil
	})
	_ = g.Wait()
	if listErr == nil {
		listErr = ctx.Err()
	}

	report.FinishedAt = s.now()
	event := log.Info()
	if listErr != nil {
		event = log.Error().Err(listErr)
	}
	event.
		Int("merchants", report.MerchantsSeen).
		Int("skipped", report.MerchantsSkipped).
		Int("failed", report.MerchantsFailed).
		Int("disbursements", report.DisbursementsCreated).
		Int("duplicate_periods", report.DuplicatePeriods).
		Int64("fee_cents", report.FeeCents).
		Dur("duration", report.Duration()).
		Msg("disbursement run finished")

	if listErr != nil {
		return report, fmt.Errorf("disbursement run %s: %w", report.ID, listErr)
	}
	return report, nil
}

// RunMerchant settles every closed period of m, oldest first.
func (s *Service) RunMerchant(ctx context.Context, m *models.Merchant) MerchantResult {
	return s.runMerchant(ctx, m, s.log)
}

func (s *Service) runMerchant(ctx context.Context, m *models.Merchant, parent zerolog.Logger) MerchantResult {
	res := MerchantResult{MerchantID: m.ID, Reference: m.Reference}
	log := parent.With().Uint("merchant_id", m.ID).Str("merchant_reference", m.Reference).Logger()

	fail := func(err error) MerchantResult {
		res.Err = err
		log.Error().Err(err).Msg("merchant disbursement chain stopped")
		return res
	}

	freq, err := period.ParseFrequency(m.DisbursementFrequency)
	if err != nil {
		return fail(err)
	}

	oldest, ok, err := s.aggregator.OldestUnprocessedDate(ctx, m.ID)
	if err != nil {
		return fail(err)
	}
	if !ok {
		res.Skipped = true
		return res
	}

	periods, err := period.Periods(freq, oldest, s.now())
	if err != nil {
		return fail(err)
	}

	for p := range periods {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		d, err := s.settle(ctx, m, freq, p)
		switch {
		case errors.Is(err, ErrDuplicatePeriod):
			res.DuplicatePeriods++
			log.Warn().
				Str("disbursed_on", p.DisbursedOn().Format(time.DateOnly)).
				Msg("disbursement already recorded for period, skipping")
		case err != nil:
			return fail(fmt.Errorf("period %s: %w", p, err))
		case d != nil:
			res.Disbursements = append(res.Disbursements, d.Disbursement)
			res.OrdersLinked += d.orders
		}
	}

	if len(res.Disbursements) > 0 {
		log.Info().Int("disbursements", len(res.Disbursements)).Int("orders", res.OrdersLinked).Msg("merchant disbursed")
	}
	return res
}

type settled struct {
	*models.Disbursement
	orders int
}

// settle aggregates one period and records a disbursement when there is
// either order volume or a monthly fee to collect.
func (s *Service) settle(ctx context.Context, m *models.Merchant, freq period.Frequency, p period.Period) (*settled, error) {
	pending, err := s.aggregator.Unprocessed(ctx, m.ID, p)
	if err != nil {
		return nil, err
	}

	monthly, err := s.fees.MonthlyFeeDue(ctx, m, freq, p.Start)
	if err != nil {
		return nil, err
	}

	if pending.GrossCents <= 0 && monthly <= 0 {
		return nil, nil
	}

	d, err := s.recorder.Record(ctx, Entry{
		MerchantID:      m.ID,
		OrderIDs:        pending.OrderIDs,
		GrossCents:      pending.GrossCents,
		FeeCents:        fee.TransactionFee(pending.GrossCents),
		MonthlyFeeCents: monthly,
		DisbursedOn:     p.DisbursedOn(),
	})
	if err != nil {
		return nil, err
	}
	return &settled{Disbursement: d, orders: len(pending.OrderIDs)}, nil
}

func merge(report *models.RunReport, res MerchantResult) {
	report.MerchantsSeen++
	if res.Skipped {
		report.MerchantsSkipped++
	}
	report.DuplicatePeriods += res.DuplicatePeriods
	report.OrdersLinked += res.OrdersLinked
	for _, d := range res.Disbursements {
		report.DisbursementsCreated++
		report.GrossCents += d.GrossCents()
		report.FeeCents += d.FeeCents
		report.MonthlyFeeCents += d.MonthlyFeeCents
	}
	if res.Err != nil {
		report.MerchantsFailed++
		report.Failures = append(report.Failures, models.MerchantFailure{
			MerchantID: res.MerchantID,
			Reference:  res.Reference,
			Error:      res.Err.Error(),
		})
	}
}
