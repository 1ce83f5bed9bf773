package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkarpis/channelsync/internal/connector"
	"github.com/mkarpis/channelsync/internal/domain"
	"github.com/mkarpis/channelsync/internal/logger"
	"github.com/mkarpis/channelsync/internal/repository"
)

// ResumeMode names how Run behaves when invoked on a job that is already
// running (a resumed crash or a re-triggered run).
type ResumeMode string

const (
	// ResumeModeRescan redoes the full channel/product double loop from the
	// start, relying on natural-key reconciliation to make re-processing
	// idempotent. Counters are re-initialized for the new pass.
	ResumeModeRescan ResumeMode = "rescan"

	// ResumeModeSkipDone skips the first Done items recorded per channel in
	// the persisted progress map and keeps accumulated counters.
	ResumeModeSkipDone ResumeMode = "skip-done"
)

// JobStore is the publisher's view of the persistent job record.
type JobStore interface {
	GetByID(ctx context.Context, id string) (*domain.PublishJob, error)
	StatusOf(ctx context.Context, id string) (domain.JobStatus, error)
	MarkRunning(ctx context.Context, id string) error
	InitProgress(ctx context.Context, id string, totalItems int, progress domain.ProgressMap) error
	Checkpoint(ctx context.Context, id string, snap *domain.ProgressSnapshot) error
	Finish(ctx context.Context, id string, status domain.JobStatus, progress domain.ProgressMap, errorMessage string) error
}

// ProductSource provides read-only access to catalog products with their
// channel mappings, in the order the IDs were supplied.
type ProductSource interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

// ChannelSource provides read-only access to sales channel configurations.
type ChannelSource interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.SalesChannel, error)
}

// MappingStore persists per-(product, channel) publish outcomes.
type MappingStore interface {
	AdoptExternalID(ctx context.Context, productID, channelID, externalID string) error
	MarkSynced(ctx context.Context, productID, channelID, externalID string) error
	MarkFailed(ctx context.Context, productID, channelID, externalID, syncError string) error
}

// ConnectorRegistry resolves channel types to connectors.
type ConnectorRegistry interface {
	Has(t domain.ChannelType) bool
	New(ch *domain.SalesChannel) (connector.Connector, error)
}

// PublisherConfig holds publisher tuning knobs.
type PublisherConfig struct {
	// CancelCheckEvery is the in-channel cancellation poll cadence in items.
	// Cancellation latency within a channel is bounded by this value.
	CancelCheckEvery int
	ResumeMode       ResumeMode
}

// Publisher is the bulk publish job processor. It runs one job at a time as
// a single thread of control: channels and products strictly sequentially,
// checkpointing the job record after every unit of work. Connector errors
// are always recovered at the item level; the only whole-job failures are a
// missing job record and an empty eligible channel set.
type Publisher struct {
	jobs     JobStore
	products ProductSource
	channels ChannelSource
	mappings MappingStore
	registry ConnectorRegistry
	payloads *PayloadBuilder
	logger   *logger.Logger
	cfg      PublisherConfig
}

// NewPublisher creates a new Publisher.
func NewPublisher(
	jobs JobStore,
	products ProductSource,
	channels ChannelSource,
	mappings MappingStore,
	registry ConnectorRegistry,
	payloads *PayloadBuilder,
	log *logger.Logger,
	cfg PublisherConfig,
) *Publisher {
	if cfg.CancelCheckEvery <= 0 {
		cfg.CancelCheckEvery = 10
	}
	if cfg.ResumeMode == "" {
		cfg.ResumeMode = ResumeModeRescan
	}
	return &Publisher{
		jobs:     jobs,
		products: products,
		channels: channels,
		mappings: mappings,
		registry: registry,
		payloads: payloads,
		logger:   log,
		cfg:      cfg,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (p *Publisher) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return p.logger
}

// Run executes one publish job to completion. It is safe to invoke on a
// pending or already-running job; any terminal status makes it a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: ID of the job to run.
// Returns:
//   - error: non-nil if the job is missing or a store operation fails.
func (p *Publisher) Run(ctx context.Context, jobID string) error {
	ctx = logger.SetJobID(ctx, jobID)
	log := p.log(ctx)

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			// Nothing to update on a job that does not exist
			log.WithError(err).Error("Publish job not found, aborting")
			return err
		}
		return fmt.Errorf("failed to load job: %w", err)
	}

	if job.Status.IsTerminal() {
		log.WithField("status", job.Status).Warn("Publish job already finished, skipping")
		return nil
	}

	resuming := job.Status == domain.JobStatusRunning
	if err := p.jobs.MarkRunning(ctx, jobID); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	channels, err := p.channels.GetByIDs(ctx, job.ChannelIDs)
	if err != nil {
		return fmt.Errorf("failed to load channels: %w", err)
	}
	eligible := make([]domain.SalesChannel, 0, len(channels))
	for _, ch := range channels {
		if p.registry.Has(ch.Type) {
			eligible = append(eligible, ch)
			continue
		}
		log.WithFields(logger.Fields{
			logger.FieldChannelID: ch.ID,
			"channel_type":        ch.Type,
		}).Warn("No connector for channel type, excluding channel")
	}
	if len(eligible) == 0 {
		msg := "no eligible channels: none of the requested channels has a registered connector"
		log.Error(msg)
		return p.jobs.Finish(ctx, jobID, domain.JobStatusFailed, nil, msg)
	}

	products, err := p.products.GetByIDs(ctx, job.ProductIDs)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	snap, progress := p.initialState(job, eligible, products, resuming)
	totalItems := len(products) * len(eligible)

	if err := p.jobs.InitProgress(ctx, jobID, totalItems, progress); err != nil {
		return fmt.Errorf("failed to initialize progress: %w", err)
	}
	p.checkpoint(ctx, jobID, snap)

	log.WithFields(logger.Fields{
		"products": len(products),
		"channels": len(eligible),
		"total":    totalItems,
	}).Info("Publish job started")

	cancelled := false

channelLoop:
	for _, ch := range eligible {
		// Channel boundary is always a cancellation checkpoint
		if p.isCancelled(ctx, jobID) {
			cancelled = true
			break
		}

		chCtx := logger.SetChannelID(ctx, ch.ID)
		cp := progress[ch.ID]
		skip := 0
		if resuming && p.cfg.ResumeMode == ResumeModeSkipDone {
			skip = cp.Done
		}

		conn, err := p.registry.New(&ch)
		if err != nil {
			// Channel-fatal configuration error: the whole allotment fails
			// in bulk and the loop moves on to the next channel.
			p.log(chCtx).WithError(err).Error("Channel misconfigured, failing all items for channel")
			p.failChannel(chCtx, jobID, &ch, products[skip:], snap, cp, err)
			continue
		}

		for i, product := range products {
			if i < skip {
				continue
			}
			if i > skip && (i-skip)%p.cfg.CancelCheckEvery == 0 {
				if p.isCancelled(chCtx, jobID) {
					cancelled = true
					break channelLoop
				}
			}

			snap.CurrentChannelID = ch.ID
			snap.CurrentItemIndex = i

			created, err := p.publishOne(chCtx, conn, &ch, &product)
			if err != nil {
				snap.FailedCount++
				cp.Failed++
				cp.AddError(product.SKU, err.Error())
				p.log(chCtx).WithFields(logger.Fields{
					logger.FieldSKU: product.SKU,
				}).WithError(err).Warn("Failed to publish product")
			} else if created {
				snap.CreatedCount++
				cp.Created++
			} else {
				snap.UpdatedCount++
				cp.Updated++
			}
			cp.Done++
			snap.ProcessedItems++

			// The per-item checkpoint is what makes recovery possible;
			// it is deliberately synchronous.
			p.checkpoint(chCtx, jobID, snap)
		}
	}

	if cancelled {
		// The cancellation request owns the terminal status; the processor
		// just stops doing work.
		log.WithField("processed", snap.ProcessedItems).Info("Publish job cancelled, stopping")
		return nil
	}
	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("Publish job interrupted, leaving job running")
		return err
	}

	status := domain.TerminalStatusFor(snap.FailedCount, totalItems)
	if err := p.jobs.Finish(ctx, jobID, status, progress, ""); err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}

	log.WithFields(logger.Fields{
		logger.FieldStatus: string(status),
		"processed":        snap.ProcessedItems,
		"created":          snap.CreatedCount,
		"updated":          snap.UpdatedCount,
		"failed":           snap.FailedCount,
	}).Info("Publish job finished")
	return nil
}

// initialState builds the starting snapshot and progress map. A skip-done
// resume keeps the persisted counters and per-channel progress; any other
// start re-initializes both for a full pass.
func (p *Publisher) initialState(job *domain.PublishJob, eligible []domain.SalesChannel, products []domain.Product, resuming bool) (*domain.ProgressSnapshot, domain.ProgressMap) {
	if resuming && p.cfg.ResumeMode == ResumeModeSkipDone {
		progress := job.Progress()
		for _, ch := range eligible {
			if _, ok := progress[ch.ID]; !ok {
				progress[ch.ID] = &domain.ChannelProgress{Name: ch.Name, Total: len(products)}
			}
		}
		return &domain.ProgressSnapshot{
			ProcessedItems:  job.ProcessedItems,
			CreatedCount:    job.CreatedCount,
			UpdatedCount:    job.UpdatedCount,
			FailedCount:     job.FailedCount,
			ChannelProgress: progress,
		}, progress
	}

	progress := domain.ProgressMap{}
	for _, ch := range eligible {
		progress[ch.ID] = &domain.ChannelProgress{Name: ch.Name, Total: len(products)}
	}
	return &domain.ProgressSnapshot{ChannelProgress: progress}, progress
}

// publishOne reconciles and publishes a single product to a single channel.
// Returns whether a new remote product was created.
func (p *Publisher) publishOne(ctx context.Context, conn connector.Connector, ch *domain.SalesChannel, product *domain.Product) (bool, error) {
	externalID := ""
	if m := product.MappingFor(ch.ID); m != nil {
		// A stored external ID is authoritative: no remote lookup.
		externalID = m.ExternalID
	}

	if externalID == "" {
		remoteID, err := conn.Find(ctx, product.SKU)
		switch {
		case err == nil:
			// Adopt the existing remote product immediately, independent of
			// the publish outcome, so re-runs never create duplicates.
			externalID = remoteID
			if adoptErr := p.mappings.AdoptExternalID(ctx, product.ID, ch.ID, remoteID); adoptErr != nil {
				p.log(ctx).WithError(adoptErr).Warn("Failed to persist adopted external ID")
			}
		case errors.Is(err, connector.ErrNotFound):
			// No remote counterpart; fall through to create
		default:
			p.recordFailure(ctx, product, ch, externalID, err)
			return false, err
		}
	}

	payload := p.payloads.Build(product)

	created := false
	if externalID != "" {
		if err := conn.Update(ctx, externalID, payload); err != nil {
			p.recordFailure(ctx, product, ch, externalID, err)
			return false, err
		}
	} else {
		remoteID, err := conn.Create(ctx, payload)
		if err != nil {
			p.recordFailure(ctx, product, ch, externalID, err)
			return false, err
		}
		externalID = remoteID
		created = true
	}

	if err := p.mappings.MarkSynced(ctx, product.ID, ch.ID, externalID); err != nil {
		// The remote write already succeeded; a later run re-finds the
		// product by SKU even if this mapping write is lost.
		p.log(ctx).WithError(err).Error("Failed to persist channel mapping after publish")
	}
	return created, nil
}

// recordFailure best-effort persists the failed sync outcome on the mapping.
// This secondary write is allowed to fail without aborting the item loop.
func (p *Publisher) recordFailure(ctx context.Context, product *domain.Product, ch *domain.SalesChannel, externalID string, cause error) {
	if err := p.mappings.MarkFailed(ctx, product.ID, ch.ID, externalID, cause.Error()); err != nil {
		p.log(ctx).WithError(err).Warn("Failed to persist sync error on mapping")
	}
}

// failChannel marks every remaining item of a misconfigured channel as
// failed in bulk and checkpoints once.
func (p *Publisher) failChannel(ctx context.Context, jobID string, ch *domain.SalesChannel, products []domain.Product, snap *domain.ProgressSnapshot, cp *domain.ChannelProgress, cause error) {
	msg := "channel configuration error: " + cause.Error()
	for _, product := range products {
		snap.FailedCount++
		snap.ProcessedItems++
		cp.Failed++
		cp.Done++
		cp.AddError(product.SKU, msg)
	}
	snap.CurrentChannelID = ch.ID
	p.checkpoint(ctx, jobID, snap)
}

// isCancelled re-reads the job status. A read failure is treated as not
// cancelled; the next poll boundary retries.
func (p *Publisher) isCancelled(ctx context.Context, jobID string) bool {
	status, err := p.jobs.StatusOf(ctx, jobID)
	if err != nil {
		p.log(ctx).WithError(err).Warn("Failed to poll job status")
		return false
	}
	return status == domain.JobStatusCancelled
}

// checkpoint persists the progress snapshot, logging instead of failing the
// run when the write does not land.
func (p *Publisher) checkpoint(ctx context.Context, jobID string, snap *domain.ProgressSnapshot) {
	if err := p.jobs.Checkpoint(ctx, jobID, snap); err != nil {
		p.log(ctx).WithError(err).Error("Failed to checkpoint job progress")
	}
}
