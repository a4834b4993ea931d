// File: backend/services/integrity-service/internal/domain/service/incident_intake.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/config"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// intakeItem is one flag or escalation event waiting for aggregation.
type intakeItem struct {
	tenantID uuid.UUID
	kind     models.IncidentSourceKind
	sourceID uuid.UUID
	severity models.Severity
	label    string
	incType  models.IncidentType
}

func (it intakeItem) groupKey() string {
	return string(it.kind) + ":" + it.label
}

// IncidentIntake batches flags and escalation events and folds them into
// incidents grouped by tenant, source kind and type. CRITICAL items bypass
// the batch and open or link their incident synchronously; everything else
// is flushed on an interval. Submission never blocks the producing
// operation: when the buffer is full the item is handled inline instead.
type IncidentIntake struct {
	incidents IncidentService
	cfg       config.IntegrityConfig
	logger    *zap.Logger

	ch   chan intakeItem
	wg   sync.WaitGroup
	stop context.CancelFunc
}

// NewIncidentIntake creates the intake loop. Call Start before submitting.
func NewIncidentIntake(incidents IncidentService, cfg config.IntegrityConfig, logger *zap.Logger) *IncidentIntake {
	size := cfg.IntakeBufferSize
	if size <= 0 {
		size = 256
	}
	return &IncidentIntake{
		incidents: incidents,
		cfg:       cfg,
		logger:    logger.Named("incident_intake"),
		ch:        make(chan intakeItem, size),
	}
}

// Start launches the background flush loop.
func (i *IncidentIntake) Start(ctx context.Context) {
	ctx, i.stop = context.WithCancel(ctx)
	i.wg.Add(1)
	go i.run(ctx)
}

// Stop drains the buffer and waits for the loop to exit.
func (i *IncidentIntake) Stop() {
	if i.stop != nil {
		i.stop()
	}
	i.wg.Wait()
}

// SubmitFlag implements IncidentSink.
func (i *IncidentIntake) SubmitFlag(flag *models.IntegrityFlag) {
	i.submit(intakeItem{
		tenantID: flag.TenantID,
		kind:     models.SourceIntegrityFlag,
		sourceID: flag.ID,
		severity: flag.Severity,
		label:    string(flag.Type),
		incType:  models.IncidentTypeIntegrity,
	})
}

// SubmitEscalation implements IncidentSink.
func (i *IncidentIntake) SubmitEscalation(event *models.EscalationEvent) {
	i.submit(intakeItem{
		tenantID: event.TenantID,
		kind:     models.SourceEscalationEvent,
		sourceID: event.ID,
		severity: event.Severity,
		label:    string(models.IncidentTypeEscalation),
		incType:  models.IncidentTypeEscalation,
	})
}

func (i *IncidentIntake) submit(item intakeItem) {
	if item.severity == models.SeverityCritical {
		// Critical items never wait for the flush tick.
		i.process(context.Background(), []intakeItem{item})
		return
	}
	select {
	case i.ch <- item:
	default:
		i.logger.Warn("intake buffer full, processing inline",
			zap.String("tenant_id", item.tenantID.String()),
			zap.String("kind", string(item.kind)))
		i.process(context.Background(), []intakeItem{item})
	}
}

func (i *IncidentIntake) run(ctx context.Context) {
	defer i.wg.Done()

	interval := i.cfg.IntakeFlushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []intakeItem
	for {
		select {
		case item := <-i.ch:
			pending = append(pending, item)
		case <-ticker.C:
			if len(pending) > 0 {
				i.process(ctx, pending)
				pending = nil
			}
		case <-ctx.Done():
			// Final drain; shutdown must not drop buffered evidence.
			for {
				select {
				case item := <-i.ch:
					pending = append(pending, item)
				default:
					if len(pending) > 0 {
						i.process(context.Background(), pending)
					}
					return
				}
			}
		}
	}
}

// process groups a batch by tenant and group key and folds each group into
// its incident.
func (i *IncidentIntake) process(ctx context.Context, batch []intakeItem) {
	type group struct {
		tenantID uuid.UUID
		key      string
		severity models.Severity
		incType  models.IncidentType
		label    string
		sources  []models.IncidentSource
	}
	groups := make(map[string]*group)
	var order []string
	for _, item := range batch {
		mapKey := item.tenantID.String() + "|" + item.groupKey()
		g, ok := groups[mapKey]
		if !ok {
			g = &group{
				tenantID: item.tenantID,
				key:      item.groupKey(),
				severity: item.severity,
				incType:  item.incType,
				label:    item.label,
			}
			groups[mapKey] = g
			order = append(order, mapKey)
		}
		g.severity = models.MaxSeverity(g.severity, item.severity)
		g.sources = append(g.sources, models.IncidentSource{
			Kind:     item.kind,
			SourceID: item.sourceID,
		})
	}

	for _, mapKey := range order {
		g := groups[mapKey]
		tctx := models.SystemContext(g.tenantID)
		req := models.OpenIncidentRequest{
			Type:     g.incType,
			Severity: g.severity,
			Title:    incidentTitle(g.incType, g.label),
			GroupKey: g.key,
			Sources:  g.sources,
		}
		if _, _, err := i.incidents.OpenOrLink(ctx, tctx, req); err != nil {
			i.logger.Error("failed to aggregate into incident",
				zap.Error(err),
				zap.String("tenant_id", g.tenantID.String()),
				zap.String("group_key", g.key))
		}
	}
}

func incidentTitle(t models.IncidentType, label string) string {
	if t == models.IncidentTypeEscalation {
		return "Privilege escalation detected"
	}
	return "Integrity flags: " + label
}
