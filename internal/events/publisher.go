// Package events publishes sales import notifications to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"sales-service/internal/models"
)

const (
	// StreamName is the JetStream stream holding import notifications
	StreamName = "SALES_IMPORTS"
	// SubjectImportCompleted is published once per finished upload
	SubjectImportCompleted = "sales.import.completed"

	publishTimeout = 10 * time.Second
)

// ImportCompletedEvent summarizes a finished upload
type ImportCompletedEvent struct {
	EventType        string              `json:"eventType"`
	ImportID         string              `json:"importId"`
	FileName         string              `json:"fileName"`
	Status           models.ImportStatus `json:"status"`
	TotalRows        int                 `json:"totalRows"`
	PersistedRows    int                 `json:"persistedRows"`
	InvalidRows      int                 `json:"invalidRows"`
	FailedRows       int                 `json:"failedRows"`
	CommittedBatches int                 `json:"committedBatches"`
	FailedBatches    int                 `json:"failedBatches"`
	FailedLineRanges []string            `json:"failedLineRanges,omitempty"`
	Stats            models.BatchStats   `json:"stats"`
	ProcessingMs     int64               `json:"processingMs"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Publisher sends import events. A nil *Publisher is valid and drops events.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
	wg     sync.WaitGroup
}

// NewPublisher connects to NATS and ensures the import stream exists
func NewPublisher(ctx context.Context, natsURL string, logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}
	log := logger.WithField("component", "sales-events")

	nc, err := nats.Connect(natsURL,
		nats.Name("sales-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("Disconnected from NATS")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"sales.import.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7, // 7 days
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		log.WithError(err).Warnf("Could not create %s stream", StreamName)
	}

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// NewImportCompletedEvent builds the event payload for a report
func NewImportCompletedEvent(report *models.ImportReport) *ImportCompletedEvent {
	return &ImportCompletedEvent{
		EventType:        SubjectImportCompleted,
		ImportID:         report.ImportID.String(),
		FileName:         report.FileName,
		Status:           report.Status,
		TotalRows:        report.TotalRows,
		PersistedRows:    report.PersistedRows,
		InvalidRows:      report.InvalidRows,
		FailedRows:       report.FailedRows,
		CommittedBatches: report.CommittedBatches,
		FailedBatches:    report.FailedBatches,
		FailedLineRanges: report.FailedLineRanges,
		Stats:            report.Stats,
		ProcessingMs:     report.ProcessingMs,
		Timestamp:        time.Now().UTC(),
	}
}

// PublishImportCompleted publishes in the background; failures are logged only
func (p *Publisher) PublishImportCompleted(ctx context.Context, report *models.ImportReport) error {
	if p == nil || report == nil {
		return nil
	}

	data, err := json.Marshal(NewImportCompletedEvent(report))
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		fields := logrus.Fields{
			"importID": report.ImportID,
			"status":   report.Status,
		}
		if _, err := p.js.Publish(pubCtx, SubjectImportCompleted, data); err != nil {
			p.logger.WithFields(fields).WithError(err).Error("Failed to publish import event")
			return
		}
		p.logger.WithFields(fields).Info("Import event published successfully")
	}()

	return nil
}

// Close waits for in-flight publishes and drains the connection
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.wg.Wait()
	if p.nc != nil {
		p.nc.Drain()
	}
}
