// File: backend/services/integrity-service/internal/events/kafka/producer.go
package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/config"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// CloudEvent defines the structure for CloudEvents v1.0.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         *string     `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType *string     `json:"datacontenttype,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

const (
	cloudEventSpecVersion     = "1.0"
	cloudEventDataContentType = "application/json"
	cloudEventSource          = "/integrity-service"
)

// EscalationCreatedData is the payload of an escalation.created event.
type EscalationCreatedData struct {
	EscalationID uuid.UUID       `json:"escalation_id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	UserID       uuid.UUID       `json:"user_id"`
	PreviousRole models.RoleID   `json:"previous_role"`
	NewRole      models.RoleID   `json:"new_role"`
	Severity     models.Severity `json:"severity"`
	Signals      []string        `json:"signals"`
}

// IncidentEventData is the payload of incident.opened / incident.escalated.
type IncidentEventData struct {
	IncidentID uuid.UUID           `json:"incident_id"`
	TenantID   uuid.UUID           `json:"tenant_id"`
	Type       models.IncidentType `json:"type"`
	Severity   models.Severity     `json:"severity"`
	Title      string              `json:"title"`
}

// Producer publishes CloudEvents to Kafka. It is the notification sink for
// CRITICAL escalations and incidents; delivery is at-least-once and happens
// after the creating transaction committed.
type Producer struct {
	producer        sarama.SyncProducer
	logger          *zap.Logger
	escalationTopic string
	incidentTopic   string
}

// NewProducer creates a new Kafka producer configured for idempotent,
// acks-all delivery.
func NewProducer(cfg config.KafkaConfig, logger *zap.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{
		producer:        producer,
		logger:          logger.Named("kafka_producer"),
		escalationTopic: cfg.Producer.EscalationTopic,
		incidentTopic:   cfg.Producer.IncidentTopic,
	}, nil
}

func (p *Producer) publish(topic, eventType, subject string, data interface{}) error {
	contentType := cloudEventDataContentType
	event := CloudEvent{
		SpecVersion:     cloudEventSpecVersion,
		Type:            eventType,
		Source:          cloudEventSource,
		Subject:         &subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: &contentType,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(subject),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}
	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("type", eventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// PublishEscalationCreated publishes an escalation.created event.
func (p *Producer) PublishEscalationCreated(data EscalationCreatedData) error {
	return p.publish(p.escalationTopic, EventEscalationCreated, data.EscalationID.String(), data)
}

// PublishIncidentOpened publishes an incident.opened event.
func (p *Producer) PublishIncidentOpened(data IncidentEventData) error {
	return p.publish(p.incidentTopic, EventIncidentOpened, data.IncidentID.String(), data)
}

// PublishIncidentEscalated publishes an incident.escalated event.
func (p *Producer) PublishIncidentEscalated(data IncidentEventData) error {
	return p.publish(p.incidentTopic, EventIncidentEscalated, data.IncidentID.String(), data)
}

// Close shuts the underlying sarama producer down.
func (p *Producer) Close() error {
	return p.producer.Close()
}
