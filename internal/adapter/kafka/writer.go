// Package kafka publishes final table rows to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/campus-climate-etl/internal/config"
	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per university to a Kafka topic.
// It implements pipeline.Exporter.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// RowMessage is the JSON value of each published message.
type RowMessage struct {
	ID         string             `json:"id"`
	University string             `json:"university"`
	AvgTemps   map[string]float64 `json:"avg_temps"`
	TotalSnow  float64            `json:"total_sy_snow"`
	TotalRain  float64            `json:"total_sy_rain"`
	ExportedAt time.Time          `json:"exported_at"`
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger, now: time.Now}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Export serializes every row and publishes them in a single WriteMessages
// call. Rows are keyed by university ID so reruns land on the same partition.
func (w *Writer) Export(ctx context.Context, table domain.Table) error {
	if len(table.Rows) == 0 {
		return nil
	}
	at := w.now().UTC()
	msgs := make([]kafkago.Message, len(table.Rows))
	for i := range table.Rows {
		msg, err := serializeToMessage(table.Trimesters, table.Rows[i], at)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d rows: %w", len(msgs), err)
	}
	w.logger.Debug("rows published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a table row into a Kafka message.
func serializeToMessage(labels []string, row domain.FinalRow, at time.Time) (kafkago.Message, error) {
	temps := make(map[string]float64, len(labels))
	for i, label := range labels {
		if i < len(row.AvgTemps) {
			temps[label] = row.AvgTemps[i]
		}
	}
	data, err := json.Marshal(RowMessage{
		ID:         row.UniversityID,
		University: row.University,
		AvgTemps:   temps,
		TotalSnow:  row.TotalSnow,
		TotalRain:  row.TotalRain,
		ExportedAt: at,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row %s: %w", row.UniversityID, err)
	}
	return kafkago.Message{
		Key:   []byte(row.UniversityID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "university", Value: []byte(row.University)},
			{Key: "exported_at", Value: []byte(at.Format(time.RFC3339))},
		},
	}, nil
}
