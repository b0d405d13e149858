package main

import (
	"context"
	"log/slog"

	"namecheck/internal/audit"
	"namecheck/internal/platform/config"
)

// openAudit publishes to Kafka when brokers are configured and to the log
// otherwise. The returned func drains the buffer before closing the sink.
func openAudit(ctx context.Context, cfg config.AuditConfig, log *slog.Logger) (*audit.Publisher, func(), error) {
	opts := []audit.PublisherOption{
		audit.WithAsyncBuffer(cfg.BufferSize),
		audit.WithPublisherLogger(log),
	}
	if len(cfg.Brokers) == 0 {
		pub := audit.NewPublisher(audit.NewLogSink(log), opts...)
		return pub, pub.Close, nil
	}

	client, err := audit.NewKafkaClient(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	if err := audit.EnsureTopic(ctx, client, cfg.Topic, 3, 1); err != nil {
		log.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Topic, "error", err)
	}
	sink, err := audit.NewKafkaSink(client, cfg.Topic)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	pub := audit.NewPublisher(sink, opts...)
	return pub, func() {
		pub.Close()
		client.Close()
	}, nil
}
