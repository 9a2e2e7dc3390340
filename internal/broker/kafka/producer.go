package kafka

import (
	"context"
	"errors"

	"image-resizer/internal/config"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// ProducerClient publishes resize tasks and their results to separate topics.
type ProducerClient struct {
	tasks   *wbkafka.Producer
	results *wbkafka.Producer
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		tasks:   wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.JobsTopic),
		results: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ResultsTopic),
	}
}

func (p *ProducerClient) SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.tasks.SendWithRetry(ctx, strategy, key, value)
}

func (p *ProducerClient) SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.results.SendWithRetry(ctx, strategy, key, value)
}

func (p *ProducerClient) Close() error {
	return errors.Join(p.tasks.Close(), p.results.Close())
}
