package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

const LendingTopic = "library.lending"

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS"`
	Topic string   `yaml:"topic" envconfig:"KAFKA_TOPIC" default:"library.lending"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	return sarama.NewSyncProducer(cfg.Addrs, NewProducerConfig())
}

// NewProducerConfig is shared with tests running against sarama mocks.
func NewProducerConfig() *sarama.Config {
	defaultCfg := sarama.NewConfig()
	defaultCfg.ClientID = "library"

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3
	defaultCfg.Producer.Retry.Backoff = 250 * time.Millisecond
	defaultCfg.Producer.Partitioner = sarama.NewHashPartitioner

	return defaultCfg
}
