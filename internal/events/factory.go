package events

import (
	"github.com/anoixa/colab/config"
	log "github.com/sirupsen/logrus"
)

// NewPublisher 配置了 kafka_brokers 时使用 Kafka，否则写日志
func NewPublisher(cfg *config.Config) Publisher {
	brokers := cfg.KafkaBrokerList()
	if len(brokers) == 0 {
		log.Println("[Events] No kafka brokers configured, events go to the log")
		return NewLogPublisher()
	}
	log.Printf("[Events] Publishing to kafka topic %s via %v", cfg.KafkaTopic, brokers)
	return NewKafkaPublisher(KafkaConfig{
		Brokers:   brokers,
		Topic:     cfg.KafkaTopic,
		Workers:   cfg.KafkaWorkers,
		QueueSize: cfg.KafkaQueueSize,
	})
}
