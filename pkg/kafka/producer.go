// Package kafka 提供了向 Kafka 发送文档事件的功能。
package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"contextai-go/internal/config"
	"contextai-go/internal/model"
	"contextai-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// Producer 发布文档入库事件。nil 的 *Producer 不发送任何消息。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。未配置 brokers 时返回 nil。
func NewProducer(cfg config.KafkaConfig) *Producer {
	brokers := splitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		log.Info("未配置 Kafka brokers，入库事件不会发送")
		return nil
	}
	log.Infof("Kafka 生产者初始化成功, topic: %s", cfg.Topic)
	return &Producer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}}
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func ingestedMessage(ev model.DocumentIngestedEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.DocumentID),
		Value: value,
		Time:  ev.Timestamp,
	}, nil
}

// PublishDocumentIngested 发送一条 document.ingested 事件。
func (p *Producer) PublishDocumentIngested(ctx context.Context, ev model.DocumentIngestedEvent) error {
	if p == nil {
		return nil
	}
	msg, err := ingestedMessage(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
