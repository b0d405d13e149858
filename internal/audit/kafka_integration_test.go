//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"namecheck/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	kafka *containers.KafkaContainer
}

func TestKafkaSinkSuite(t *testing.T) {
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
}

func (s *KafkaSinkSuite) TestProducesJSONEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "namecheck.audit.test"

	producer, err := NewKafkaClient(s.kafka.Brokers, topic)
	s.Require().NoError(err)
	defer producer.Close()

	s.Require().NoError(EnsureTopic(ctx, producer, topic, 1, 1))
	s.Require().NoError(EnsureTopic(ctx, producer, topic, 1, 1), "existing topic is not an error")

	sink, err := NewKafkaSink(producer, topic)
	s.Require().NoError(err)
	pub := NewPublisher(sink)

	e := verifiedEvent("match")
	e.SourceBank = "Techcombank"
	e.Attempted = []string{"ACB", "Techcombank"}
	s.Require().NoError(pub.Emit(ctx, e))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.kafka.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)

	var got Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(e.AccountHash, string(records[0].Key))
	s.Equal("match", got.Verdict)
	s.Equal("Techcombank", got.SourceBank)
	s.Equal([]string{"ACB", "Techcombank"}, got.Attempted)
}

func (s *KafkaSinkSuite) TestRequiresClient() {
	_, err := NewKafkaSink(nil, "")
	s.Error(err)

	_, err = NewKafkaClient(nil, DefaultTopic)
	s.Error(err)
}
