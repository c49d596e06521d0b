package kafka_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/docket-io/docket/pkg/channels/kafka"
	"github.com/docket-io/docket/pkg/eventbus"
	"github.com/docket-io/docket/pkg/events"
)

var (
	kafkaContainer *kafkaTc.KafkaContainer
	brokers        string
	logger         *slog.Logger
)

func TestMain(m *testing.M) {
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx := context.Background()

	var err error

	kafkaContainer, err = kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0")
	if err != nil {
		panic("Failed to start Kafka container: " + err.Error())
	}

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	if err != nil {
		panic("Failed to get Kafka brokers: " + err.Error())
	}

	brokers = kafkaBrokers[0]

	createTopic(brokers)

	code := m.Run()

	if err := kafkaContainer.Terminate(ctx); err != nil {
		panic("Failed to terminate Kafka container: " + err.Error())
	}

	os.Exit(code)
}

func createTopic(brokers string) {
	admin, err := sarama.NewClusterAdmin([]string{brokers}, sarama.NewConfig())
	if err != nil {
		panic("Failed to connect cluster admin: " + err.Error())
	}

	defer func() {
		if err := admin.Close(); err != nil {
			panic(err.Error())
		}
	}()

	err = admin.CreateTopic(events.Topic, &sarama.TopicDetail{
		NumPartitions:     1,
		ReplicationFactor: 1,
	}, false)
	if err != nil {
		panic("Failed to create topic: " + err.Error())
	}
}

func TestCreateChannel_Brokers(t *testing.T) {
	tests := []struct {
		name        string
		brokers     string
		expectError bool
	}{
		{"valid brokers", brokers, false},
		{"empty brokers", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", tt.brokers)

			publisher, subscriber, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "docket-test")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, publisher)
				assert.Nil(t, subscriber)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, publisher)
			require.NotNil(t, subscriber)

			assert.NoError(t, publisher.Close())
			assert.NoError(t, subscriber.Close())
		})
	}
}

func TestCreateChannel_PublishAndSubscribe(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", brokers)

	publisher, subscriber, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "docket-roundtrip")
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(publisher, subscriber)

	defer func() {
		assert.NoError(t, bus.Close())
	}()

	received := make(chan eventbus.Event, 1)
	err = bus.Handle(events.TaskCreatedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(eventbus.Event); ok {
			received <- e
		}

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(context.Background()))

	// Give the consumer group time to rebalance before publishing.
	time.Sleep(2 * time.Second)

	sent := &events.TaskCreated{
		BaseEvent:  events.NewBaseEvent(events.TaskCreatedEvent, "case-1"),
		TaskID:     "task-1",
		Title:      "File initial complaint",
		AssignedTo: "attorney-1",
	}

	require.NoError(t, bus.Publish(context.Background(), "case-1", sent))

	select {
	case got := <-received:
		task, ok := got.(*events.TaskCreated)
		require.True(t, ok)
		assert.Equal(t, sent.TaskID, task.TaskID)
		assert.Equal(t, sent.CaseID, task.CaseID)
		assert.Equal(t, events.TaskCreatedEvent, got.GetType())
	case <-time.After(10 * time.Second):
		t.Fatal("Did not receive event within timeout")
	}
}
