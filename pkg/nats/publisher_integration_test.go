package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "INVENTORY_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"
const streamName = "INVENTORY"

// PublisherSuite publishes events to a JetStream server running in a container.
type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

// SetupSuite starts NATS and creates the stream the publisher writes to.
func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = NewClient(natsURL, 5*time.Second, s.logger)
	require.NoError(s.T(), err, "Failed to connect to NATS")
	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")

	_, err = s.js.CreateOrUpdateStream(s.ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{messaging.StockChangedSubject},
	})
	require.NoError(s.T(), err, "Failed to create stream")
}

// TearDownSuite closes the connection and terminates the container.
func (s *PublisherSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

// SetupTest empties the stream so each test counts only its own messages.
func (s *PublisherSuite) SetupTest() {
	stream, err := s.js.Stream(s.ctx, streamName)
	require.NoError(s.T(), err)
	require.NoError(s.T(), stream.Purge(s.ctx))
}

func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestPublishStockChanged() {
	// given
	customerID := 7
	event := events.StockChangedEvent{
		TransactionID: 1700000000000,
		ProductID:     1,
		CustomerID:    &customerID,
		Type:          "deduct",
		Quantity:      5,
		StockAfter:    5,
		Timestamp:     json.RawMessage(`"t1"`),
	}
	publisher := NewNatsPublisher(s.js)

	// when
	err := publisher.Publish(s.ctx, event)

	// then
	require.NoError(s.T(), err)
	stream, err := s.js.Stream(s.ctx, streamName)
	require.NoError(s.T(), err)
	msg, err := stream.GetLastMsgForSubject(s.ctx, messaging.StockChangedSubject)
	require.NoError(s.T(), err)
	var received events.StockChangedEvent
	require.NoError(s.T(), json.Unmarshal(msg.Data, &received))
	s.Equal(event, received)
	s.Equal("1700000000000", msg.Header.Get(jetstream.MsgIDHeader))
}

func (s *PublisherSuite) TestPublishIsDeduplicatedByTransactionID() {
	// given
	event := events.StockChangedEvent{TransactionID: 42, ProductID: 1, Type: "add", Quantity: 1, StockAfter: 1, Timestamp: json.RawMessage(`null`)}
	publisher := NewNatsPublisher(s.js)

	// when
	require.NoError(s.T(), publisher.Publish(s.ctx, event))
	require.NoError(s.T(), publisher.Publish(s.ctx, event))

	// then
	stream, err := s.js.Stream(s.ctx, streamName)
	require.NoError(s.T(), err)
	info, err := stream.Info(s.ctx)
	require.NoError(s.T(), err)
	s.Equal(uint64(1), info.State.Msgs)
}
