//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/application"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	pickupEvents "github.com/meetpoint/service-pickup/internal/events"
	"github.com/meetpoint/service-pickup/internal/kafka"
	"github.com/meetpoint/service-pickup/internal/provider/googlemaps"
	"github.com/meetpoint/service-pickup/internal/repository"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// pickupStack holds wired-up pickup service components.
type pickupStack struct {
	Service         *application.ResolutionService
	Consumer        *application.FeedbackEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_pickup",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_pickup sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(&repository.SessionModel{}))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, pickupEvents.TopicPickupEvents, pickupEvents.TopicPickupFeedback)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// startFakeMapsServer serves canned Directions and Places responses so no
// real Google traffic is needed. The walking leg takes 9 minutes and the
// driving leg 6, so every candidate is eligible under the default ceilings.
func startFakeMapsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/maps/api/directions/json", func(w http.ResponseWriter, r *http.Request) {
		durationSec := 360
		if r.URL.Query().Get("mode") == "walking" {
			durationSec = 540
		}
		fmt.Fprintf(w, `{
			"status": "OK",
			"routes": [{
				"overview_polyline": {"points": ""},
				"legs": [{
					"duration": {"value": %d, "text": "some mins"},
					"distance": {"value": 1200, "text": "1.2 km"}
				}]
			}]
		}`, durationSec)
	})

	mux.HandleFunc("/maps/api/place/nearbysearch/json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"status": "OK",
			"results": [
				{"name": "Central Parking", "geometry": {"location": {"lat": 37.791, "lng": -122.405}}},
				{"name": "Harbor Lot", "geometry": {"location": {"lat": 37.792, "lng": -122.406}}}
			]
		}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// setupPickupStack wires up the pickup service against the fake maps server
// and a GORM-backed session store. Only the POI strategy talks to external
// services in this stack, but the model resolver is registered with a static
// completion stub so refinement flows can be exercised end to end.
func setupPickupStack(t *testing.T, db *gorm.DB, brokers []string, mapsURL string) *pickupStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	maps := googlemaps.NewClient(googlemaps.Config{Key: "test", BaseURL: mapsURL})
	scorer := pickup.NewScorer(maps)

	poiSource := pickup.NewPoiSource(maps, 1500, "parking", 10, logger)
	modelSource := pickup.NewModelSource(staticCompletion{}, logger)

	resolvers := []*pickup.Resolver{
		pickup.NewResolver(poiSource, scorer, 30, 10, logger),
		pickup.NewResolver(modelSource, scorer, 30, 10, logger),
	}

	sessionRepo := repository.NewGormSessionRepository(db)
	producer := kafka.NewProducer(brokers, logger)
	service := application.NewResolutionService(sessionRepo, resolvers, producer, logger)

	groupID := fmt.Sprintf("test-pickup-%s", uuid.New().String()[:8])
	consumer := application.NewFeedbackEventConsumer(brokers, groupID, service, logger)

	return &pickupStack{
		Service:         service,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// staticCompletion always proposes the same coordinate pair.
type staticCompletion struct{}

func (staticCompletion) Complete(context.Context, string) (string, error) {
	return "A good meeting point would be 37.7915, -122.4055 near the plaza.", nil
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForSessionRefinements polls the sessions table until the refinement
// count matches.
func waitForSessionRefinements(t *testing.T, db *gorm.DB, sessionID uuid.UUID, expected int, timeout time.Duration) repository.SessionModel {
	t.Helper()
	var result repository.SessionModel
	require.Eventually(t, func() bool {
		var model repository.SessionModel
		err := db.Where("id = ?", sessionID).First(&model).Error
		if err != nil {
			return false
		}
		if model.Refinements == expected {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "session did not reach %d refinements", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
