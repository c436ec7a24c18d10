//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/cache"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/events"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/messaging"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// matchingStack holds wired-up matching service components.
type matchingStack struct {
	Bookings     *application.BookingService
	Search       *application.SearchService
	Cache        *cache.ProviderSnapshotCache
	Consumer     *events.ProviderEventConsumer
	Redis        *miniredis.Miniredis
	CleanupStack func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers, applies the
// migrations and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("test_matching"),
		postgrescontainer.WithUsername("test"),
		postgrescontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := database.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_matching",
		SSLMode:  "disable",
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dbCfg, logger)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(dbCfg.DatabaseURL(), "migrations", logger))

	// confluent-local supports KRaft natively.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers,
		application.TopicBookingEvents,
		events.TopicProviderEvents,
		messaging.TopicConversationMessages,
	)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupMatchingStack wires the services the way cmd/server does, with a
// miniredis snapshot cache in front of Postgres.
func setupMatchingStack(t *testing.T, db *gorm.DB, brokers []string, today civil.Date) *matchingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	bookingRepo := repository.NewGormBookingRepository(db)
	petRepo := repository.NewGormPetRepository(db)
	providerCache := cache.NewProviderSnapshotCache(
		repository.NewGormProviderRepository(db), redisClient, time.Hour, logger)

	producer := kafka.NewProducer(brokers, logger)
	clock := func() civil.Date { return today }

	bookings := application.NewBookingService(
		bookingRepo,
		providerCache,
		petRepo,
		bookingDomain.NewDailyRatePricingStrategy(nil),
		producer,
		messaging.NewKafkaConversationSender(producer, logger),
		clock,
		logger,
	)
	search := application.NewSearchService(
		providerCache,
		bookingRepo,
		petRepo,
		application.SearchConfig{DefaultRadiusKm: 20, MaxRadiusKm: 200},
		clock,
		logger,
	)

	groupID := fmt.Sprintf("test-matching-%s", uuid.New().String()[:8])
	consumer := events.NewProviderEventConsumer(brokers, groupID, providerCache, logger)

	return &matchingStack{
		Bookings: bookings,
		Search:   search,
		Cache:    providerCache,
		Consumer: consumer,
		Redis:    mr,
		CleanupStack: func() {
			_ = consumer.Close()
			_ = producer.Close()
			_ = redisClient.Close()
		},
	}
}

// seedProvider inserts a boarding provider near lower Manhattan and returns
// its id and owning user id.
func seedProvider(t *testing.T, db *gorm.DB, displayName string, rateCents int64) (uuid.UUID, uuid.UUID) {
	t.Helper()
	lat, lng := 40.706086, -73.996864

	services, err := json.Marshal(map[string]interface{}{
		"boarding": map[string]interface{}{"active": true, "rate_cents": rateCents},
	})
	require.NoError(t, err)

	model := repository.ProviderModel{
		ID:                  uuid.New(),
		UserID:              uuid.New(),
		DisplayName:         displayName,
		Latitude:            &lat,
		Longitude:           &lng,
		Services:            services,
		AcceptedPetKinds:    json.RawMessage(`["Dog","Cat"]`),
		AcceptedSizeBuckets: json.RawMessage(`["Small","Medium","Large"]`),
		Verified:            true,
		ExperienceYears:     3,
		GeneralAvailability: json.RawMessage(`[]`),
		BlockedDates:        json.RawMessage(`[]`),
		UpdatedAt:           time.Now().UTC(),
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed provider")
	return model.ID, model.UserID
}

// seedBooking inserts a booking directly, bypassing calendar checks.
func seedBooking(t *testing.T, db *gorm.DB, providerID uuid.UUID, status string, start, end civil.Date) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	model := repository.BookingModel{
		ID:              uuid.New(),
		BookingNumber:   fmt.Sprintf("BK-INT%s", uuid.New().String()[:6]),
		ProviderID:      providerID,
		RequesterID:     uuid.New(),
		ServiceKind:     "boarding",
		StartDate:       start.In(time.UTC),
		EndDate:         end.In(time.UTC),
		Status:          status,
		PetIDs:          json.RawMessage(`[]`),
		TotalPriceCents: 10000,
		Currency:        "MYR",
		Version:         2,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed booking")
	return model.ID
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

// waitForBookingStatus polls the bookings table until the status matches.
func waitForBookingStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expectedStatus string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type whose subject matches (any subject when subject is empty).
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) kafka.CloudEvent {
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
		if ce.Type == expectedType && (subject == "" || ce.Subject == subject) {
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
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
