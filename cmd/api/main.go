package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/dacadeorg/icp-azle-201/internal/config"
	"github.com/dacadeorg/icp-azle-201/internal/httpx"
	kafkax "github.com/dacadeorg/icp-azle-201/internal/kafka"
	"github.com/dacadeorg/icp-azle-201/internal/ledger"
	"github.com/dacadeorg/icp-azle-201/internal/logging"
	"github.com/dacadeorg/icp-azle-201/internal/market"
	"github.com/dacadeorg/icp-azle-201/internal/postgres"
	"github.com/dacadeorg/icp-azle-201/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ledger client (bounded timeout on every call)
	lc := ledger.NewHTTPClient(cfg.LedgerURL, cfg.LedgerTimeout)

	// Redis (status cache, and reservations when configured)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Stores
	var products market.ProductRepo = market.NewMemoryProducts()
	var orderLog market.OrderLedger = market.NewMemoryOrderLedger()
	if cfg.StoreBackend == "postgres" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		products = &postgres.Products{DB: db}
		orderLog = &postgres.Orders{DB: db}
	}
	catalog := &market.Catalog{Products: products}

	// Kafka producers, one per topic. Their lifecycle is Close/WaitClosed,
	// independent of the request context.
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCreated, 1024)
	pCreated.Start(context.Background())
	pCompleted := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCompleted, 1024)
	pCompleted.Start(context.Background())
	pExpired := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderExpired, 1024)
	pExpired.Start(context.Background())

	// Reservations
	var reservations market.ReservationStore
	switch cfg.ReservationBackend {
	case "redis":
		// key TTL does the expiring; no expiry events on this backend
		reservations = &redisx.Reservations{RDB: rdb}
	default:
		mem := market.NewMemoryReservations()
		mem.OnExpire = func(o market.PendingOrder) {
			logger.Info("reservation expired",
				"correlation_id", o.CorrelationID, "product_id", o.ProductID)
			cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer ccancel()
			_ = rdb.Del(cctx, fmt.Sprintf(redisx.KeyOrderStatus, o.CorrelationID)).Err()
			ev := market.Envelope{
				EventID:       uuid.NewString(),
				EventType:     market.EventOrderExpired,
				EventVersion:  1,
				OccurredAt:    time.Now().UTC(),
				Producer:      cfg.ServiceName,
				CorrelationID: strconv.FormatUint(o.CorrelationID, 10),
				Payload: kafkax.MustMarshal(market.OrderExpiredPayload{
					CorrelationID: o.CorrelationID,
					ProductID:     o.ProductID,
					Buyer:         o.Buyer,
				}),
			}
			pExpired.Publish(market.PartitionKey(o.CorrelationID), kafkax.MustMarshal(ev),
				kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderExpired)},
				kafkago.Header{Key: "x-event-version", Value: []byte("1")},
			)
		}
		reservations = mem
	}

	checkout := &market.Checkout{
		Catalog:      catalog,
		Reservations: reservations,
		Orders:       orderLog,
		Verifier:     &market.Verifier{Ledger: lc},
		Ledger:       lc,
		TTL:          cfg.ReservationTTL,
		Mode:         market.Mode(cfg.CheckoutMode),
	}

	router := httpx.NewRouter()
	mh := &httpx.MarketHandler{
		Catalog:           catalog,
		Checkout:          checkout,
		Ledger:            lc,
		Redis:             rdb,
		Service:           cfg.ServiceName,
		Log:               logger,
		ProducerCreated:   pCreated,
		ProducerCompleted: pCompleted,
	}
	mh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", "addr", cfg.HTTPAddr, "checkout_mode", cfg.CheckoutMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pCreated, pCompleted, pExpired} {
		p.Close()
	}
	for _, p := range []*kafkax.Producer{pCreated, pCompleted, pExpired} {
		p.WaitClosed()
	}
}
