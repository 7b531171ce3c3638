package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	"github.com/fsdevblog/mmo-fulfillment/internal/broker/jetstream"
	"github.com/fsdevblog/mmo-fulfillment/internal/broker/kafkabroker"
	"github.com/fsdevblog/mmo-fulfillment/internal/broker/redisstream"
	"github.com/fsdevblog/mmo-fulfillment/internal/config"
	"github.com/fsdevblog/mmo-fulfillment/internal/mail"
	"github.com/fsdevblog/mmo-fulfillment/internal/metrics"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/pgrepo"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/internal/service"
	"github.com/fsdevblog/mmo-fulfillment/internal/transport/api"
	"github.com/fsdevblog/mmo-fulfillment/internal/transport/escrow"
	"github.com/fsdevblog/mmo-fulfillment/internal/transport/queue"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.WithFields(logrus.Fields{
		"runAddress":    a.Config.RunAddress,
		"broker":        a.Config.Broker,
		"consumerGroup": a.Config.ConsumerGroup,
	}).Info("Starting app")

	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	brk, brokerErr := a.connectBroker(notifyCtx)
	if brokerErr != nil {
		return fmt.Errorf("app run: %s", brokerErr.Error())
	}
	defer func() {
		if err := brk.Close(); err != nil {
			a.Logger.WithError(err).Warn("close broker")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	services, sErr := service.Factory(unitOfWork, brk, service.FulfillmentArgs{
		Notifications:   pgrepo.NewNotificationSink(conn, a.Logger),
		Email:           mail.NewSink(brk, a.Logger),
		Outcomes:        m,
		Logger:          a.Logger,
		EscrowHold:      a.Config.EscrowHold,
		RegistrationFee: a.Config.SellerRegistrationFee,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:        a.Logger,
		OrderService:  services.OrderService,
		IntentService: services.IntentService,
		Health:        conn,
		Metrics:       m,
		Gatherer:      reg,
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	processor := queue.New(brk, a.Config.ConsumerGroup, a.Logger).
		SetAckDeadline(a.Config.AckDeadline).
		SetMaxDeliveries(a.Config.MaxDeliveries).
		SetWorkers(a.Config.IntentWorkers).
		SetObserver(m).
		Handle(queue.Routes(queue.Services{
			BuyAccount:         services.BuyAccountService,
			BuyPoints:          services.BuyPointsService,
			SellerRegistration: services.SellerRegistrationService,
			Withdrawal:         services.WithdrawalService,
		}, queue.Workers{BuyAccount: a.Config.BuyAccountWorkers})...)

	sweeper := escrow.New(services.EscrowReleaseService, a.Logger).
		SetInterval(a.Config.EscrowSweepInterval).
		SetReleaseWorkers(a.Config.EscrowSweepWorkers).
		SetObserver(m)

	server := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(notifyCtx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx) //nolint:contextcheck,wrapcheck
	})
	g.Go(func() error {
		return processor.Run(gctx)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck
	}
	return notifyCtx.Err() //nolint:wrapcheck
}

func (a *App) connectBroker(ctx context.Context) (broker.Broker, error) {
	switch a.Config.Broker {
	case config.BrokerKafka:
		return kafkabroker.New(kafkabroker.Config{Brokers: a.Config.KafkaBrokers}), nil
	case config.BrokerRedis:
		b, err := redisstream.Connect(ctx, redisstream.Config{
			Addr:      a.Config.RedisAddr,
			ClaimIdle: a.Config.AckDeadline,
		})
		if err != nil {
			return nil, fmt.Errorf("connect broker: %w", err)
		}
		return b, nil
	default:
		b, err := jetstream.Connect(ctx, jetstream.Config{
			URL:        a.Config.NatsURL,
			AckWait:    a.Config.AckDeadline,
			MaxDeliver: a.Config.MaxDeliveries,
		})
		if err != nil {
			return nil, fmt.Errorf("connect broker: %w", err)
		}
		return b, nil
	}
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.UserRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewUserRepository(dbtx)
		},
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOrderRepository(dbtx)
		},
		repoargs.CatalogRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewCatalogRepository(dbtx)
		},
		repoargs.StockRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewStockRepository(dbtx)
		},
		repoargs.EscrowRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewEscrowRepository(dbtx)
		},
		repoargs.OTPRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOTPRepository(dbtx)
		},
		repoargs.ShopRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewShopRepository(dbtx)
		},
		repoargs.PointPurchaseRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewPointPurchaseRepository(dbtx)
		},
		repoargs.WithdrawalRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewWithdrawalRepository(dbtx)
		},
		repoargs.BankInfoRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewBankInfoRepository(dbtx)
		},
		repoargs.ComplaintRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewComplaintRepository(dbtx)
		},
		repoargs.SystemConfigRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewSystemConfigRepository(dbtx)
		},
		repoargs.IntentRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewIntentRepository(dbtx)
		},
	}

	for name, factory := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factory); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}

	return unitOfWork, nil
}
