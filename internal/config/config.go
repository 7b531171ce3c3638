package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BrokerNATS  = "nats"
	BrokerKafka = "kafka"
	BrokerRedis = "redis"
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	Broker        string   `env:"BROKER"`
	NatsURL       string   `env:"NATS_URL"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS"  envSeparator:","`
	RedisAddr     string   `env:"REDIS_ADDR"`
	ConsumerGroup string   `env:"CONSUMER_GROUP"`

	BuyAccountWorkers uint          `env:"BUY_ACCOUNT_WORKERS"`
	IntentWorkers     uint          `env:"INTENT_WORKERS"`
	AckDeadline       time.Duration `env:"ACK_DEADLINE"`
	MaxDeliveries     int           `env:"MAX_DELIVERIES"`

	EscrowHold            time.Duration `env:"ESCROW_HOLD"`
	EscrowSweepInterval   time.Duration `env:"ESCROW_SWEEP_INTERVAL"`
	EscrowSweepWorkers    uint          `env:"ESCROW_SWEEP_WORKERS"`
	SellerRegistrationFee int64         `env:"SELLER_REGISTRATION_FEE"`
}

// LoadConfig читает .env (если есть), переменные окружения и флаги. Переменные окружения
// приоритетнее флагов.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %s", err.Error())
	}
	return loadConfig(os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadConfig(args []string) (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(&flagsConfig, args); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("database DSN is not set")
	}
	switch c.Broker {
	case BrokerNATS:
		if c.NatsURL == "" {
			return errors.New("NATS URL is not set")
		}
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("kafka brokers are not set")
		}
	case BrokerRedis:
		if c.RedisAddr == "" {
			return errors.New("redis address is not set")
		}
	default:
		return fmt.Errorf("unknown broker %q, expected one of nats, kafka, redis", c.Broker)
	}
	if c.MaxDeliveries < 1 {
		return errors.New("max deliveries must be positive")
	}
	return nil
}

//nolint:mnd
func loadFlags(flagConfig *Config, args []string) error {
	fs := flag.NewFlagSet("fulfillment", flag.ContinueOnError)

	fs.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")

	fs.StringVar(&flagConfig.Broker, "b", BrokerNATS, "Queue broker: nats, kafka or redis")
	fs.StringVar(&flagConfig.NatsURL, "nats-url", "nats://localhost:4222", "NATS server URL")
	kafkaBrokers := fs.String("kafka-brokers", "localhost:9092", "Comma separated Kafka brokers")
	fs.StringVar(&flagConfig.RedisAddr, "redis-addr", "localhost:6379", "Redis address")
	fs.StringVar(&flagConfig.ConsumerGroup, "group", "fulfillment", "Consumer group name")

	fs.UintVar(&flagConfig.BuyAccountWorkers, "buy-account-workers", 5, "Workers for the buy account queue")
	fs.UintVar(&flagConfig.IntentWorkers, "intent-workers", 2, "Workers for each of the other intent queues")
	fs.DurationVar(&flagConfig.AckDeadline, "ack-deadline", 30*time.Second, "Message processing deadline")
	fs.IntVar(&flagConfig.MaxDeliveries, "max-deliveries", 5, "Deliveries before a message goes to the DLQ")

	fs.DurationVar(&flagConfig.EscrowHold, "escrow-hold", 72*time.Hour, "Escrow hold period")
	fs.DurationVar(&flagConfig.EscrowSweepInterval, "escrow-sweep-interval", time.Hour, "Escrow release sweep interval")
	fs.UintVar(&flagConfig.EscrowSweepWorkers, "escrow-sweep-workers", 3, "Escrow release workers")
	fs.Int64Var(&flagConfig.SellerRegistrationFee, "seller-fee", 200000, "Seller registration fee in coins")

	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck
	}
	flagConfig.KafkaBrokers = splitList(*kafkaBrokers)
	return nil
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	kafkaBrokers := envConfig.KafkaBrokers
	if len(kafkaBrokers) == 0 {
		kafkaBrokers = flagsConfig.KafkaBrokers
	}

	return &Config{
		RunAddress:    defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:   defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir: defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),

		Broker:        strings.ToLower(defaultIfBlank(envConfig.Broker, flagsConfig.Broker)),
		NatsURL:       defaultIfBlank(envConfig.NatsURL, flagsConfig.NatsURL),
		KafkaBrokers:  kafkaBrokers,
		RedisAddr:     defaultIfBlank(envConfig.RedisAddr, flagsConfig.RedisAddr),
		ConsumerGroup: defaultIfBlank(envConfig.ConsumerGroup, flagsConfig.ConsumerGroup),

		BuyAccountWorkers: defaultIfZero(envConfig.BuyAccountWorkers, flagsConfig.BuyAccountWorkers),
		IntentWorkers:     defaultIfZero(envConfig.IntentWorkers, flagsConfig.IntentWorkers),
		AckDeadline:       defaultIfZero(envConfig.AckDeadline, flagsConfig.AckDeadline),
		MaxDeliveries:     defaultIfZero(envConfig.MaxDeliveries, flagsConfig.MaxDeliveries),

		EscrowHold:            defaultIfZero(envConfig.EscrowHold, flagsConfig.EscrowHold),
		EscrowSweepInterval:   defaultIfZero(envConfig.EscrowSweepInterval, flagsConfig.EscrowSweepInterval),
		EscrowSweepWorkers:    defaultIfZero(envConfig.EscrowSweepWorkers, flagsConfig.EscrowSweepWorkers),
		SellerRegistrationFee: defaultIfZero(envConfig.SellerRegistrationFee, flagsConfig.SellerRegistrationFee),
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultIfZero[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}
