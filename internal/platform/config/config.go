package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	PaystackSecretKey string
	PaystackBaseURL   string

	DefaultCurrency        string
	AssignmentCap          int
	DefaultUnitCount       int
	ValidatorMinReputation float64
	VerificationDeadline   time.Duration
	WithdrawalKYCThreshold string
	WithdrawalMaxAttempts  int
	WorkerPollInterval     time.Duration

	EnableOutboxRelay          bool
	EnableVerificationConsumer bool
	EnableVerificationSweeper  bool
	EnableWithdrawalProcessor  bool
	EnableReconciler           bool
	EnableReputationConsumer   bool
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_NAME", "flow")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("PAYSTACK_SECRET_KEY", "")
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("DEFAULT_CURRENCY", "NGN")
	v.SetDefault("ASSIGNMENT_CAP", 5)
	v.SetDefault("DEFAULT_UNIT_COUNT", 10)
	v.SetDefault("VALIDATOR_MIN_REPUTATION", 4.0)
	v.SetDefault("VERIFICATION_DEADLINE", "48h")
	v.SetDefault("WITHDRAWAL_KYC_THRESHOLD", "50000.00")
	v.SetDefault("WITHDRAWAL_MAX_ATTEMPTS", 5)
	v.SetDefault("WORKER_POLL_INTERVAL", "2s")
	v.SetDefault("ENABLE_OUTBOX_RELAY", true)
	v.SetDefault("ENABLE_VERIFICATION_CONSUMER", true)
	v.SetDefault("ENABLE_VERIFICATION_SWEEPER", true)
	v.SetDefault("ENABLE_WITHDRAWAL_PROCESSOR", true)
	v.SetDefault("ENABLE_RECONCILER", true)
	v.SetDefault("ENABLE_REPUTATION_CONSUMER", true)

	var brokers []string
	for _, value := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  v.GetString("SERVICE_NAME"),
		HTTPPort:     v.GetString("HTTP_PORT"),
		PostgresDSN:  v.GetString("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		PaystackSecretKey: v.GetString("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   v.GetString("PAYSTACK_BASE_URL"),

		DefaultCurrency:        v.GetString("DEFAULT_CURRENCY"),
		AssignmentCap:          v.GetInt("ASSIGNMENT_CAP"),
		DefaultUnitCount:       v.GetInt("DEFAULT_UNIT_COUNT"),
		ValidatorMinReputation: v.GetFloat64("VALIDATOR_MIN_REPUTATION"),
		VerificationDeadline:   v.GetDuration("VERIFICATION_DEADLINE"),
		WithdrawalKYCThreshold: v.GetString("WITHDRAWAL_KYC_THRESHOLD"),
		WithdrawalMaxAttempts:  v.GetInt("WITHDRAWAL_MAX_ATTEMPTS"),
		WorkerPollInterval:     v.GetDuration("WORKER_POLL_INTERVAL"),

		EnableOutboxRelay:          v.GetBool("ENABLE_OUTBOX_RELAY"),
		EnableVerificationConsumer: v.GetBool("ENABLE_VERIFICATION_CONSUMER"),
		EnableVerificationSweeper:  v.GetBool("ENABLE_VERIFICATION_SWEEPER"),
		EnableWithdrawalProcessor:  v.GetBool("ENABLE_WITHDRAWAL_PROCESSOR"),
		EnableReconciler:           v.GetBool("ENABLE_RECONCILER"),
		EnableReputationConsumer:   v.GetBool("ENABLE_REPUTATION_CONSUMER"),
	}, nil
}
