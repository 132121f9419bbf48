package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config carries the shop's tunables. Every timing constant of the
// simulation is overridable through the environment or an optional .env
// file; the defaults are the reference values.
type Config struct {
	Environment string
	ServiceName string
	AdminPort   string
	ShopsDir    string

	LocalPurchaseDelay    time.Duration
	LocalCadenceMin       time.Duration
	LocalCadenceMax       time.Duration
	OnlineProcessingDelay time.Duration
	DeliverDelayMin       time.Duration
	DeliverDelayMax       time.Duration
	DeliverLossRate       float64

	OtlpEndpoint string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVICE_NAME", "shop-service")
	v.SetDefault("ADMIN_PORT", "8081")
	v.SetDefault("SHOPS_DIR", "tiendas")
	v.SetDefault("LOCAL_PURCHASE_MILLIS", 200)
	v.SetDefault("LOCAL_CADENCE_MIN_MILLIS", 100)
	v.SetDefault("LOCAL_CADENCE_MAX_MILLIS", 300)
	v.SetDefault("ONLINE_PROCESSING_MILLIS", 200)
	v.SetDefault("DELIVER_MIN_MILLIS", 500)
	v.SetDefault("DELIVER_MAX_MILLIS", 700)
	v.SetDefault("DELIVER_LOSS_RATE", 0.5)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return &Config{
		Environment:           v.GetString("ENVIRONMENT"),
		ServiceName:           v.GetString("SERVICE_NAME"),
		AdminPort:             v.GetString("ADMIN_PORT"),
		ShopsDir:              v.GetString("SHOPS_DIR"),
		LocalPurchaseDelay:    time.Duration(v.GetInt("LOCAL_PURCHASE_MILLIS")) * time.Millisecond,
		LocalCadenceMin:       time.Duration(v.GetInt("LOCAL_CADENCE_MIN_MILLIS")) * time.Millisecond,
		LocalCadenceMax:       time.Duration(v.GetInt("LOCAL_CADENCE_MAX_MILLIS")) * time.Millisecond,
		OnlineProcessingDelay: time.Duration(v.GetInt("ONLINE_PROCESSING_MILLIS")) * time.Millisecond,
		DeliverDelayMin:       time.Duration(v.GetInt("DELIVER_MIN_MILLIS")) * time.Millisecond,
		DeliverDelayMax:       time.Duration(v.GetInt("DELIVER_MAX_MILLIS")) * time.Millisecond,
		DeliverLossRate:       v.GetFloat64("DELIVER_LOSS_RATE"),
		OtlpEndpoint:          v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
