package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config carries the ecom's tunables; defaults are the reference values.
type Config struct {
	Environment string
	ServiceName string
	AdminPort   string
	ShopsDir    string
	OrdersDir   string

	OrderCadenceMin time.Duration
	OrderCadenceMax time.Duration
	LossTimeout     time.Duration

	OtlpEndpoint string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVICE_NAME", "ecom-service")
	v.SetDefault("ADMIN_PORT", "8080")
	v.SetDefault("SHOPS_DIR", "tiendas")
	v.SetDefault("ORDERS_DIR", "pedidos")
	v.SetDefault("ORDER_CADENCE_MIN_MILLIS", 250)
	v.SetDefault("ORDER_CADENCE_MAX_MILLIS", 400)
	v.SetDefault("ECOM_MAX_WAITING_MILLIS", 5000)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return &Config{
		Environment:     v.GetString("ENVIRONMENT"),
		ServiceName:     v.GetString("SERVICE_NAME"),
		AdminPort:       v.GetString("ADMIN_PORT"),
		ShopsDir:        v.GetString("SHOPS_DIR"),
		OrdersDir:       v.GetString("ORDERS_DIR"),
		OrderCadenceMin: time.Duration(v.GetInt("ORDER_CADENCE_MIN_MILLIS")) * time.Millisecond,
		OrderCadenceMax: time.Duration(v.GetInt("ORDER_CADENCE_MAX_MILLIS")) * time.Millisecond,
		LossTimeout:     time.Duration(v.GetInt("ECOM_MAX_WAITING_MILLIS")) * time.Millisecond,
		OtlpEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
