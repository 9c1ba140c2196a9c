package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/circuit_breaker"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/database"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/kafka"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/logger"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LIBRARY_HTTP_HOST"`
	Port         string        `yaml:"port" envconfig:"LIBRARY_HTTP_PORT" default:"50051"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE" default:"10s"`
	MaxWorkers   int64         `yaml:"maxWorkers" envconfig:"HTTP_MAX_WORKERS" default:"10"`
}

type Config struct {
	Server   HTTPServer `yaml:"server"`
	Database database.DB
	Kafka    kafka.Config
	Breaker  circuit_breaker.Config
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment once. Options fill fields that the
// environment leaves unset.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		config, err := Load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func Load(ops ...Option) (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	for _, op := range ops {
		op(&config)
	}
	return config, nil
}

func printConfig(cfg Config) {
	cfg.Database.DSN = "***"
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
