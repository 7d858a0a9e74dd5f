package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/backend"
	"github.com/relabs-tech/modelrest/core/csql"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/notify"
	"github.com/relabs-tech/modelrest/core/repository"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker". Without POSTGRES, records are kept in memory.
type Service struct {
	Postgres         string   `env:"POSTGRES" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string   `env:"POSTGRES_PASSWORD" description:"password to the Postgres DB"`
	PostgresSchema   string   `env:"POSTGRES_SCHEMA,default=modelrest" description:"the schema for the model tables"`
	ModelsFile       string   `env:"MODELS_FILE" description:"JSON, YAML or TOML file with the model definitions"`
	URLPrefix        string   `env:"URL_PREFIX,default=/api" description:"prefix of all model routes"`
	Convenience      bool     `env:"CONVENIENCE,default=false" description:"enable GET aliases for modifying routes"`
	CORS             string   `env:"CORS,default=common" description:"CORS mode, one of common, model or none"`
	LogLevel         string   `env:"LOG_LEVEL,default=info" description:"log level"`
	Port             int      `env:"PORT,default=3000" description:"the port to listen on"`
	KafkaBrokers     []string `env:"KAFKA_BROKERS" description:"semicolon separated kafka brokers for record notifications"`
	KafkaTopic       string   `env:"KAFKA_TOPIC,default=model_notification" description:"the topic for record notifications"`
}

// configuration returns the backend configuration of the service
func (s *Service) configuration() (string, error) {
	data, err := json.Marshal(backend.Configuration{
		URLPrefix:   s.URLPrefix,
		Convenience: s.Convenience,
		CORS:        s.CORS,
	})
	return string(data), err
}

// registry loads the model definitions
func (s *Service) registry() (*model.Registry, error) {
	registry := model.NewRegistry()
	if s.ModelsFile == "" {
		return registry, nil
	}
	if err := registry.LoadFile(s.ModelsFile); err != nil {
		return nil, fmt.Errorf("cannot load models from %s: %w", s.ModelsFile, err)
	}
	return registry, nil
}

// build creates the backend on the router. The returned function releases the
// database and the notifier.
func (s *Service) build(router *mux.Router) (*backend.Backend, func(), error) {
	rlog := logger.ForComponent("service")
	config, err := s.configuration()
	if err != nil {
		return nil, nil, err
	}
	registry, err := s.registry()
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var repo repository.Repository
	if s.Postgres != "" {
		db, err := csql.OpenWithSchema(s.Postgres, s.PostgresPassword, s.PostgresSchema)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		repo = repository.NewPostgres(db)
	} else {
		rlog.Warnln("POSTGRES is not set, records are kept in memory")
		repo = repository.NewMemory()
	}

	notifiers := notify.Multi{notify.Log{}}
	if len(s.KafkaBrokers) > 0 {
		kafka := notify.NewKafka(s.KafkaBrokers, s.KafkaTopic)
		closers = append(closers, func() {
			if err := kafka.Close(); err != nil {
				rlog.WithError(err).Errorln("cannot close kafka writer")
			}
		})
		notifiers = append(notifiers, kafka)
	}

	b, err := backend.NewWithError(&backend.Builder{
		Config:     config,
		Registry:   registry,
		Repository: repo,
		Router:     router,
		Notifier:   core.Notifier(notifiers),
	})
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return b, closeAll, nil
}
