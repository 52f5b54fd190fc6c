package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Store
	StoreBackend   string
	MongoURI       string
	MongoDatabase  string
	StoreOpTimeout time.Duration

	// Firebase
	FirebaseServiceAccount string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		StoreBackend:   getEnv("STORE_BACKEND", "mongo"),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "moneyzen"),
		StoreOpTimeout: getEnvDuration("STORE_OP_TIMEOUT", 5*time.Second),

		FirebaseServiceAccount: getEnv("FIREBASE_SERVICE_ACCOUNT", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneyzen"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "reconcile_transactions"),
	}

	return cfg
}

// Validate validates the server configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate store backend
	validBackends := []string{"mongo", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.StoreBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	// Validate Mongo configuration if backend is mongo
	if c.StoreBackend == "mongo" {
		if c.MongoURI == "" {
			errors = append(errors, "Mongo URI cannot be empty when using mongo backend")
		} else if parsedURI, err := url.Parse(c.MongoURI); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI '%s': %v", c.MongoURI, err))
		} else if parsedURI.Scheme != "mongodb" && parsedURI.Scheme != "mongodb+srv" {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", parsedURI.Scheme))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "Mongo database name cannot be empty when using mongo backend")
		}
	}

	if c.StoreOpTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid store op timeout %v: must be at least 1 second", c.StoreOpTimeout))
	} else if c.StoreOpTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid store op timeout %v: must be at most 1 minute", c.StoreOpTimeout))
	}

	// Validate Firebase service account
	if c.FirebaseServiceAccount == "" {
		errors = append(errors, "Firebase service account cannot be empty")
	} else if !json.Valid([]byte(c.FirebaseServiceAccount)) {
		errors = append(errors, "Firebase service account must be valid JSON")
	}

	if err := c.validateAMQP(); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker validates the configuration for the reconcile worker, which
// needs the store and AMQP but no HTTP server or Firebase credentials
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.StoreBackend != "mongo" && c.StoreBackend != "memory" {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of [mongo memory]", c.StoreBackend))
	}

	if c.StoreBackend == "mongo" && c.MongoURI == "" {
		errors = append(errors, "Mongo URI cannot be empty when using mongo backend")
	}

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL cannot be empty for the reconcile worker")
	} else if err := c.validateAMQP(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// validateAMQP checks the AMQP settings when a URL is configured
func (c *Config) validateAMQP() error {
	if c.AMQPURL == "" {
		return nil
	}

	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		return fmt.Errorf("invalid AMQP URL '%s': %v", c.AMQPURL, err)
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		return fmt.Errorf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme)
	}

	if c.AMQPExchange == "" {
		return fmt.Errorf("AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		return fmt.Errorf("AMQP queue name cannot be empty when AMQP URL is provided")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
