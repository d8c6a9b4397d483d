// Package vectorstore persists embedded chunks in Elasticsearch dense_vector
// indexes and serves cosine-similarity kNN queries over them.
package vectorstore

import (
	"crypto/tls"
	"fmt"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

// Config holds Elasticsearch connection settings.
type Config struct {
	// Addresses lists the Elasticsearch node URLs.
	Addresses []string `mapstructure:"addresses"`
	// Index is the collection name chunks are written to.
	Index string `mapstructure:"index"`
	// APIKey authenticates requests; takes precedence over basic auth.
	APIKey string `mapstructure:"api_key"`
	// Username and Password configure basic auth when no API key is set.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// CloudID targets an Elastic Cloud deployment.
	CloudID string `mapstructure:"cloud_id"`
	// TLSInsecureSkipVerify disables certificate verification, for
	// development clusters with self-signed certificates.
	TLSInsecureSkipVerify bool `mapstructure:"tls_insecure_skip_verify"`
}

// NewClient creates an Elasticsearch client and verifies the connection with
// a ping.
func NewClient(cfg Config, log logger.Interface) (*es.Client, error) {
	if len(cfg.Addresses) > 0 {
		log.Debug("Connecting to Elasticsearch", "addresses", cfg.Addresses)
	}

	clientConfig := es.Config{
		Addresses: cfg.Addresses,
		Transport: createTransport(cfg),
	}

	if cfg.APIKey != "" {
		clientConfig.APIKey = cfg.APIKey
	} else if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	if cfg.CloudID != "" {
		clientConfig.CloudID = cfg.CloudID
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}

	return client, nil
}

// createTransport builds the HTTP transport, relaxing TLS verification only
// when explicitly configured.
func createTransport(cfg Config) *http.Transport {
	transport := &http.Transport{}

	if cfg.TLSInsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			//nolint:gosec // InsecureSkipVerify is configurable for development/testing environments
			InsecureSkipVerify: true,
		}
	}

	return transport
}
