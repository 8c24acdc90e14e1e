package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/openshift/kibana-migrator/internal/constants"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
	"gopkg.in/yaml.v2"
)

const (
	MigrationUpdateMappings = "updateMappings"
	MigrationReindex        = "reindex"

	defaultCluster        = "elasticsearch"
	defaultMetricsAddress = ":8080"
	defaultTokenFile      = "/var/run/secrets/kubernetes.io/serviceaccount/token"
)

// Config is the migrator configuration file.
type Config struct {
	Cluster        string        `yaml:"cluster"`
	URL            string        `yaml:"url"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	APIKey         string        `yaml:"apiKey"`
	TokenFile      string        `yaml:"tokenFile"`
	Secret         *SecretRef    `yaml:"secret"`
	Insecure       bool          `yaml:"insecureSkipVerify"`
	MetricsAddress string        `yaml:"metricsAddress"`
	Retry          RetryConfig   `yaml:"retry"`
	BatchSize      int           `yaml:"batchSize"`
	WaitTimeout    time.Duration `yaml:"waitForTaskTimeout"`
	Migrations     []Migration   `yaml:"migrations"`
}

// SecretRef names the secret holding the admin-ca, admin-cert and
// admin-key used for mutual TLS.
type SecretRef struct {
	Namespace string `yaml:"namespace"`
	Name      string `yaml:"name"`
}

type RetryConfig struct {
	Attempts     int           `yaml:"attempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// Migration is a single step of the plan. Mappings and Query hold JSON
// documents.
type Migration struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Index       string `yaml:"index"`
	SourceIndex string `yaml:"sourceIndex"`
	TargetIndex string `yaml:"targetIndex"`
	Alias       string `yaml:"alias"`
	Mappings    string `yaml:"mappings"`
	Query       string `yaml:"query"`
	Script      string `yaml:"script"`
	BatchSize   int    `yaml:"batchSize"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, kverrors.Wrap(err, "failed to read configuration",
			"path", path)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, kverrors.Wrap(err, "invalid configuration",
			"path", path)
	}
	return cfg, nil
}

func Parse(b []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(b, cfg); err != nil {
		return nil, kverrors.Wrap(err, "failed to parse configuration")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Cluster == "" {
		c.Cluster = defaultCluster
	}
	if c.MetricsAddress == "" {
		c.MetricsAddress = defaultMetricsAddress
	}
	if c.TokenFile == "" && c.Username == "" && c.APIKey == "" && c.Secret == nil {
		c.TokenFile = defaultTokenFile
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = constants.DefaultRetryAttempts
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = constants.DefaultRetryDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = constants.DefaultMaxRetryDelay
	}
	if c.BatchSize == 0 {
		c.BatchSize = constants.DefaultBatchSize
	}
	if c.WaitTimeout == 0 {
		c.WaitTimeout = constants.DefaultTimeout
	}
	for i := range c.Migrations {
		if c.Migrations[i].BatchSize == 0 {
			c.Migrations[i].BatchSize = c.BatchSize
		}
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return kverrors.New("url is required")
	}
	if c.Retry.Attempts < 1 {
		return kverrors.New("retry attempts must be positive",
			"attempts", c.Retry.Attempts)
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return kverrors.New("retry max delay must not be lower than the initial delay",
			"initial_delay", c.Retry.InitialDelay.String(),
			"max_delay", c.Retry.MaxDelay.String())
	}
	if (c.Username == "") != (c.Password == "") {
		return kverrors.New("username and password must be set together",
			"username", c.Username)
	}
	if c.Secret != nil && (c.Secret.Namespace == "" || c.Secret.Name == "") {
		return kverrors.New("secret requires a namespace and a name",
			"namespace", c.Secret.Namespace,
			"name", c.Secret.Name)
	}
	if len(c.Migrations) == 0 {
		return kverrors.New("no migrations configured")
	}
	for _, m := range c.Migrations {
		if err := m.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m Migration) validate() error {
	switch m.Type {
	case MigrationUpdateMappings:
		if m.Index == "" {
			return kverrors.New("index is required",
				"migration", m.Name,
				"type", m.Type)
		}
	case MigrationReindex:
		if m.SourceIndex == "" || m.TargetIndex == "" {
			return kverrors.New("sourceIndex and targetIndex are required",
				"migration", m.Name,
				"type", m.Type)
		}
		if m.SourceIndex == m.TargetIndex {
			return kverrors.New("sourceIndex and targetIndex must differ",
				"migration", m.Name,
				"index", m.SourceIndex)
		}
	default:
		return kverrors.New("unknown migration type",
			"migration", m.Name,
			"type", m.Type)
	}

	if _, err := m.IndexMapping(); err != nil {
		return err
	}
	if m.Query != "" && !json.Valid([]byte(m.Query)) {
		return kverrors.New("query is not valid JSON",
			"migration", m.Name)
	}
	return nil
}

// IndexMapping decodes Mappings. No mappings decode to an empty mapping.
func (m Migration) IndexMapping() (estypes.IndexMapping, error) {
	mapping := estypes.IndexMapping{}
	if m.Mappings == "" {
		return mapping, nil
	}
	if err := json.Unmarshal([]byte(m.Mappings), &mapping); err != nil {
		return mapping, kverrors.Wrap(err, "failed to decode mappings",
			"migration", m.Name)
	}
	return mapping, nil
}

func (m Migration) QueryJSON() json.RawMessage {
	if m.Query == "" {
		return nil
	}
	return json.RawMessage(m.Query)
}
