package constants

import "time"

const (
	// DefaultTimeout is sent as the `timeout` of cluster-state changing
	// requests (put mapping, create index, aliases, blocks).
	DefaultTimeout = 60 * time.Second

	// WaitForAllShardsToBeActive is the wait_for_active_shards value used
	// when creating indices.
	WaitForAllShardsToBeActive = "all"

	// IndexAutoExpandReplicas keeps single node clusters green.
	IndexAutoExpandReplicas = "0-1"

	// IndexTotalFieldsLimit mirrors the saved objects index field limit.
	IndexTotalFieldsLimit = 1500

	DefaultBatchSize = 1000

	DefaultRetryAttempts = 15
	DefaultRetryDelay    = 1 * time.Second
	DefaultMaxRetryDelay = 64 * time.Second

	ComponentName = "kibana-migrator"

	// Keys expected in the secret holding the admin client certificates.
	AdminCAKey   = "admin-ca"
	AdminCertKey = "admin-cert"
	AdminKeyKey  = "admin-key"
)

var ExpectedSecretKeys = []string{
	AdminCAKey,
	AdminCertKey,
	AdminKeyKey,
}
