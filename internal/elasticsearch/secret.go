package elasticsearch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"sort"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/openshift/kibana-migrator/internal/constants"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Credentials holds the PEM encoded admin client certificates used to talk
// to a cluster secured with mutual TLS.
type Credentials struct {
	CACert     []byte
	ClientCert []byte
	ClientKey  []byte
}

// LoadCredentials reads the admin certificates from the secret named by key.
// Every key in constants.ExpectedSecretKeys must be present and non empty.
func LoadCredentials(ctx context.Context, c client.Client, key client.ObjectKey) (*Credentials, error) {
	secret := &corev1.Secret{}
	if err := c.Get(ctx, key, secret); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, kverrors.Wrap(err, "expected secret is missing",
				"secret", key.Name,
				"namespace", key.Namespace)
		}
		return nil, kverrors.Wrap(err, "failed to get secret",
			"secret", key.Name,
			"namespace", key.Namespace)
	}

	var missing []string
	for _, k := range constants.ExpectedSecretKeys {
		if len(secret.Data[k]) == 0 {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, kverrors.New("secret fields are either missing or empty",
			"secret", key.Name,
			"namespace", key.Namespace,
			"missing", missing)
	}

	return &Credentials{
		CACert:     secret.Data[constants.AdminCAKey],
		ClientCert: secret.Data[constants.AdminCertKey],
		ClientKey:  secret.Data[constants.AdminKeyKey],
	}, nil
}

// TLSConfig builds a client TLS configuration trusting CACert and presenting
// the client key pair.
func (c *Credentials) TLSConfig(insecureSkipVerify bool) (*tls.Config, error) {
	certPool := x509.NewCertPool()
	if ok := certPool.AppendCertsFromPEM(c.CACert); !ok {
		return nil, kverrors.New("failed to parse CA certificate",
			"key", constants.AdminCAKey)
	}

	certificate, err := tls.X509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, kverrors.Wrap(err, "failed to load client key pair",
			"cert_key", constants.AdminCertKey,
			"key_key", constants.AdminKeyKey)
	}

	return &tls.Config{
		InsecureSkipVerify: insecureSkipVerify,
		RootCAs:            certPool,
		Certificates:       []tls.Certificate{certificate},
		MinVersion:         tls.VersionTLS12,
	}, nil
}
