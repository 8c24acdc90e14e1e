package elasticsearch

import (
	"crypto/tls"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ViaQ/logerr/v2/kverrors"
	elasticsearch8 "github.com/elastic/go-elasticsearch/v8"
)

// Config describes how to reach a cluster.
type Config struct {
	URL      string
	Username string
	Password string
	APIKey   string
	// TokenFile, when set, is read on every client construction and sent as
	// a bearer token.
	TokenFile          string
	Credentials        *Credentials
	InsecureSkipVerify bool
}

// NewESClient builds a go-elasticsearch client with transport level retries
// disabled. Retrying is decided by the caller of each action.
func NewESClient(cfg Config) (*elasticsearch8.Client, error) {
	transport, err := getESTransport(cfg)
	if err != nil {
		return nil, err
	}

	esCfg := elasticsearch8.Config{
		Addresses:    []string{normalizeURL(cfg.URL)},
		Transport:    transport,
		DisableRetry: true,
	}

	switch {
	case cfg.APIKey != "":
		esCfg.APIKey = cfg.APIKey
	case cfg.Username != "" && cfg.Password != "":
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	case cfg.TokenFile != "":
		token, err := readSAToken(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		header := http.Header{}
		header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		esCfg.Header = header
	}

	es, err := elasticsearch8.NewClient(esCfg)
	if err != nil {
		return nil, kverrors.Wrap(err, "failed to create the elasticsearch client",
			"url", esCfg.Addresses[0])
	}
	return es, nil
}

func normalizeURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

func getESTransport(cfg Config) (*http.Transport, error) {
	httpTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.Credentials != nil {
		tlsConfig, err := cfg.Credentials.TLSConfig(cfg.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		httpTransport.TLSClientConfig = tlsConfig
	} else if cfg.InsecureSkipVerify {
		httpTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return httpTransport, nil
}

// readSAToken reads the token every time so a rotated token is picked up.
func readSAToken(tokenFile string) (string, error) {
	token, err := ioutil.ReadFile(tokenFile)
	if err != nil {
		return "", kverrors.Wrap(err, "unable to read auth token from file",
			"file", tokenFile)
	}

	trimmed := strings.TrimSpace(string(token))
	if trimmed == "" {
		return "", kverrors.New("auth token file is empty",
			"file", tokenFile)
	}
	return trimmed, nil
}
