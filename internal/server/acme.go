package server

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"

	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/logutil"
)

const (
	acmeStagingURL    = "https://acme-staging-v02.api.letsencrypt.org/directory"
	acmeProductionURL = "https://acme-v02.api.letsencrypt.org/directory"
)

// acmeUser implements the lego User interface.
type acmeUser struct {
	Email        string                 `json:"email"`
	Registration *registration.Resource `json:"registration"`
	key          crypto.PrivateKey
}

func (u *acmeUser) GetEmail() string                        { return u.Email }
func (u *acmeUser) GetRegistration() *registration.Resource { return u.Registration }
func (u *acmeUser) GetPrivateKey() crypto.PrivateKey        { return u.key }

// http01Provider implements lego's challenge.Provider over an in-memory
// token store. The server owns the HTTP listener; lego never binds a port.
type http01Provider struct {
	tokens sync.Map // token -> keyAuthorization
}

func (p *http01Provider) Present(domain, token, keyAuth string) error {
	p.tokens.Store(token, keyAuth)
	return nil
}

func (p *http01Provider) CleanUp(domain, token, keyAuth string) error {
	p.tokens.Delete(token)
	return nil
}

// ACMEManager obtains and serves certificates via lego.
type ACMEManager struct {
	cfg      *config.ACMEConfig
	logger   *slog.Logger
	mu       sync.RWMutex
	cert     *tls.Certificate
	client   *lego.Client
	user     *acmeUser
	provider *http01Provider
}

// NewACMEManager creates an ACME certificate manager.
func NewACMEManager(cfg *config.ACMEConfig, logger *slog.Logger) *ACMEManager {
	return &ACMEManager{
		cfg:      cfg,
		logger:   logutil.NoopIfNil(logger),
		provider: &http01Provider{},
	}
}

// Init loads an existing certificate when possible, otherwise registers
// with the ACME directory and obtains a fresh one over HTTP-01.
func (m *ACMEManager) Init(ctx context.Context) error {
	if m.cfg.Domain == "" {
		return errors.New("ACME domain is required")
	}
	if m.cfg.Email == "" {
		return errors.New("ACME email is required")
	}

	storageDir := m.cfg.StorageDir
	if storageDir == "" {
		storageDir = ".ocmgate/acme"
	}
	if err := os.MkdirAll(storageDir, 0700); err != nil {
		return fmt.Errorf("failed to create ACME storage dir: %w", err)
	}

	// Fast path: a stored certificate means zero network calls.
	if cert, err := m.loadCertificate(storageDir); err == nil {
		m.mu.Lock()
		m.cert = cert
		m.mu.Unlock()
		m.logger.Info("loaded existing ACME certificate", "domain", m.cfg.Domain)
		return nil
	}

	m.logger.Info("no existing certificate, contacting ACME server", "domain", m.cfg.Domain)

	user, err := m.loadOrCreateUser(storageDir)
	if err != nil {
		return fmt.Errorf("failed to load/create ACME account: %w", err)
	}
	m.user = user

	directory := m.cfg.Directory
	if directory == "" {
		if m.cfg.UseStaging {
			directory = acmeStagingURL
		} else {
			directory = acmeProductionURL
		}
	}

	legoCfg := lego.NewConfig(user)
	legoCfg.CADirURL = directory
	legoCfg.Certificate.KeyType = certcrypto.EC256

	client, err := lego.NewClient(legoCfg)
	if err != nil {
		return fmt.Errorf("failed to create ACME client: %w", err)
	}
	m.client = client

	if err := client.Challenge.SetHTTP01Provider(m.provider); err != nil {
		return fmt.Errorf("failed to set HTTP-01 provider: %w", err)
	}

	if user.Registration == nil {
		reg, err := client.Registration.Register(registration.RegisterOptions{
			TermsOfServiceAgreed: true,
		})
		if err != nil {
			return fmt.Errorf("failed to register ACME account: %w", err)
		}
		user.Registration = reg
		if err := m.saveUser(storageDir, user); err != nil {
			m.logger.Warn("failed to save ACME account", "error", err)
		}
	}

	m.logger.Info("obtaining new ACME certificate", "domain", m.cfg.Domain)
	if err := m.obtainCertificate(storageDir); err != nil {
		return fmt.Errorf("failed to obtain certificate: %w", err)
	}
	return nil
}

// GetCertificate serves the current certificate for tls.Config.GetCertificate.
func (m *ACMEManager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cert == nil {
		return nil, errors.New("no certificate available")
	}
	return m.cert, nil
}

// GetTLSConfig returns a TLS config backed by this manager's certificate.
func (m *ACMEManager) GetTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: m.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// ChallengeHandler serves HTTP-01 responses at
// /.well-known/acme-challenge/{token}. Mount it on the plain HTTP listener.
func (m *ACMEManager) ChallengeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/.well-known/acme-challenge/"
		token := strings.TrimPrefix(r.URL.Path, prefix)
		if token == "" || token == r.URL.Path {
			http.NotFound(w, r)
			return
		}
		keyAuth, ok := m.provider.tokens.Load(token)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, keyAuth.(string))
	})
}

func (m *ACMEManager) loadOrCreateUser(storageDir string) (*acmeUser, error) {
	userFile := filepath.Join(storageDir, "account.json")
	keyFile := filepath.Join(storageDir, "account.key")

	if userData, err := os.ReadFile(userFile); err == nil {
		if keyData, err := os.ReadFile(keyFile); err == nil {
			user := &acmeUser{}
			if err := json.Unmarshal(userData, user); err == nil {
				if key, err := certcrypto.ParsePEMPrivateKey(keyData); err == nil {
					user.key = key
					return user, nil
				}
			}
		}
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account key: %w", err)
	}

	return &acmeUser{
		Email: m.cfg.Email,
		key:   privateKey,
	}, nil
}

func (m *ACMEManager) saveUser(storageDir string, user *acmeUser) error {
	userData, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(storageDir, "account.json"), userData, 0600); err != nil {
		return err
	}
	keyPEM := certcrypto.PEMEncode(user.key)
	return os.WriteFile(filepath.Join(storageDir, "account.key"), keyPEM, 0600)
}

func (m *ACMEManager) loadCertificate(storageDir string) (*tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(
		filepath.Join(storageDir, "cert.pem"),
		filepath.Join(storageDir, "key.pem"),
	)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (m *ACMEManager) obtainCertificate(storageDir string) error {
	certificates, err := m.client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{m.cfg.Domain},
		Bundle:  true,
	})
	if err != nil {
		return err
	}

	certFile := filepath.Join(storageDir, "cert.pem")
	keyFile := filepath.Join(storageDir, "key.pem")
	if err := os.WriteFile(certFile, certificates.Certificate, 0644); err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}
	if err := os.WriteFile(keyFile, certificates.PrivateKey, 0600); err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}

	cert, err := tls.X509KeyPair(certificates.Certificate, certificates.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	m.mu.Lock()
	m.cert = &cert
	m.mu.Unlock()

	m.logger.Info("obtained and saved ACME certificate",
		"domain", m.cfg.Domain,
		"cert_file", certFile)
	return nil
}
