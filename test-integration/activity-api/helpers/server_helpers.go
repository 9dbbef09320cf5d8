// Package helpers starts the activity registry for integration tests and
// wraps its HTTP API.
package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	activityapp "github.com/mergington/activity-registry/internal/app"
	"github.com/mergington/activity-registry/internal/config"
	"github.com/mergington/activity-registry/internal/service"
	"github.com/mergington/activity-registry/internal/telemetry"
)

// ServerTestHelper manages the activity registry server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	httpClient *http.Client
	app        *activityapp.ActivityApp
	done       chan error
}

// NewServerTestHelper creates a helper for the given config file.
// An empty configPath runs the server with the built-in catalog.
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StartServer builds the app the same way the serve command does and serves
// it on an ephemeral loopback port
func (s *ServerTestHelper) StartServer() error {
	cfg := config.Default()
	if s.configPath != "" {
		loaded, err := config.LoadConfig(config.WithConfigPath(s.configPath))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	tel, err := telemetry.New(s.ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	app, err := activityapp.NewActivityApp(s.ctx,
		activityapp.WithConfig(cfg),
		activityapp.WithAddress(ln.Addr().String()),
		activityapp.WithTelemetry(tel),
	)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to build app: %w", err)
	}

	s.app = app
	s.baseURL = "http://" + ln.Addr().String()
	s.done = make(chan error, 1)

	go func() {
		if err := app.Serve(ln); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			s.done <- err
		}
		close(s.done)
	}()

	return nil
}

// StopServer gracefully stops the server and waits for it to exit
func (s *ServerTestHelper) StopServer() error {
	if s.app == nil {
		return nil
	}
	if err := s.app.Stop(5 * time.Second); err != nil {
		return err
	}
	return <-s.done
}

// WaitForServerReady waits for the readiness endpoint to report ready
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

// Get performs a GET request against path
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// ListActivities fetches and decodes GET /activities
func (s *ServerTestHelper) ListActivities() service.Catalog {
	resp, err := s.Get("/activities")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()
	gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))

	var catalog service.Catalog
	gomega.Expect(json.NewDecoder(resp.Body).Decode(&catalog)).To(gomega.Succeed())
	return catalog
}

// Signup calls POST /activities/{name}/signup and returns the status and decoded body
func (s *ServerTestHelper) Signup(activity, email string) (int, map[string]string) {
	return s.registration(http.MethodPost, activity, "signup", email)
}

// Unregister calls POST /activities/{name}/unregister and returns the status and decoded body
func (s *ServerTestHelper) Unregister(activity, email string) (int, map[string]string) {
	return s.registration(http.MethodPost, activity, "unregister", email)
}

// DeleteRegistration calls DELETE /activities/{name}/unregister
func (s *ServerTestHelper) DeleteRegistration(activity, email string) (int, map[string]string) {
	return s.registration(http.MethodDelete, activity, "unregister", email)
}

func (s *ServerTestHelper) registration(method, activity, action, email string) (int, map[string]string) {
	target := fmt.Sprintf("%s/activities/%s/%s?email=%s",
		s.baseURL, url.PathEscape(activity), action, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(s.ctx, method, target, nil)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	resp, err := s.httpClient.Do(req)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	body := map[string]string{}
	gomega.Expect(json.Unmarshal(data, &body)).To(gomega.Succeed(), "body: %s", data)
	return resp.StatusCode, body
}

// WriteConfigYAML writes content to config.yaml in dir and returns its path
func WriteConfigYAML(dir, content string) string {
	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	return path
}

// StudentEmail returns a distinct address for the i-th generated student
func StudentEmail(i int) string {
	return fmt.Sprintf("student%02d@mergington.edu", i)
}
