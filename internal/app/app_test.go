package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mergington/activity-registry/internal/config"
	"github.com/mergington/activity-registry/internal/service/mocks"
)

// createTestApp builds an ActivityApp around a mocked service without going
// through NewActivityApp
func createTestApp(t *testing.T, ctrl *gomock.Controller, addr string) (*ActivityApp, *mocks.MockActivityService) {
	t.Helper()

	mockSvc := mocks.NewMockActivityService(ctrl)
	cfg := &config.Config{RegistryName: "test-registry"}

	appCfg := &activityAppConfig{
		config:         cfg,
		address:        addr,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	server, err := buildHTTPServer(context.Background(), appCfg, mockSvc)
	require.NoError(t, err)

	appCtx, cancel := context.WithCancel(context.Background())
	return &ActivityApp{
		config:     cfg,
		components: &AppComponents{ActivityService: mockSvc},
		httpServer: server,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, mockSvc
}

// serveInBackground serves app on an ephemeral loopback port and returns the base URL
func serveInBackground(t *testing.T, app *ActivityApp) (string, <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Serve(ln)
	}()

	return "http://" + ln.Addr().String(), errChan
}

func waitForResult(t *testing.T, errChan <-chan error) error {
	t.Helper()

	select {
	case err := <-errChan:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not return after Stop()")
		return nil
	}
}

func TestActivityApp_Serve(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app, mockSvc := createTestApp(t, ctrl, "127.0.0.1:0")
	mockSvc.EXPECT().CheckReadiness(gomock.Any()).Return(nil)

	baseURL, errChan := serveInBackground(t, app)

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))

	resp, err = http.Get(baseURL + "/readiness")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(5*time.Second))
	require.NoError(t, waitForResult(t, errChan))
}

func TestActivityApp_Start(t *testing.T) {
	t.Parallel()

	t.Run("serves on the configured address", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, "127.0.0.1:0")

		errChan := make(chan error, 1)
		go func() {
			errChan <- app.Start()
		}()

		// Give the listener a moment before shutting down
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, app.Stop(5*time.Second))
		require.NoError(t, waitForResult(t, errChan))
	})

	t.Run("fails when the address is taken", func(t *testing.T) {
		t.Parallel()

		taken, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer taken.Close()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, taken.Addr().String())

		err = app.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to listen on")
	})
}

func TestActivityApp_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, "127.0.0.1:0")

		ctx, cancel := context.WithCancel(context.Background())
		errChan := make(chan error, 1)
		go func() {
			errChan <- app.Run(ctx, 5*time.Second)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		require.NoError(t, waitForResult(t, errChan))
		assert.ErrorIs(t, app.ctx.Err(), context.Canceled, "app context should be cancelled on stop")
	})

	t.Run("returns the listen error", func(t *testing.T) {
		t.Parallel()

		taken, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer taken.Close()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, taken.Addr().String())

		err = app.Run(context.Background(), 5*time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to listen on")
	})
}

func TestActivityApp_Stop(t *testing.T) {
	t.Parallel()

	t.Run("stop without starting first", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, "127.0.0.1:0")

		require.NoError(t, app.Stop(5*time.Second))
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, "127.0.0.1:0")
		_, errChan := serveInBackground(t, app)

		require.NoError(t, app.Stop(5*time.Second))
		require.NoError(t, waitForResult(t, errChan))
		require.NoError(t, app.Stop(5*time.Second))
	})

	t.Run("nil cancel func", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, "127.0.0.1:0")
		app.cancelFunc = nil

		require.NoError(t, app.Stop(5*time.Second))
	})

	t.Run("serving after stop reports no error", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		app, _ := createTestApp(t, ctrl, "127.0.0.1:0")
		require.NoError(t, app.Stop(5*time.Second))

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		err = app.Serve(ln)
		assert.False(t, errors.Is(err, http.ErrServerClosed))
		assert.NoError(t, err)
	})
}

func TestActivityApp_Getters(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app, _ := createTestApp(t, ctrl, "127.0.0.1:0")

	require.NotNil(t, app.GetConfig())
	assert.Equal(t, "test-registry", app.GetConfig().RegistryName)
	require.NotNil(t, app.GetHTTPServer())
	assert.Equal(t, "127.0.0.1:0", app.GetHTTPServer().Addr)
}
