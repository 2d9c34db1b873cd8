//go:build e2e

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"skillmart/internal/config"
)

const (
	registerEndpoint = "/api/user/register"
	loginEndpoint    = "/api/user/login"
	sendOTPEndpoint  = "/api/user/send-reset-otp"
	meEndpoint       = "/api/user/me"
	searchEndpoint   = "/api/user/search"
	likedEndpoint    = "/api/user/liked"

	msgFailedToCloseResponseBody = "failed to close response body: %v"

	e2eDBName      = "skillmart_e2e"
	maxStderrBytes = 64 * 1024
)

// baseServerEnv is what every e2e server process starts with; per-test
// values are layered on top.
var baseServerEnv = map[string]string{
	"MONGO_DB_NAME":           e2eDBName,
	"JWT_SECRET":              "test-e2e-secret-with-32-plus-characters-for-hs256-validation",
	"LOG_LEVEL":               "warn",
	"BCRYPT_COST":             "4",
	"REQUEST_LOGGING_ENABLED": "false",
}

// cappedBuffer keeps the first limit bytes of server stderr and silently
// discards the rest so a chatty server never blocks on a full pipe.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.limit - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) dump(t *testing.T, why string) {
	if c.buf.Len() > 0 {
		t.Logf("server stderr %s (%d bytes):\n%s", why, c.buf.Len(), c.buf.String())
	}
}

// TestEnvironment is a running server backed by throwaway containers.
type TestEnvironment struct {
	BaseURL string
	Client  *http.Client
}

// envOptions tunes SetupTestEnvironmentWithOptions.
type envOptions struct {
	Env   map[string]string
	Redis bool
}

// startContainer runs req and returns host:port for port, terminating the
// container when the test ends.
func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	t.Logf("starting %s container", req.Image)

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)

	return net.JoinHostPort(host, mapped.Port())
}

func startMongo(ctx context.Context, t *testing.T) string {
	addr := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "mongo:8.0",
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": "root",
			"MONGO_INITDB_ROOT_PASSWORD": "example",
			"MONGO_INITDB_DATABASE":      e2eDBName,
		},
		WaitingFor: wait.ForExec([]string{"mongosh", "--eval", "db.adminCommand('ping')"}).
			WithStartupTimeout(60 * time.Second),
	}, "27017")
	return "mongodb://root:example@" + addr + "/"
}

func startRedis(ctx context.Context, t *testing.T) string {
	return startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")
}

// serverCommand prefers a prebuilt binary from BIN_SERVER and falls back to
// go run from the module root.
func serverCommand(ctx context.Context) *exec.Cmd {
	if bin := os.Getenv("BIN_SERVER"); bin != "" {
		return exec.CommandContext(ctx, bin)
	}
	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/server")
	cmd.Dir = "../"
	return cmd
}

// startServer launches the API with env and registers teardown of the whole
// process group. It returns the base URL and the captured stderr.
func startServer(ctx context.Context, t *testing.T, env map[string]string) (string, *cappedBuffer) {
	t.Helper()

	port, err := randomPort()
	require.NoError(t, err)

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = devNull.Close() })

	srvCtx, cancel := context.WithCancel(ctx)
	cmd := serverCommand(srvCtx)
	// own process group so go run's child dies with it
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	vars := make([]string, 0, len(env)+1)
	vars = append(vars, "APP_PORT="+port)
	for k, v := range env {
		vars = append(vars, k+"="+v)
	}
	cmd.Env = append(vars, os.Environ()...)
	cmd.Stdout = devNull
	stderr := &cappedBuffer{limit: maxStderrBytes}
	cmd.Stderr = stderr

	t.Logf("launching server on :%s", port)
	if err := cmd.Start(); err != nil {
		cancel()
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		cancel()
		if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		}

		done := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
		stderr.dump(t, "at teardown")
	})

	return "http://localhost:" + port, stderr
}

// waitHealthy polls /healthz until it answers 200 or timeout elapses.
func waitHealthy(baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	url := baseURL + "/healthz"

	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(200 * time.Millisecond) {
		resp, err := client.Get(url)
		if err != nil {
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
	}
	return fmt.Errorf("server never became healthy on %s", url)
}

// httpJSON performs an HTTP request with JSON payload and returns the response
func httpJSON(method, url string, payload any, headers map[string]string) (*http.Response, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	return client.Do(req)
}

// SetupTestEnvironment starts Mongo and the server with default settings.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	return SetupTestEnvironmentWithOptions(t, envOptions{})
}

// SetupTestEnvironmentWithEnv starts Mongo and the server with extra env vars.
func SetupTestEnvironmentWithEnv(t *testing.T, extraEnv map[string]string) *TestEnvironment {
	return SetupTestEnvironmentWithOptions(t, envOptions{Env: extraEnv})
}

// SetupTestEnvironmentWithOptions starts the containers opts asks for, then
// the server pointed at them.
func SetupTestEnvironmentWithOptions(t *testing.T, opts envOptions) *TestEnvironment {
	t.Helper()
	config.ResetCache()
	t.Cleanup(config.ResetCache)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	env := make(map[string]string, len(baseServerEnv)+len(opts.Env)+2)
	for k, v := range baseServerEnv {
		env[k] = v
	}
	env["MONGO_URI"] = startMongo(ctx, t)
	if opts.Redis {
		env["REDIS_ADDR"] = startRedis(ctx, t)
	}
	for k, v := range opts.Env {
		env[k] = v
	}

	baseURL, stderr := startServer(ctx, t, env)
	if err := waitHealthy(baseURL, 30*time.Second); err != nil {
		stderr.dump(t, "on health check failure")
		require.NoError(t, err)
	}

	return &TestEnvironment{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// randomPort asks the kernel for an unused TCP port.
func randomPort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}

// account is a registered and logged-in user.
type account struct {
	ID    string
	Name  string
	Email string
	Token string
}

func (a account) auth() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.Token}
}

func register(t *testing.T, baseURL, name, email, password string) {
	t.Helper()
	status, err := doJSON(t, http.MethodPost, baseURL+registerEndpoint, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)
}

func loginExpect(t *testing.T, baseURL, email, password string, want int) {
	t.Helper()
	status, err := doJSON(t, http.MethodPost, baseURL+loginEndpoint, map[string]string{
		"email":    email,
		"password": password,
	}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, want, status)
}

// signUp registers name and logs in, returning the session.
func signUp(t *testing.T, baseURL, name, password string) account {
	t.Helper()
	email := name + "@example.com"
	register(t, baseURL, name, email, password)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"_id"`
		} `json:"user"`
	}
	status, err := doJSON(t, http.MethodPost, baseURL+loginEndpoint, map[string]string{
		"email":    email,
		"password": password,
	}, nil, &resp)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, resp.Token)

	return account{ID: resp.User.ID, Name: name, Email: email, Token: resp.Token}
}

// doJSON sends body and, when out is non-nil, decodes the response into it.
func doJSON(t *testing.T, method, url string, body any, headers map[string]string, out any) (int, error) {
	t.Helper()

	resp, err := httpJSON(method, url, body, headers)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf(msgFailedToCloseResponseBody, err)
		}
	}()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
