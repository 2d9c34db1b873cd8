// Command ping queries the local /healthz endpoint and exits non-zero when the
// service is down. It is the container HEALTHCHECK:
//
//	HEALTHCHECK CMD ["/ping"]
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort    = 3000
	healthEndpoint = "/healthz"
	requestTimeout = 2 * time.Second

	codeRequestFailed = 2
	codeBadStatus     = 3
	codeDecodeError   = 4
	codeUnhealthy     = 5
)

type healthResp struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func main() {
	port := detectPort(os.Getenv("APP_PORT"))
	code, msg := checkHealth(&http.Client{Timeout: requestTimeout}, fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint))
	log.Print(msg)
	os.Exit(code)
}

// checkHealth returns the exit code and a one-line summary. A degraded report
// (cache unreachable) still counts as healthy.
func checkHealth(client *http.Client, url string) (int, string) {
	resp, err := client.Get(url)
	if err != nil {
		return codeRequestFailed, fmt.Sprintf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return codeDecodeError, fmt.Sprintf("decode error: %v", err)
	}

	switch {
	case resp.StatusCode != http.StatusOK:
		return codeBadStatus, fmt.Sprintf("unexpected HTTP status %d: %v", resp.StatusCode, h.Checks)
	case h.Status == "ok", h.Status == "degraded":
		return 0, fmt.Sprintf("service %s: %v", h.Status, h.Checks)
	default:
		return codeUnhealthy, fmt.Sprintf("service reported %q: %v", h.Status, h.Checks)
	}
}

// detectPort parses APP_PORT and falls back to defaultPort.
func detectPort(v string) int {
	if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
		return p
	}
	return defaultPort
}
