// Command healthcheck probes the bot server's liveness endpoint so container
// runtimes can restart a wedged process. It exits non-zero when the probe
// fails.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultPort = "10000"

func main() {
	if err := probe(); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

func probe() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	client := &http.Client{Timeout: 8 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz returned status %d", resp.StatusCode)
	}
	return nil
}
