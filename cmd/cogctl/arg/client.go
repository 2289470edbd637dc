package arg

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

func getJSON(path string, out interface{}) error {
	resp, err := httpClient.Get(daemonAddr + path)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", daemonAddr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("daemon returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(path string, out interface{}) error {
	resp, err := httpClient.Post(daemonAddr+path, "application/json", nil)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", daemonAddr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("daemon returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
