package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/skylog-app/skylog/internal/model"
)

func newClient(baseURL, token string) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)
	if token != "" {
		c.SetAuthToken(token)
	}
	return c
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStats(baseURL, token string, w io.Writer) error {
	var st model.UserStats
	resp, err := newClient(baseURL, token).R().
		SetResult(&st).
		Get("/api/stats")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("stats request failed: %s: %s", resp.Status(), resp.String())
	}
	return printJSON(w, st)
}

func runRecompute(baseURL, token string, w io.Writer) error {
	var st model.UserStats
	resp, err := newClient(baseURL, token).R().
		SetResult(&st).
		Post("/api/stats/recompute")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("recompute request failed: %s: %s", resp.Status(), resp.String())
	}
	return printJSON(w, st)
}

func runSyncStatus(baseURL, token string, w io.Writer) error {
	var st model.SyncStatus
	resp, err := newClient(baseURL, token).R().
		SetResult(&st).
		Get("/api/sync/status")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sync status request failed: %s: %s", resp.Status(), resp.String())
	}
	return printJSON(w, st)
}

func runHealth(baseURL string, w io.Writer) error {
	var body map[string]interface{}
	resp, err := newClient(baseURL, "").R().
		SetResult(&body).
		Get("/api/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("service unhealthy: %s: %s", resp.Status(), resp.String())
	}
	return printJSON(w, body)
}
