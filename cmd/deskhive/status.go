// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/config"
)

// ServiceStatus holds the probe results for a running service.
type ServiceStatus struct {
	Addr  string `json:"addr"`
	Live  bool   `json:"live"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running auth service",
		Long:  `Probe the liveness and readiness endpoints of a running auth service.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().String("observability.addr", "127.0.0.1:9100", "metrics/health HTTP address")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	status := probeService(cfg.Observability.Addr)

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if status.Error != "" {
		cmd.Printf("auth service at %s: unreachable (%s)\n", status.Addr, status.Error)
		return nil
	}
	cmd.Printf("auth service at %s: live=%t ready=%t\n", status.Addr, status.Live, status.Ready)
	return nil
}

func probeService(addr string) ServiceStatus {
	status := ServiceStatus{Addr: addr}
	client := &http.Client{Timeout: 2 * time.Second}

	live, err := probe(client, fmt.Sprintf("http://%s/healthz/liveness", addr))
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Live = live

	ready, err := probe(client, fmt.Sprintf("http://%s/healthz/readiness", addr))
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Ready = ready

	return status
}

func probe(client *http.Client, url string) (bool, error) {
	resp, err := client.Get(url)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK, nil
}
