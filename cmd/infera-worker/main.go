// infera-worker is a worker simulator: it registers itself with the tracker,
// heartbeats on an interval, polls for its next assigned job, and reports a
// simulated run through the job lifecycle. No real model is loaded.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/InferaIO/infera/internal/config"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "infera-worker",
		Short: "Simulated GPU worker that serves jobs from an infera tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cfg.Worker)
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")

	if err := root.Execute(); err != nil {
		log.Fatalf("infera-worker: %v", err)
	}
}

type client struct {
	base string
	http *http.Client
}

type peerResp struct {
	ID string `json:"id"`
}

type jobResp struct {
	ID         string `json:"id"`
	ModelName  string `json:"model_name"`
	PayloadURL string `json:"payload_url"`
}

func runWorker(ctx context.Context, cfg config.WorkerConfig) error {
	c := &client{base: cfg.TrackerURL, http: &http.Client{Timeout: cfg.PollWait + 10*time.Second}}

	peerID, err := c.register(ctx, cfg)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	log.Printf("registered with tracker, peer id %s", peerID)

	go c.heartbeatLoop(ctx, peerID, cfg)

	poll := time.NewTicker(cfg.PollInterval)
	defer poll.Stop()
	for {
		job, err := c.nextJob(ctx, peerID, cfg.PollWait)
		if err != nil {
			log.Printf("next-job: %v", err)
		} else if job != nil {
			log.Printf("picked up job %s (model %s)", job.ID, job.ModelName)
			c.runJob(ctx, job, cfg.JobDuration)
		}
		select {
		case <-poll.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *client) register(ctx context.Context, cfg config.WorkerConfig) (string, error) {
	models := make([]map[string]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		entry := map[string]string{"name": m.Name}
		if m.Version != "" {
			entry["version"] = m.Version
		}
		if m.Framework != "" {
			entry["framework"] = m.Framework
		}
		models = append(models, entry)
	}
	payload := map[string]any{
		"name":                cfg.Name,
		"host":                cfg.Host,
		"port":                cfg.Port,
		"has_gpu":             cfg.HasGPU,
		"gpu_memory_total_mb": cfg.GPUMemoryTotalMB,
		"gpu_memory_free_mb":  cfg.GPUMemoryFreeMB,
		"models":              models,
	}
	var peer peerResp
	if err := c.post(ctx, "/api/v1/peers/register", payload, &peer); err != nil {
		return "", err
	}
	return peer.ID, nil
}

func (c *client) heartbeatLoop(ctx context.Context, peerID string, cfg config.WorkerConfig) {
	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			payload := map[string]any{
				"gpu_memory_free_mb":   cfg.GPUMemoryFreeMB,
				"current_load_percent": 10,
			}
			if err := c.post(ctx, "/api/v1/peers/"+peerID+"/heartbeat", payload, nil); err != nil {
				log.Printf("heartbeat: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) nextJob(ctx context.Context, peerID string, wait time.Duration) (*jobResp, error) {
	url := fmt.Sprintf("%s/api/v1/workers/%s/next-job?wait=%s", c.base, peerID, wait)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var job jobResp
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// runJob walks the assigned job through RUNNING and then a terminal state,
// sleeping in place of real inference.
func (c *client) runJob(ctx context.Context, job *jobResp, duration time.Duration) {
	if err := c.reportStatus(ctx, job.ID, "RUNNING", "", ""); err != nil {
		log.Printf("report running for %s: %v", job.ID, err)
		return
	}
	select {
	case <-time.After(duration):
	case <-ctx.Done():
		return
	}
	resultURL := fmt.Sprintf("sim://results/%s", job.ID)
	if err := c.reportStatus(ctx, job.ID, "COMPLETED", resultURL, ""); err != nil {
		log.Printf("report completed for %s: %v", job.ID, err)
		return
	}
	log.Printf("completed job %s -> %s", job.ID, resultURL)
}

func (c *client) reportStatus(ctx context.Context, jobID, status, resultURL, errorMessage string) error {
	payload := map[string]any{
		"status":        status,
		"result_url":    resultURL,
		"error_message": errorMessage,
	}
	return c.post(ctx, "/api/v1/jobs/"+jobID+"/status", payload, nil)
}

func (c *client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
