package syncer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"habitd/internal/models"
	"habitd/internal/providers"
	"habitd/internal/structures"
)

// RemoteClientInterface is the thin contract against the remote ledger.
// Upsert and Delete are idempotent server-side; List returns raw rows so
// per-row decode failures stay isolated from the pass.
type RemoteClientInterface interface {
	List(ctx context.Context, owner string) ([]*models.RemoteTask, error)
	Upsert(ctx context.Context, owner string, rec *models.HabitRecord) error
	Delete(ctx context.Context, owner, id string) error
}

type RemoteClient struct {
	baseURL    string
	credential string
	client     *http.Client
	logger     providers.Logger
}

func NewRemoteClient(conf *structures.Config, logger providers.Logger) RemoteClientInterface {
	credential := conf.Identity.Credential
	if credential == "" {
		credential = "local-dev-token"
	}
	return &RemoteClient{
		baseURL:    strings.TrimRight(conf.Sync.RemoteURL, "/"),
		credential: credential,
		client:     &http.Client{Timeout: conf.Sync.RequestTimeout * time.Second},
		logger:     logger,
	}
}

func (rc *RemoteClient) newRequest(ctx context.Context, method, path, owner string, body *strings.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, rc.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, rc.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-User-Email", owner)
	req.Header.Set("Authorization", "Bearer "+rc.credential)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (rc *RemoteClient) List(ctx context.Context, owner string) ([]*models.RemoteTask, error) {
	req, err := rc.newRequest(ctx, http.MethodGet, "/api/tasks", owner, nil)
	if err != nil {
		return nil, err
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote list returned status %d", resp.StatusCode)
	}

	var rows []*models.RemoteTask
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("remote list payload undecodable: %w", err)
	}
	return rows, nil
}

func (rc *RemoteClient) Upsert(ctx context.Context, owner string, rec *models.HabitRecord) error {
	payload, err := json.Marshal(models.NewPushTask(rec))
	if err != nil {
		return err
	}

	req, err := rc.newRequest(ctx, http.MethodPost, "/api/tasks", owner, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote upsert returned status %d", resp.StatusCode)
	}
	return nil
}

func (rc *RemoteClient) Delete(ctx context.Context, owner, id string) error {
	req, err := rc.newRequest(ctx, http.MethodDelete, "/api/tasks/"+id, owner, nil)
	if err != nil {
		return err
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Deleting a nonexistent id is not an error.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote delete returned status %d", resp.StatusCode)
	}
	return nil
}
