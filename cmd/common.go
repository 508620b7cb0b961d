package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consensus-bridge/internal/ai"
	"consensus-bridge/internal/config"
	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/merge"
	"consensus-bridge/internal/redisclient"
	"consensus-bridge/internal/storage"
)

func newForumClient(cfg config.Config) *forum.Client {
	return forum.New(forum.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     config.Duration(cfg.API.Timeout, forum.DefaultTimeout),
		Production:  cfg.App.Production(),
		DevFallback: cfg.API.DevFallback,
		DevProbe:    cfg.API.DevProbe,
		ProbeBases:  cfg.API.ProbeBases,
	})
}

// newWorkflow builds the workflow; summary drafting is enabled when OpenAI is configured.
func newWorkflow(cfg config.Config) *merge.Workflow {
	wf := merge.New(newForumClient(cfg))
	if cfg.OpenAI.APIKey == "" {
		return wf
	}
	s, err := ai.NewOpenAI(ai.Config{
		APIKey:   cfg.OpenAI.APIKey,
		Model:    cfg.OpenAI.Model,
		BaseURL:  cfg.OpenAI.BaseURL,
		Language: cfg.OpenAI.Language,
	})
	if err != nil {
		slog.Warn("openai disabled", "err", err)
		return wf
	}
	return wf.WithSummarizer(s)
}

// openTokenStore returns the configured token store and a closer for its resources.
func openTokenStore(cfg config.Config) (storage.TokenStore, func(), error) {
	switch cfg.Auth.Store {
	case "file":
		return storage.NewFileTokenStore(cfg.Auth.TokenFile), func() {}, nil
	case "redis":
		rdb := redisclient.New(cfg.Redis)
		ttl := config.Duration(cfg.Auth.TokenTTL, 30*24*time.Hour)
		return storage.NewRedisTokenStore(rdb, cfg.Auth.RedisKey, ttl), func() { rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown auth.store %q (want file or redis)", cfg.Auth.Store)
}

// credentials resolves the acting session: --token/--cookie first, then the stored login.
func credentials(ctx context.Context, cfg config.Config) (forum.Credentials, error) {
	creds := forum.Credentials{Token: flagToken, Cookie: flagCook}
	if creds.Token != "" {
		return creds, nil
	}
	store, closeStore, err := openTokenStore(cfg)
	if err != nil {
		return creds, err
	}
	defer closeStore()
	tok, err := store.Load(ctx)
	if err != nil {
		return creds, fmt.Errorf("load token: %w", err)
	}
	creds.Token = tok
	return creds, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// actionError turns a workflow error into the single line shown to the user;
// the underlying error goes to the log.
func actionError(action string, err error) error {
	slog.Debug("action failed", "action", action, "err", err)
	return errors.New(merge.Message(action, err))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
