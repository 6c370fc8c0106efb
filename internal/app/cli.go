package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/client"
	"github.com/intega/platform/internal/config"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/mutation"
	"github.com/intega/platform/internal/present"
	"github.com/intega/platform/internal/query"
)

// apiEnv is what a client command works with.
type apiEnv struct {
	client      *client.Client
	out         *present.Printer
	sessionPath string
	saved       models.SessionTokens
}

func openClient(cmd *cobra.Command, flags *globalFlags) (*apiEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	baseURL := cfg.APIBaseURL
	if flags.apiURL != "" {
		baseURL = flags.apiURL
	}

	path, err := sessionPath(cfg)
	if err != nil {
		return nil, err
	}
	tokens, err := loadSession(path)
	if err != nil {
		return nil, err
	}

	notices := present.New(cmd.ErrOrStderr())
	notifier := mutation.NotifierFunc(func(n mutation.Notification) {
		// Failures are rendered by the command that triggered them.
		if n.Level != mutation.LevelError {
			notices.Print(notices.Notification(n))
		}
	})

	c, err := client.New(baseURL, client.WithSession(tokens), client.WithNotifier(notifier))
	if err != nil {
		return nil, err
	}
	env := &apiEnv{client: c, out: present.New(cmd.OutOrStdout()), sessionPath: path, saved: tokens}

	if tokens.RefreshToken != "" && !tokens.AccessExpiresAt.IsZero() && time.Now().After(tokens.AccessExpiresAt) {
		// A failed refresh leaves the expired session; the next request reports 401.
		_, _ = c.RefreshSession(cmd.Context())
	}
	return env, nil
}

// close persists a changed session and stops background revalidation.
func (e *apiEnv) close() error {
	e.client.Close()
	current := e.client.Session()
	if current == e.saved {
		return nil
	}
	if current.AccessToken == "" {
		if err := os.Remove(e.sessionPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}
	return saveSession(e.sessionPath, current)
}

// withClient runs fn against a client and persists the session afterwards.
func withClient(flags *globalFlags, fn func(ctx context.Context, env *apiEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := openClient(cmd, flags)
		if err != nil {
			return err
		}
		runErr := fn(cmd.Context(), env, args)
		return errors.Join(runErr, env.close())
	}
}

// fail renders err with a retry hint and marks it as reported.
func (e *apiEnv) fail(err error, retry string) error {
	e.out.Print(e.out.ErrorBanner(err, retry))
	return fmt.Errorf("%w: %w", ErrReported, err)
}

func show[T any](env *apiEnv, res query.Result[T], retry string, render func(T) string) error {
	env.out.Print(present.Result(env.out, res, retry, render))
	if res.Err != nil {
		return fmt.Errorf("%w: %w", ErrReported, res.Err)
	}
	return nil
}

func sessionPath(cfg config.Config) (string, error) {
	if cfg.SessionFile != "" {
		return cfg.SessionFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "intega", "session.json"), nil
}

func loadSession(path string) (models.SessionTokens, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.SessionTokens{}, nil
	}
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("read session: %w", err)
	}
	var tokens models.SessionTokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return models.SessionTokens{}, fmt.Errorf("parse session %s: %w", path, err)
	}
	return tokens, nil
}

func saveSession(path string, tokens models.SessionTokens) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
