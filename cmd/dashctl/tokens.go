package main

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"resume-dashboard/internal/apiclient"
)

// tokenFile keeps credentials in memory and mirrors every change to disk, so
// a refresh performed by the client survives the process.
type tokenFile struct {
	path string
	apiclient.TokenStore
}

func openTokenFile(path string) (*tokenFile, error) {
	var tokens apiclient.TokenPair
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, &tokens); err != nil {
			return nil, err
		}
	}
	return &tokenFile{path: path, TokenStore: apiclient.NewMemoryTokenStore(tokens)}, nil
}

func (t *tokenFile) empty() bool {
	tokens, err := t.Tokens(context.Background())
	return err != nil || tokens.AccessToken == ""
}

func (t *tokenFile) SaveTokens(ctx context.Context, tokens apiclient.TokenPair) error {
	if err := t.TokenStore.SaveTokens(ctx, tokens); err != nil {
		return err
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o600)
}

func (t *tokenFile) ClearTokens(ctx context.Context) error {
	if err := t.TokenStore.ClearTokens(ctx); err != nil {
		return err
	}
	if err := os.Remove(t.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
