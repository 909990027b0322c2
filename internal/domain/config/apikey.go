package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const DefaultKeyFile = ".slipstream_api_key"

// ResolveAPIKey finds the webhook API key: the configured key, then the
// configured key file (which must exist), then DefaultKeyFile in dir, which is
// created with a random key when missing or empty.
func ResolveAPIKey(srv ServerConfig, dir string) (string, error) {
	if srv.APIKey != "" {
		return srv.APIKey, nil
	}
	log.Info().Msg("no SLIPSTREAM_API_KEY")

	if srv.APIKeyFile != "" {
		log.Info().Str("path", srv.APIKeyFile).Msg("reading api key file")
		data, err := os.ReadFile(srv.APIKeyFile)
		if err != nil {
			return "", fmt.Errorf("read api key file: %w", err)
		}
		return string(data), nil
	}

	path := filepath.Join(dir, DefaultKeyFile)
	log.Info().Str("path", path).Msg("no api key configured, trying key file")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(data)) != "" {
		return string(data), nil
	}

	log.Info().Str("path", path).Msg("no key found in file, generating key")
	key, err := generateKey(rand.Reader)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(key); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", err
	}
	return key, nil
}

func generateKey(r io.Reader) (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
