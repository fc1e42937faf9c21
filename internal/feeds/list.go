package feeds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadList reads the feed list at path: one URL per line, blank lines and
// lines starting with '#' ignored. A missing file yields an empty list.
func LoadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open feed list: %w", err)
	}
	defer f.Close()

	return parseList(f)
}

// EnsureList makes sure a feed list exists at path, downloading it from
// remoteURL when the local file is missing. An empty remoteURL is a no-op.
func EnsureList(ctx context.Context, client *http.Client, path, remoteURL string) error {
	if _, err := os.Stat(path); err == nil || remoteURL == "" {
		return nil
	}

	log.Info().Str("url", remoteURL).Str("path", path).Msg("Local feed list not found. Downloading from remote source")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download feed list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download feed list: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read feed list: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for feed list: %w", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("failed to save feed list %s: %w", path, err)
	}

	log.Debug().Int("bytes", len(body)).Str("path", path).Msg("Downloaded and saved feed list")
	return nil
}

func parseList(r io.Reader) ([]string, error) {
	urls := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed list: %w", err)
	}
	return urls, nil
}
