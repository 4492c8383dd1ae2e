package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"truthguard/internal/config"
)

const starterConfig = `[api]
base_url = %s
timeout = 2m

[log]
level = info
; file = %s

[history]
enabled = true
; db_path = %s

[slack]
bot_token =
channel_id =
`

// runInstall writes a starter ~/.truthguard/config.ini. An existing file is
// left alone.
func runInstall() error {
	dir := config.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	target := filepath.Join(dir, "config.ini")
	if _, err := os.Stat(target); err == nil {
		fmt.Printf("%s already exists, leaving it untouched.\n", target)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	content := fmt.Sprintf(starterConfig, config.DefaultBaseURL,
		filepath.Join(dir, "truthguard.log"), filepath.Join(dir, "truthguard.db"))
	if err := os.WriteFile(target, []byte(content), 0600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	fmt.Printf("Wrote %s\n", target)
	fmt.Printf("Add a Slack bot_token and channel_id there to enable -share.\n")
	return nil
}
