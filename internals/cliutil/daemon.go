package cliutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/docgate/docgate/internals/timeouts"
	"github.com/docgate/docgate/sdk"
)

// EnsureDaemonRunning makes sure a server with localVersion answers at the
// client's base url, starting or replacing one when needed.
func EnsureDaemonRunning(client *sdk.Client, localVersion string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Ping)
	defer cancel()

	version, err := client.Identify(ctx)
	if err == nil {
		if strings.TrimSpace(version) == strings.TrimSpace(localVersion) {
			return nil
		}
		return replaceDaemon(client, version)
	}
	if errors.Is(err, sdk.ErrNotDocgate) {
		return fmt.Errorf("%s is served by something other than docgate", client.BaseURL())
	}

	if err := StartDaemon(); err != nil {
		return err
	}

	return waitForDaemon(client)
}

func StartDaemon() error {
	path, err := findServeBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(path, "serve")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func waitForDaemon(client *sdk.Client) error {
	if err := client.WaitForStart(context.Background(), timeouts.SecondDefault); err != nil {
		return fmt.Errorf("failed to reach docgate server: %w", err)
	}
	return nil
}

func replaceDaemon(client *sdk.Client, remoteVersion string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
	defer cancel()

	if err := client.Shutdown(ctx); err != nil {
		if errors.Is(err, sdk.ErrShutdownUnsupported) {
			return fmt.Errorf("docgate %s is running; please stop it and retry", strings.TrimSpace(remoteVersion))
		}
		return fmt.Errorf("failed to shutdown docgate %s: %w", strings.TrimSpace(remoteVersion), err)
	}

	if err := waitForDaemonStop(client); err != nil {
		return fmt.Errorf("docgate %s did not stop: %w", strings.TrimSpace(remoteVersion), err)
	}

	if err := StartDaemon(); err != nil {
		return err
	}

	return waitForDaemon(client)
}

func waitForDaemonStop(client *sdk.Client) error {
	for i := 0; i < 8; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Ping)
		_, err := client.Version(ctx)
		cancel()
		if err != nil {
			return nil
		}
		time.Sleep(time.Duration(i+1) * 150 * time.Millisecond)
	}

	return errors.New("failed to stop docgate server")
}

func findServeBinary() (string, error) {
	executable, err := os.Executable()
	if err == nil && executable != "" {
		return executable, nil
	}

	path, err := exec.LookPath("docgate")
	if err != nil {
		return "", fmt.Errorf("docgate not found in PATH")
	}
	return path, nil
}
