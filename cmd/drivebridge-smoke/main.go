// main.go — a minimal manual smoke test: launch the driver, open a page,
// navigate it, print the title, close. Grounded on
// cmd/dev-console/main.go's flag-parsing shape, trimmed to the single
// launch -> initialize -> close round trip this module's core supports.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/corvid-labs/drivebridge"
	"github.com/corvid-labs/drivebridge/internal/objects"
)

func main() {
	url := flag.String("url", "data:text/html,<title>drivebridge smoke</title><h1>ok</h1>", "URL to navigate to")
	headless := flag.Bool("headless", true, "launch the browser headless")
	driverDir := flag.String("driver-dir", "", "project-local driver directory override")
	timeout := flag.Duration("shutdown-timeout", 5*time.Second, "graceful driver shutdown timeout")
	flag.Parse()

	if err := run(*url, *headless, *driverDir, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "drivebridge-smoke:", err)
		os.Exit(1)
	}
}

func run(url string, headless bool, driverDir string, shutdownTimeout time.Duration) error {
	session, err := drivebridge.Run(drivebridge.RunOptions{
		ProjectDriverDir: driverDir,
		ShutdownTimeout:  shutdownTimeout,
		ClientVersion:    "smoke",
		LogWriter:        os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("launch: %w", err)
	}
	defer session.Close()

	if session.Playwright.Chromium == nil {
		return fmt.Errorf("driver did not report a chromium BrowserType")
	}

	registry := session.Registry()

	browser, err := session.Playwright.Chromium.Launch(objects.LaunchOptions{Headless: headless}, registry)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage(objects.NewContextOptions{}, registry)
	if err != nil {
		return fmt.Errorf("new page: %w", err)
	}

	if err := page.Goto(url); err != nil {
		return fmt.Errorf("goto: %w", err)
	}

	title, err := page.Title()
	if err != nil {
		return fmt.Errorf("title: %w", err)
	}

	fmt.Println("page title:", title)
	return nil
}
