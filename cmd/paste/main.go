package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tendant/blueprint-share/pkg/blueprints"
	"github.com/tendant/blueprint-share/pkg/blueprints/config"
)

// paste reads an exported blueprint from a file (or stdin) and stores it
// as a new paste, printing the resulting slug. Storage and database are
// picked up from the same environment variables the server uses.
func main() {
	var (
		title      = flag.String("title", "", "paste title (defaults to the file name)")
		exposure   = flag.String("exposure", string(blueprints.ExposurePublic), "public, unlisted or private")
		expiration = flag.String("expiration", "", "empty, never, 1h, 1d or 1w")
		ueVersion  = flag.String("ue-version", "", "engine version the blueprint was exported from")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	content, name, err := readInput(flag.Arg(0))
	if err != nil {
		slog.Error("Failed to read input", "err", err)
		os.Exit(1)
	}
	if *title == "" {
		*title = name
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}
	svc, err := cfg.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	bp, err := svc.CreateBlueprint(context.Background(), blueprints.CreateBlueprintRequest{
		Title:      *title,
		Content:    content,
		Exposure:   blueprints.Exposure(*exposure),
		Expiration: *expiration,
		UEVersion:  *ueVersion,
	})
	if err != nil {
		slog.Error("Failed to create paste", "err", err)
		os.Exit(1)
	}

	fmt.Println(bp.Slug)
}

func readInput(path string) (content, name string, err error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "Untitled Blueprint", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".txt")
	return string(data), base, nil
}
