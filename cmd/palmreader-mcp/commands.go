package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
	"github.com/ironsheep/palmreader-mcp/internal/imaging"
	"github.com/ironsheep/palmreader-mcp/internal/palm"
)

func serveAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.logger.Info("palmreader-mcp starting", "version", Version, "commit", GitCommit, "built", BuildTime)
	return rt.srv.Run(ctx)
}

// writeYAML prints v to the app's writer.
func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

type extractOutput struct {
	Path     string                  `yaml:"path"`
	Backend  string                  `yaml:"backend"`
	Features []detection.LineFeature `yaml:"features"`
	Summary  detection.Summary       `yaml:"summary"`
}

func extractAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("extract requires an image path")
	}

	features, err := palm.ExtractFeaturesFromFile(path)
	if err != nil {
		return err
	}
	return writeYAML(c.App.Writer, extractOutput{
		Path:     path,
		Backend:  palm.Backend,
		Features: features,
		Summary:  detection.Summarize(features),
	})
}

func readAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("read requires an image path")
	}

	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.srv.Reading(c.Context, path, c.String("language"), c.Bool("speak"))
	if err != nil {
		return err
	}
	return writeYAML(c.App.Writer, res)
}

type askOutput struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

func askAction(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("ask requires a question")
	}

	reading := c.String("reading")
	if file := c.Path("reading-file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read reading file: %w", err)
		}
		reading = string(data)
	}

	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	o, err := rt.requireOracle()
	if err != nil {
		return err
	}
	answer, err := o.Ask(c.Context, reading, question)
	if err != nil {
		return err
	}
	return writeYAML(c.App.Writer, askOutput{Question: question, Answer: answer})
}

type scanEntry struct {
	Name       string            `yaml:"name"`
	Width      int               `yaml:"width"`
	Height     int               `yaml:"height"`
	Downscaled bool              `yaml:"downscaled"`
	Summary    detection.Summary `yaml:"summary"`
	Error      string            `yaml:"error,omitempty"`
}

type scanOutput struct {
	Folder string      `yaml:"folder"`
	Images []scanEntry `yaml:"images"`
}

func scanAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	folder := c.Args().First()
	if folder == "" {
		folder = rt.cfg.Folder
	}

	images, err := imaging.ListFolder(c.Context, folder, rt.logger)
	if err != nil {
		return err
	}

	out := scanOutput{Folder: folder, Images: make([]scanEntry, 0, len(images))}
	for _, img := range images {
		entry := scanEntry{
			Name:       img.Name,
			Width:      img.Width,
			Height:     img.Height,
			Downscaled: img.Downscaled,
		}
		features, err := palm.ExtractFeatures(img.Image)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Summary = detection.Summarize(features)
		}
		out.Images = append(out.Images, entry)
	}
	return writeYAML(c.App.Writer, out)
}

func versionAction(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "palmreader-mcp %s\n", Version)
	fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(c.App.Writer, "  Backend:    %s\n", palm.Backend)
	return nil
}

var errCacheDisabled = errors.New("reading cache is disabled (set cache.path or PALMREADER_CACHE)")

type cacheStatsOutput struct {
	Path     string `yaml:"path"`
	Readings int    `yaml:"readings"`
}

type cacheRemovedOutput struct {
	Image   string `yaml:"image,omitempty"`
	Digest  string `yaml:"digest,omitempty"`
	Removed int64  `yaml:"removed"`
}

// openCache sets up the runtime and fails when no cache is configured.
func openCache(c *cli.Context) (*runtime, error) {
	rt, err := setup(c)
	if err != nil {
		return nil, err
	}
	if rt.db == nil {
		_ = rt.Close()
		return nil, errCacheDisabled
	}
	return rt, nil
}

func cacheStatsAction(c *cli.Context) error {
	rt, err := openCache(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.db.Count(c.Context)
	if err != nil {
		return err
	}
	return writeYAML(c.App.Writer, cacheStatsOutput{Path: rt.db.Path(), Readings: n})
}

func cachePruneAction(c *cli.Context) error {
	rt, err := openCache(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	age := c.Duration("older-than")
	if age < 0 {
		return fmt.Errorf("--older-than must not be negative, got %s", age)
	}
	removed, err := rt.db.Prune(c.Context, time.Now().Add(-age))
	if err != nil {
		return err
	}
	rt.logger.Info("pruned reading cache", "older_than", age, "removed", removed)
	return writeYAML(c.App.Writer, cacheRemovedOutput{Removed: removed})
}

func cacheForgetAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("forget requires an image path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	rt, err := openCache(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	digest := imaging.Digest(data)
	removed, err := rt.db.DeleteReadings(c.Context, digest)
	if err != nil {
		return err
	}
	return writeYAML(c.App.Writer, cacheRemovedOutput{Image: path, Digest: digest, Removed: removed})
}
