// Command gallery is the command line front end for the video gallery: it
// lists and inspects the directory, uploads new videos and plays them back.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumiforge/vidgallery/internal/config"
	"github.com/lumiforge/vidgallery/internal/logger"
	"github.com/lumiforge/vidgallery/internal/metrics"
	"github.com/lumiforge/vidgallery/internal/playback"
	"github.com/lumiforge/vidgallery/internal/store"
	"github.com/lumiforge/vidgallery/internal/transfer"
	"github.com/lumiforge/vidgallery/internal/uploads"
	"github.com/lumiforge/vidgallery/internal/videos"
)

func main() {
	log := logger.New(slog.LevelWarn)
	slog.SetDefault(log)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	dir := videos.NewClient(cfg.API.BaseURL, cfg.API.AssetBaseURL, cfg.API.Timeout)

	switch os.Args[1] {
	case "list":
		err = runList(ctx, dir, os.Args[2:])
	case "get":
		err = runGet(ctx, dir, os.Args[2:])
	case "upload":
		err = runUpload(ctx, cfg, dir, os.Args[2:])
	case "delete":
		err = runDelete(ctx, dir, os.Args[2:])
	case "play":
		err = runPlay(ctx, dir, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: gallery <command> [flags]

commands:
  list    list videos in the gallery
  get     show one video
  upload  upload one or more video files
  delete  delete a video by id
  play    play a video by id`)
}

func runList(ctx context.Context, dir *videos.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 12, "page size")
	search := fs.String("search", "", "title filter")
	sortBy := fs.String("sort", string(videos.SortUploadedAt), "sort field: uploadTime, title, duration")
	order := fs.String("order", string(videos.SortDesc), "sort order: asc, desc")
	fs.Parse(args)

	result, err := dir.List(ctx, videos.Filter{
		Search:    *search,
		SortBy:    videos.SortField(*sortBy),
		SortOrder: videos.SortDirection(*order),
		Page:      *page,
		PageSize:  *limit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPLOADED\tSTATUS")
	for _, v := range result.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Title, v.UploadedAt.Format(time.RFC3339), v.Status)
	}
	w.Flush()
	fmt.Printf("page %d of %d videos", result.Page, result.Total)
	if result.HasMore {
		fmt.Print(" (more available)")
	}
	fmt.Println()
	return nil
}

func runGet(ctx context.Context, dir *videos.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: gallery get <id>")
	}
	v, err := dir.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("id:        %s\n", v.ID)
	fmt.Printf("title:     %s\n", v.Title)
	fmt.Printf("uploaded:  %s\n", v.UploadedAt.Format(time.RFC3339))
	fmt.Printf("manifest:  %s\n", v.ManifestURL)
	fmt.Printf("thumbnail: %s\n", v.ThumbnailURL)
	return nil
}

func runUpload(ctx context.Context, cfg *config.Config, dir *videos.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	fs.Parse(args)
	files := fs.Args()
	if len(files) == 0 {
		return fmt.Errorf("usage: gallery upload <file> [file...]")
	}

	st := store.New()
	tc := transfer.NewClient(cfg.API.BaseURL, cfg.API.Timeout, cfg.API.TransferTimeout)
	m := metrics.NewUploads(prometheus.NewRegistry())
	c := uploads.NewCoordinator(tc, dir, st, uploads.PollPolicy{
		Interval:    cfg.Upload.PollInterval,
		MaxAttempts: cfg.Upload.PollMaxAttempts,
	}, m, slog.Default())

	sub := st.Subscribe()
	for _, path := range files {
		src, err := transfer.FileSource(path)
		if err != nil {
			return err
		}
		c.Submit(ctx, src)
	}

	for !allTerminal(st) {
		<-sub
		for _, rec := range st.Uploads() {
			fmt.Printf("%-30s %-12s %5.1f%%", rec.FileName, rec.Status, rec.ProgressPercent)
			if rec.ErrorMessage != "" {
				fmt.Printf("  %s", rec.ErrorMessage)
			}
			fmt.Println()
		}
	}
	c.Wait()

	failed := 0
	for _, rec := range st.Uploads() {
		if rec.Status == store.UploadFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(files))
	}
	fmt.Printf("uploaded %d video(s)\n", len(files))
	return nil
}

func allTerminal(st *store.Store) bool {
	for _, rec := range st.Uploads() {
		if !rec.Status.Terminal() {
			return false
		}
	}
	return true
}

func runDelete(ctx context.Context, dir *videos.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: gallery delete <id>")
	}
	if err := dir.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func runPlay(ctx context.Context, dir *videos.Client, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	player := fs.String("player", "", "player binary (default ffplay)")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: gallery play [-player bin] <id>")
	}
	id := fs.Arg(0)

	v, err := dir.Get(ctx, id)
	if err != nil {
		return err
	}
	manifest := v.ManifestURL
	if manifest == "" {
		manifest = dir.ManifestURL(v.ID)
	}

	engine := playback.NewExecEngine(*player, slog.Default())
	if err := engine.Initialize(ctx, v.Title, manifest); err != nil {
		return err
	}
	defer engine.Dispose()

	fmt.Printf("playing %s, press ctrl-c to stop\n", v.ID)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}
