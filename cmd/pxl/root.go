package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/lgulliver/pxl/internal/album"
	"github.com/lgulliver/pxl/internal/derive"
	"github.com/lgulliver/pxl/internal/session"
	"github.com/lgulliver/pxl/internal/storage"
	"github.com/lgulliver/pxl/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the services shared by every subcommand, built once the flags
// are parsed
type app struct {
	cfg      *config.Config
	store    storage.BlobStorage
	sessions *session.Manager
	albums   *album.Service
}

// storeAnnotation marks the commands that operate on the bucket
const storeAnnotation = "pxl/store"

func usesStore() map[string]string {
	return map[string]string{storeAnnotation: "true"}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	cmd := &cobra.Command{
		Use:   "pxl",
		Short: "Publish photo albums to an object store",
		Long: `pxl keeps a catalog of photo albums in an S3-compatible bucket.

Every command takes an advisory lock on the bucket, works on the shared
catalog document and releases the lock when it is done. Use --force to
break a lock left behind by an interrupted run.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			// completion and man page commands run without a store
			if _, ok := cmd.Annotations[storeAnnotation]; !ok {
				return nil
			}
			return a.setup(configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file layered over the environment")

	cmd.AddCommand(newUploadCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newStatusCmd(a))

	return cmd
}

func (a *app) setup(configPath string) error {
	cfg := config.LoadFromEnv()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}
	cfg.Logging.SetupLogging()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.NewStorageFactory(&cfg.Storage).CreateStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	tiers := derive.StandardTiers(cfg.Images.DisplayWidth, cfg.Images.ThumbnailWidth)
	deriver := derive.New(tiers, cfg.Images.JPEGQuality)

	a.cfg = cfg
	a.store = store
	a.sessions = session.NewManager(store)
	a.albums = album.NewService(a.sessions, store, deriver)

	log.Debug().
		Str("storage", cfg.Storage.Type).
		Str("bucket", cfg.Storage.Bucket).
		Msg("pxl initialized")
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseDate reads a --date flag value. Values without an offset are UTC.
func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD, \"YYYY-MM-DD HH:MM:SS\" or RFC 3339", value)
}
