package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lgulliver/pxl/internal/album"
	"github.com/lgulliver/pxl/internal/session"
	"github.com/spf13/cobra"
)

func newUploadCmd(a *app) *cobra.Command {
	var name string
	var date string
	var appendTo bool
	var force bool

	cmd := &cobra.Command{
		Use:   "upload DIR",
		Short: "Upload a directory of JPEGs as an album",
		Long: `Upload every JPEG directly inside DIR as a new album.

Each photo is rotated upright according to its EXIF orientation and published
as the original plus display and thumbnail widths narrower than the source.
Files that cannot be decoded are skipped and reported.`,
		Example: `  # Album named after the directory
  pxl upload ./photos/summer-trip

  # Explicit name and date, adding to an existing album
  pxl upload ./more --name "Summer Trip" --date 2024-07-01 --append`,
		Args:        cobra.ExactArgs(1),
		Annotations: usesStore(),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := album.UploadRequest{Dir: args[0], Name: name, Append: appendTo, BreakLock: force}
			if date != "" {
				created, err := parseDate(date)
				if err != nil {
					return err
				}
				req.Created = created
			}

			report, err := a.albums.Upload(cmd.Context(), req)
			if err != nil {
				return hint(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %d images to %q (%d total)\n", len(report.Uploaded), report.Album.DisplayName, len(report.Album.Images))
			for _, skipped := range report.Skipped {
				fmt.Fprintf(out, "Skipped %s: %v\n", skipped.Path, skipped.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Album name (defaults to the title-cased directory name)")
	cmd.Flags().StringVar(&date, "date", "", "Album date (defaults to now)")
	cmd.Flags().BoolVar(&appendTo, "append", false, "Add the images to the album if it already exists")
	cmd.Flags().BoolVar(&force, "force", false, "Break an existing lock")

	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var name string
	var date string
	var merge bool
	var force bool

	cmd := &cobra.Command{
		Use:   "edit NAME",
		Short: "Rename an album or change its date",
		Example: `  pxl edit "Summer Trip" --name "Summer 2024"
  pxl edit "Day Two" --name "Summer 2024" --merge`,
		Args:        cobra.ExactArgs(1),
		Annotations: usesStore(),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := album.EditRequest{Name: args[0], NewName: name, Merge: merge, BreakLock: force}
			if date != "" {
				created, err := parseDate(date)
				if err != nil {
					return err
				}
				req.Created = &created
			}

			edited, err := a.albums.Edit(cmd.Context(), req)
			if err != nil {
				if errors.Is(err, album.ErrAlbumExists) {
					return fmt.Errorf("%w (use --merge to combine the albums)", err)
				}
				return hint(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Album %q: %d images, %s\n", edited.DisplayName, len(edited.Images), edited.CreatedHuman())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New album name")
	cmd.Flags().StringVar(&date, "date", "", "New album date")
	cmd.Flags().BoolVar(&merge, "merge", false, "Merge into the album already using the new name")
	cmd.Flags().BoolVar(&force, "force", false, "Break an existing lock")

	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "delete NAME",
		Short:       "Delete an album and all of its images",
		Args:        cobra.ExactArgs(1),
		Annotations: usesStore(),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.albums.Delete(cmd.Context(), album.DeleteRequest{Name: args[0], BreakLock: force})
			if err != nil {
				return hint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q and %d images\n", deleted.DisplayName, len(deleted.Images))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Break an existing lock")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "list",
		Short:       "List the albums in the catalog",
		Args:        cobra.NoArgs,
		Annotations: usesStore(),
		RunE: func(cmd *cobra.Command, args []string) error {
			albums, err := a.albums.List(cmd.Context(), force)
			if err != nil {
				return hint(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATH\tDATE\tIMAGES")
			for _, al := range albums {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", al.DisplayName, al.NavName, al.CreatedHuman(), len(al.Images))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Break an existing lock")

	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show the bucket and who holds the lock",
		Args:        cobra.NoArgs,
		Annotations: usesStore(),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch a.cfg.Storage.Type {
			case "s3":
				fmt.Fprintf(out, "Bucket: %s\n", a.cfg.Storage.PublicURL())
			default:
				fmt.Fprintf(out, "Bucket: %s (local)\n", a.cfg.Storage.LocalPath)
			}

			holder, err := a.sessions.Holder(cmd.Context())
			if err != nil {
				return err
			}
			if holder == nil {
				fmt.Fprintln(out, "Lock: free")
				return nil
			}
			if holder.User == "" {
				fmt.Fprintln(out, "Lock: held (unreadable lock record)")
				return nil
			}
			fmt.Fprintf(out, "Lock: held by %s@%s for %s\n", holder.User, holder.Hostname, holder.Age(time.Now()))
			return nil
		},
	}
}

// hint adds the override flag to lock errors
func hint(err error) error {
	if errors.Is(err, session.ErrLockHeld) {
		return fmt.Errorf("%w (use --force to break the lock)", err)
	}
	return err
}
