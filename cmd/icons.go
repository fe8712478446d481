package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/overlay-studio/internal/config"
	"github.com/ziadkadry99/overlay-studio/internal/editor"
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
	"github.com/ziadkadry99/overlay-studio/internal/progress"
)

var (
	iconsURL        string
	rmDeleteFile    bool
	uploadLeft      float64
	uploadTop       float64
	uploadWidth     float64
	uploadHeight    float64
	uploadStagger   float64
	uploadRequestTO time.Duration
)

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "List, upload and remove icons on a running studio server",
}

var iconsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured icons",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := iconsClient()
		if err != nil {
			return err
		}

		doc, err := client.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching icon config: %w", err)
		}
		if len(doc.Icons) == 0 {
			fmt.Println("No icons configured. Upload one with `studio icons upload`.")
			return nil
		}

		printIcons(os.Stdout, cfg, doc)
		return nil
	},
}

var iconsRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Remove icons from the config store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := iconsClient()
		if err != nil {
			return err
		}

		for _, id := range args {
			res, err := client.Delete(cmd.Context(), id, rmDeleteFile)
			if err != nil {
				return fmt.Errorf("removing %s: %w", id, err)
			}
			fmt.Printf("Removed %s (%d icons left)\n", id, res.RemainingIcons)
		}
		return nil
	},
}

var iconsUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload icon files and place them on the page",
	Long: `Uploads each file to the asset store and creates a visible icon for it.
Icons are placed at --left/--top, each one --stagger pixels further right.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := iconsClient()
		if err != nil {
			return err
		}

		reporter := progress.NewReporter("Uploading icons")
		reporter.Start(len(args))
		defer reporter.Finish()

		var failed []string
		for i, path := range args {
			reporter.Update(i, filepath.Base(path))
			id, err := uploadIcon(cmd, client, path, uploadLeft+float64(i)*uploadStagger)
			if err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", path, err))
				continue
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "uploaded %s as %s\n", path, id)
			}
			reporter.Update(i+1, filepath.Base(path))
		}

		if len(failed) > 0 {
			for _, f := range failed {
				fmt.Fprintln(os.Stderr, f)
			}
			return fmt.Errorf("%d of %d uploads failed", len(failed), len(args))
		}
		return nil
	},
}

func uploadIcon(cmd *cobra.Command, client *iconconfig.Client, path string, left float64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	res, err := client.Upload(cmd.Context(), filepath.Base(path), f, "")
	if err != nil {
		return "", err
	}

	id := editor.NewIconID(res.FileName)
	settings := &iconconfig.Settings{
		Position: &iconconfig.Position{
			Left: iconconfig.Number(left),
			Top:  iconconfig.Number(uploadTop),
		},
		Appearance: &iconconfig.Appearance{Opacity: iconconfig.Number(1)},
	}
	if uploadWidth > 0 || uploadHeight > 0 {
		settings.Size = &iconconfig.Size{}
		if uploadWidth > 0 {
			settings.Size.Width = iconconfig.Number(uploadWidth)
		}
		if uploadHeight > 0 {
			settings.Size.Height = iconconfig.Number(uploadHeight)
		}
	}

	_, err = client.Save(cmd.Context(), iconconfig.IconConfig{
		ID:         id,
		FileName:   res.FileName,
		PublicPath: res.FilePath,
		Settings:   settings,
	})
	return id, err
}

// iconsClient loads the config and builds a client for the server named by
// --url or editor.site_url.
func iconsClient() (*config.Config, *iconconfig.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	base := cfg.Editor.SiteURL
	if iconsURL != "" {
		base = iconsURL
	}
	client := iconconfig.NewClient(base)
	if uploadRequestTO > 0 {
		client.SetTimeout(uploadRequestTO)
	}
	return cfg, client, nil
}

func printIcons(out io.Writer, cfg *config.Config, doc *iconconfig.Document) {
	ids := doc.IDs()
	sort.Strings(ids)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSIZE\tLEFT\tTOP\tVISIBLE")
	for _, id := range ids {
		icon := doc.Icons[id]
		var left, top string
		if icon.Settings != nil && icon.Settings.Position != nil {
			left = icon.Settings.Position.Left.CSS()
			top = icon.Settings.Position.Top.CSS()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			id, orDash(icon.FileName), fileSize(cfg, icon.FileName), orDash(left), orDash(top), yesNo(icon.Visible()))
	}
	w.Flush()

	if doc.LastUpdated != nil {
		fmt.Fprintf(out, "\n%d icons, last updated %s\n", len(ids), humanize.Time(*doc.LastUpdated))
	}
}

// fileSize reports the size of a local icon file when the site directory
// is on this machine.
func fileSize(cfg *config.Config, name string) string {
	if name == "" {
		return "-"
	}
	info, err := os.Stat(filepath.Join(cfg.SiteDir, cfg.Icons.Dir, name))
	if err != nil {
		return "-"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	iconsCmd.PersistentFlags().StringVar(&iconsURL, "url", "", "Studio server URL (overrides editor.site_url)")
	iconsCmd.PersistentFlags().DurationVar(&uploadRequestTO, "timeout", 0, "Per-request timeout (0 keeps the client default)")

	iconsRmCmd.Flags().BoolVar(&rmDeleteFile, "delete-file", false, "Also delete the icon file")

	iconsUploadCmd.Flags().Float64Var(&uploadLeft, "left", 20, "Left offset in pixels")
	iconsUploadCmd.Flags().Float64Var(&uploadTop, "top", 20, "Top offset in pixels")
	iconsUploadCmd.Flags().Float64Var(&uploadWidth, "width", 0, "Width in pixels (0 keeps the image size)")
	iconsUploadCmd.Flags().Float64Var(&uploadHeight, "height", 0, "Height in pixels (0 keeps the image size)")
	iconsUploadCmd.Flags().Float64Var(&uploadStagger, "stagger", 60, "Horizontal gap between uploaded icons")

	iconsCmd.AddCommand(iconsLsCmd, iconsRmCmd, iconsUploadCmd)
	rootCmd.AddCommand(iconsCmd)
}
