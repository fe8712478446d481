package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/browser"
	"github.com/ziadkadry99/overlay-studio/internal/editor"
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
	"github.com/ziadkadry99/overlay-studio/internal/overlay"
)

var (
	editorSections bool
	editorHeadless bool
	editorURL      string
)

var editorCmd = &cobra.Command{
	Use:   "editor",
	Short: "Open the site in a browser and edit icon overlays",
	Long: `Opens the site in Chrome, asks for the admin secret and then lets you
drag icons (hold Alt to resize). Every change is saved to the config store.
Press Ctrl+C to quit.`,
	RunE: runEditor,
}

func runEditor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if editorURL != "" {
		cfg.Editor.SiteURL = editorURL
	}
	if cmd.Flags().Changed("headless") {
		cfg.Editor.Headless = editorHeadless
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	secretPrompt := promptui.Prompt{
		Label: "Admin secret",
		Mask:  '*',
	}
	secret, err := secretPrompt.Run()
	if err != nil {
		return fmt.Errorf("admin secret: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, err := browser.Open(ctx, browser.Options{
		URL:      cfg.Editor.SiteURL,
		Headless: cfg.Editor.Headless,
		Remote:   cfg.Editor.Remote,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer page.Close()

	redirect, err := resolveURL(cfg.Editor.SiteURL, cfg.Admin.RedirectURL)
	if err != nil {
		return fmt.Errorf("admin.redirect_url: %w", err)
	}

	var notifier overlay.Notifier
	if cfg.Editor.Push {
		notifier = iconconfig.NewSubscriber(cfg.Editor.SiteURL, logger)
	}

	sess := editor.New(iconconfig.NewClient(cfg.Editor.SiteURL), editor.Options{
		Interval: cfg.Editor.ReconcileInterval,
		Admin: admin.Options{
			Secret:      cfg.Admin.Secret,
			RedirectURL: redirect,
			Delay:       cfg.Admin.RedirectDelay,
			OnError: func(err error) {
				fmt.Fprintf(os.Stderr, "%v. Leaving the editor in %s.\n", err, cfg.Admin.RedirectDelay)
			},
		},
		Scanner:   page,
		Navigator: page,
		Notifier:  notifier,
		Mirror:    page.MirrorFunc(),
		Logger:    logger,
	})
	defer sess.Close()

	if err := page.BridgeEvents(sess.Window()); err != nil {
		return err
	}
	sess.Start(ctx)

	if !sess.Unlock(secret) {
		waitForRedirect(ctx, sess)
		return admin.ErrInvalidSecret
	}

	if err := page.OnEdit(func(e browser.Edit) {
		if _, err := sess.Place(e.ID, e.Left, e.Top, e.Width, e.Height); err != nil {
			logger.Warn("edit rejected", zap.String("icon", e.ID), zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if editorSections {
		if _, err := sess.ToggleSections(ctx); err != nil {
			logger.Warn("section debugger", zap.Error(err))
		}
	}

	go func() {
		for se := range sess.Errors() {
			fmt.Fprintf(os.Stderr, "Not saved: %v. Move the icon again to retry.\n", &se)
		}
	}()

	fmt.Fprintf(os.Stderr, "Editing %s: %d icons on the page. Press Ctrl+C to quit.\n",
		cfg.Editor.SiteURL, len(sess.Current()))
	if sess.Stale() {
		fmt.Fprintln(os.Stderr, "Warning: the config store is unreachable; showing the last known layout.")
	}

	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "\nClosing editor...")
	return nil
}

// waitForRedirect lets the gate's redirect fire before the session closes.
func waitForRedirect(ctx context.Context, sess *editor.Session) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for sess.RedirectPending() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	editorCmd.Flags().BoolVar(&editorSections, "sections", false, "Show section boundaries")
	editorCmd.Flags().BoolVar(&editorHeadless, "headless", false, "Run the browser without a window (overrides editor.headless)")
	editorCmd.Flags().StringVar(&editorURL, "url", "", "Site URL to edit (overrides editor.site_url)")
	rootCmd.AddCommand(editorCmd)
}
