package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/orchestrator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type options struct {
	apiURL       string
	token        string
	meta         orchestrator.Metadata
	videoSeconds map[string]int
	maxAttempts  int
	concurrency  int
	timeout      time.Duration
	assumeYes    bool
}

func main() {
	logger.InitService("uploads-cli")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "upload [flags] FILE...",
		Short: "Upload media files and commit them as one record",
		Long: "Uploads every FILE straight to object storage with presigned URLs, then commits\n" +
			"them as a single record. Objects of a failed attempt are removed before exiting.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.apiURL = viper.GetString("api")
			opts.token = viper.GetString("token")
			if opts.apiURL == "" {
				return errors.New("--api or UPLOADS_API_URL is required")
			}
			if opts.token == "" {
				return errors.New("--token or UPLOADS_TOKEN is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err := run(ctx, opts, args, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.String("api", "", "base URL of the uploads API (env UPLOADS_API_URL)")
	f.String("token", "", "bearer token of the uploading user (env UPLOADS_TOKEN)")
	f.StringVar(&opts.meta.Role, "role", "Tenant", "role of the uploader: Tenant or Landlord")
	f.StringVar(&opts.meta.Address, "address", "", "address of the property")
	f.StringVar(&opts.meta.SecurityDepositAmount, "deposit", "0", "security deposit amount in minor units")
	f.StringVar(&opts.meta.SecurityDepositCurrency, "currency", "EUR", "ISO 4217 currency of the deposit")
	f.StringVar(&opts.meta.OtherEmail, "other-email", "", "email of the other party")
	f.StringToIntVar(&opts.videoSeconds, "video-seconds", map[string]int{}, "duration of each video, e.g. tour.mp4=95")
	f.IntVar(&opts.maxAttempts, "max-attempts", orchestrator.DefaultMaxAttempts, "attempts allowed before giving up")
	f.IntVar(&opts.concurrency, "concurrency", 4, "files transferred in parallel")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "timeout of a single file transfer")
	f.BoolVarP(&opts.assumeYes, "yes", "y", false, "retry failed attempts without asking")

	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("other-email")

	viper.SetEnvPrefix("uploads")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = viper.BindEnv("api", "UPLOADS_API_URL")
	_ = viper.BindEnv("token", "UPLOADS_TOKEN")
	_ = viper.BindPFlag("api", f.Lookup("api"))
	_ = viper.BindPFlag("token", f.Lookup("token"))

	return cmd
}

func run(ctx context.Context, opts *options, paths []string, in io.Reader, out io.Writer) error {
	files, err := loadFiles(paths, opts.videoSeconds)
	if err != nil {
		return err
	}

	sub := orchestrator.NewSubmission(files, opts.meta, opts.maxAttempts)
	credits, videoSeconds := sub.Cost()
	fmt.Fprintf(out, "📦 %d files, %d seconds of video, %d credits\n", len(files), videoSeconds, credits)

	client := orchestrator.NewClient(opts.apiURL, opts.token, 30*time.Second)
	orch := orchestrator.New(
		client,
		orchestrator.NewHTTPTransferer(opts.timeout),
		orchestrator.WithConcurrency(opts.concurrency),
		orchestrator.WithProgress(progressPrinter(out)),
	)

	answers := bufio.NewScanner(in)
	for {
		err := orch.Run(ctx, sub)
		fmt.Fprintln(out)
		if err == nil {
			fmt.Fprintf(out, "✅ record %s created\n", sub.RecordID())
			return nil
		}

		switch {
		case sub.Status() == orchestrator.StatusExhausted || errors.Is(err, orchestrator.ErrAttemptsExhausted):
			return fmt.Errorf("upload failed after %d attempts, please contact support: %w", sub.Attempt(), err)
		case !sub.CanRetry():
			return err
		}

		fmt.Fprintf(out, "⚠️  attempt %d/%d failed: %v\n", sub.Attempt(), sub.MaxAttempts, err)
		if !opts.assumeYes && !confirm(answers, out, "Upload again? [y/N] ") {
			return err
		}
	}
}

func progressPrinter(out io.Writer) func(*orchestrator.Submission) {
	var mu sync.Mutex
	last := -1
	return func(s *orchestrator.Submission) {
		pct := int(s.AggregateProgress())
		mu.Lock()
		defer mu.Unlock()
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(out, "\r⏫ %-11s %3d%%", s.Status(), pct)
	}
}

func confirm(answers *bufio.Scanner, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	if !answers.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answers.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
