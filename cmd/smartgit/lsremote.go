package main

import (
	"crypto/tls"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"smartgit/smart"
	"smartgit/smarthttp"
	"smartgit/transport"
)

// remoteURL adapts a plain URL string to the remote handle the
// transport factory expects.
type remoteURL string

func (r remoteURL) URL() string { return string(r) }

func newLsRemoteCommand() *cobra.Command {
	var (
		receivePack bool
		insecure    bool
		timeout     time.Duration
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "ls-remote <url>",
		Short: "Dump the raw ref advertisement of a remote",
		Long: `Perform the listing phase of the smart protocol against <url> and
copy the server's advertisement to stdout verbatim, pkt-line framing
included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			}))

			smarthttp.Register(smarthttp.Options{
				TLSConfig: &tls.Config{InsecureSkipVerify: insecure},
				Dial: transport.DialOptions{
					ConnectTimeout: timeout,
					IOTimeout:      timeout,
				},
				Logger: logger,
			})

			url := args[0]
			factory, err := smart.Resolve(url)
			if err != nil {
				return err
			}

			tr, err := factory(remoteURL(url))
			if err != nil {
				return err
			}
			defer tr.Close()

			svc := smart.UploadPackLs
			if receivePack {
				svc = smart.ReceivePackLs
			}

			stream, err := tr.Action(svc)
			if err != nil {
				return err
			}

			_, err = io.Copy(cmd.OutOrStdout(), stream)
			return err
		},
	}

	cmd.Flags().BoolVar(&receivePack, "receive-pack", false, "List refs as a push would (git-receive-pack)")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Connect and I/O timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each exchange to stderr")

	return cmd
}
