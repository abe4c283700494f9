package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abyan-ai/askme/pkg/models"
)

func newAskCmd(load configLoader) *cobra.Command {
	var (
		mode      string
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message through the dispatcher and print the reply",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := context.Background()

			store, err := buildLimiter(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.close() }()

			b, err := buildBackend(ctx, cfg)
			if err != nil {
				return err
			}

			req := models.ChatRequest{Mode: mode}
			if len(args) > 0 {
				req.Message = args[0]
			}
			if imagePath != "" {
				req.Image, err = imageDataURL(imagePath)
				if err != nil {
					return err
				}
			}

			d := buildDispatcher(cfg, store, b)
			res := d.Dispatch(ctx, req, func() (string, error) { return "cli", nil })
			if res.Failed() {
				return fmt.Errorf("%s (%s)", res.Error, res.Code)
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(res.Text))
			if res.Usage != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nquota: %d/%d\n", res.Usage.Count, res.Usage.Limit)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "persona mode (see `askme personas`)")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "image file to attach")
	return cmd
}

// imageDataURL reads path into a "data:<mime>;base64,..." string as a browser would send it.
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
