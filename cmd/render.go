// SPDX-License-Identifier: MIT
package cmd

import (
	"audioviz/internal/audio"
	"audioviz/internal/log"
	"audioviz/internal/render"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCommand(opts *options) *cobra.Command {
	var out string

	renderCmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render an audio file offline and save the view as PNG",
		Long: "Pushes the whole file through the analyser as fast as it decodes, " +
			"then paints the selected mode once and writes it as a PNG image.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			input := args[0]
			if out == "" {
				out = strings.TrimSuffix(input, filepath.Ext(input)) + "_" + cfg.Display.Mode + ".png"
			}

			source, err := audio.NewFileSource(input)
			if err != nil {
				return err
			}

			surface := render.NewSurface()
			engine, err := newEngine(cfg, source, surface, nil)
			if err != nil {
				return err
			}
			// A non-realtime file source delivers everything inside Start.
			if err := engine.Start(); err != nil {
				return err
			}
			defer engine.Close()

			engine.Render()
			if err := render.SavePNG(out, surface); err != nil {
				return err
			}

			stats := engine.Stats()
			log.Debugf("Render: %d frames, %d transforms, %d waterfall rows", stats.Frames, stats.Transforms, stats.Rows)
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s (%s, %d frames) to %s\n",
				input, engine.Mode(), stats.Frames, out)
			return nil
		},
	}

	renderCmd.Flags().StringVar(&out, "out", "", "PNG output path (default <file>_<mode>.png)")
	return renderCmd
}
