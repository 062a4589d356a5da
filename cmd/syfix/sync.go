package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/akeil/syfix"
	"github.com/akeil/syfix/internal/logging"
	"github.com/akeil/syfix/pkg/fs"
)

func doSync(ctx context.Context, s settings, notebook string) error {
	if notebook == "" {
		notebook = s.notebook
	}

	client, err := setupClient(s)
	if err != nil {
		return err
	}

	home, err := syfix.ResolveHome(ctx, client, s.dataDir, notebook)
	if err != nil {
		return err
	}
	fmt.Printf("%v rewrite documents in %v\n", ellipsis, home)

	var bar *progressbar.ProgressBar
	sy := &syfix.Synchronizer{
		Remote:    client,
		Documents: fs.NewRepository(),
		DataDir:   s.dataDir,
		Progress: func(done, total int, path string, err error) {
			if bar == nil {
				bar = newProgressBar(total)
			}
			if err != nil {
				bar.Describe(crossmark + " documents")
			}
			if err := bar.Add(1); err != nil {
				logging.Debug("Failed to update progress bar: %v", err)
			}
		},
	}

	report, err := sy.SyncHome(ctx, home)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	for _, f := range report.Failed {
		fmt.Printf("%v %v: %v\n", crossmark, f.Path, f.Err)
	}
	mark := checkmark
	if !report.OK() {
		mark = crossmark
	}
	fmt.Printf("%v rewrote %d blocks in %d documents, %d failed (%v)\n",
		mark, report.Blocks, report.Documents, len(report.Failed), report.Duration().Round(time.Millisecond))

	if !report.OK() {
		return fmt.Errorf("%d of %d documents failed", len(report.Failed), report.Documents)
	}
	return nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionSetDescription(checkmark+" documents"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
