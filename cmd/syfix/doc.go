package main

import (
	"context"
	"fmt"

	"github.com/akeil/syfix"
	"github.com/akeil/syfix/pkg/fs"
)

func doDoc(ctx context.Context, s settings, notebook, id string) error {
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

	sy := &syfix.Synchronizer{
		Remote:    client,
		Documents: fs.NewRepository(),
		DataDir:   s.dataDir,
	}

	fmt.Printf("%v rewrite document for block %v\n", ellipsis, id)
	n, err := sy.SyncBlock(ctx, home, id)
	if err != nil {
		fmt.Printf("%v Failed to rewrite document for block %v\n", crossmark, id)
		return err
	}

	fmt.Printf("%v rewrote %d blocks\n", checkmark, n)
	return nil
}
