package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/akeil/syfix/pkg/api"
)

func doNotebooks(ctx context.Context, s settings) error {
	client, err := setupClient(s)
	if err != nil {
		return err
	}

	notebooks, err := client.ListNotebooks(ctx)
	if err != nil {
		return err
	}

	if len(notebooks) == 0 {
		fmt.Println("Found no notebooks.")
		return nil
	}

	sort.SliceStable(notebooks, func(i, j int) bool {
		return notebooks[i].Sort < notebooks[j].Sort
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"", "ID", "Name", "State"})
	for _, nb := range notebooks {
		mark := ""
		if nb.Name == s.notebook {
			mark = "*"
		}
		state := "open"
		if nb.Closed {
			state = "closed"
		}
		table.Append([]string{mark, nb.ID, nb.Name, state})
	}
	table.Render()

	return nil
}

func doChildren(ctx context.Context, s settings, id string) error {
	client, err := setupClient(s)
	if err != nil {
		return err
	}

	children, err := client.ChildBlocks(ctx, id)
	if err != nil {
		return err
	}

	if len(children) == 0 {
		fmt.Printf("Block %v has no children.\n", id)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Type", "Subtype"})
	for _, c := range children {
		table.Append([]string{c.ID, c.Type, c.SubType})
	}
	table.Render()

	return nil
}

// common ---------------------------------------------------------------------

func setupClient(s settings) (*api.Client, error) {
	return api.NewClient(s.apiConfig())
}
