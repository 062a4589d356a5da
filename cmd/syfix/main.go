package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/akeil/syfix"
)

const (
	checkmark = "✓"
	crossmark = "✗"
	ellipsis  = "…"
)

func main() {
	syfix.SetLogLevel("warning")

	app := kingpin.New("syfix", "Clean up documents imported from Notion into SiYuan")
	app.HelpFlag.Short('h')

	var f flags
	app.Flag("config", "Configuration file").Short('c').StringVar(&f.configFile)
	app.Flag("url", "Base URL of the SiYuan kernel").Short('u').StringVar(&f.baseURL)
	app.Flag("token", "API token").Short('t').StringVar(&f.token)
	app.Flag("data", "SiYuan data directory").Short('d').StringVar(&f.dataDir)
	app.Flag("concurrency", "Maximum number of requests in flight").Int64Var(&f.concurrency)
	app.Flag("timeout", "Timeout for a single request").DurationVar(&f.timeout)
	app.Flag("rate", "Maximum requests per second, 0 for no limit").Float64Var(&f.rate)
	app.Flag("log-level", "Log level").Short('l').StringVar(&f.logLevel)

	sync := app.Command("sync", "Rewrite all documents in a notebook").Default()
	notebook := sync.Arg("notebook", "Name of the notebook").String()

	app.Command("notebooks", "List notebooks")

	doc := app.Command("doc", "Rewrite the document that contains a block")
	docID := doc.Arg("id", "Block ID").Required().String()
	docNotebook := doc.Flag("notebook", "Name of the notebook").Short('n').String()

	children := app.Command("children", "List the child blocks of a block")
	childrenID := children.Arg("id", "Block ID").Required().String()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	s, err := loadSettings(f)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	syfix.SetLogLevel(s.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "sync":
		err = doSync(ctx, s, *notebook)
	case "notebooks":
		err = doNotebooks(ctx, s)
	case "doc":
		err = doDoc(ctx, s, *docNotebook, *docID)
	case "children":
		err = doChildren(ctx, s, *childrenID)
	default:
		err = fmt.Errorf("unknown command: %q", command)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
