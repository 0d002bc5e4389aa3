// Command hfpagctl inspects and edits the persisted configuration hfpagd
// reads on startup (internal/config). It has no live connection to a
// running daemon: the wire protocol that would let it query in-process
// state is out of scope for this repo (spec §1), so it only ever acts on
// the config file on disk.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/NKAVY/bluez/internal/config"
	"github.com/NKAVY/bluez/internal/termcolor"
)

func main() {
	app := cli.NewApp()
	app.Name = "hfpagctl"
	app.Usage = "inspect and edit hfpagd's persisted configuration"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "/etc/hfpagd/config.json", Usage: "path to persisted configuration"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "status",
			Usage:  "print the current configuration",
			Action: statusCmd,
		},
		{
			Name:      "set-sco-routing",
			Usage:     "set sco_routing to HCI or PCM",
			ArgsUsage: "<HCI|PCM>",
			Action:    setSCORoutingCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, termcolor.Red(err.Error()))
		os.Exit(1)
	}
}

func statusCmd(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return err
	}
	fmt.Printf("sco_routing: %s\n", termcolor.Green(string(cfg.SCORouting)))
	return nil
}

func setSCORoutingCmd(ctx *cli.Context) error {
	arg := ctx.Args().First()
	var routing config.SCORouting
	switch arg {
	case "HCI":
		routing = config.RoutingHCI
	case "PCM":
		routing = config.RoutingPCM
	default:
		return fmt.Errorf("sco_routing must be HCI or PCM, got %q", arg)
	}

	path := ctx.GlobalString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.SCORouting = routing
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("sco_routing: %s\n", termcolor.Yellow(string(routing)))
	return nil
}
