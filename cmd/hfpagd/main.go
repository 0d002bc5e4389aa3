// Command hfpagd runs the Hands-Free/Headset audio gateway core as a
// standalone daemon, wired to logging-only stand-ins for the Bluetooth
// transport, SDP, and telephony backends (internal/stub) until a real
// platform binding is plugged into internal/ag.Collaborators.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/NKAVY/bluez/internal/ag"
	"github.com/NKAVY/bluez/internal/clog"
	"github.com/NKAVY/bluez/internal/config"
	"github.com/NKAVY/bluez/internal/eventloop"
	"github.com/NKAVY/bluez/internal/stub"
)

func main() {
	app := cli.NewApp()
	app.Name = "hfpagd"
	app.Usage = "Hands-Free Profile / Headset Profile audio gateway core"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "/etc/hfpagd/config.json", Usage: "path to persisted configuration"},
		cli.BoolFlag{Name: "hsp-only", Usage: "negotiate HSP instead of HFP for every new peer"},
		cli.IntFlag{Name: "max-peers", Value: 5, Usage: "maximum concurrently connected peers"},
		cli.StringFlag{Name: "log-level", Value: "INFO", Usage: "CRITICAL, ERROR, WARNING, NOTICE, INFO, or DEBUG"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx *cli.Context) error {
	level, err := logging.LogLevel(ctx.String("log-level"))
	if err != nil {
		return fmt.Errorf("bad --log-level: %w", err)
	}
	logger := clog.Setup("hfpagd", level)

	cfgPath := ctx.String("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger.Infof("loaded configuration from %s (sco_routing=%s)", cfgPath, cfg.SCORouting)

	loop := eventloop.New(64)
	telephony := &stub.Telephony{Log: logger}
	collab := ag.Collaborators{
		Telephony: telephony,
		Transport: &stub.Transport{Log: logger},
		SDP:       &stub.SDP{Log: logger},
		Signals:   &stub.Signals{Log: logger},
	}
	core := ag.NewCore(loop, collab, cfg, !ctx.Bool("hsp-only"), ctx.Int("max-peers"))
	telephony.Core = core
	_ = core

	go loop.Run()
	defer loop.Stop()

	logger.Notice("hfpagd started")

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-stopSignal
	logger.Noticef("stopping on signal %s", sig)
	return nil
}
