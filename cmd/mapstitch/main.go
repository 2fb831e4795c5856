package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pixelfield/mapstitch"
	"github.com/pixelfield/mapstitch/rawio"
	"github.com/urfave/cli/v2"
)

const defaultDB = "mapstitch.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func loadConfig(c *cli.Context) (mapstitch.Config, error) {
	if path := c.String("config"); path != "" {
		return mapstitch.LoadConfig(path)
	}
	return mapstitch.DefaultConfig(), nil
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func main() {
	app := cli.NewApp()

	app.Name = "mapstitch"
	app.Usage = "Reconstruct world maps from game frame captures"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"MAPSTITCH_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to build catalog",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to YAML configuration",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "scan",
			Usage:       "Locate the playfield window of a capture",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, err := mapstitch.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer m.Close()

				adapter := mapstitch.NewDirAdapter(
					c.Args().First(),
					cfg.ScreenDimensions(),
					mapstitch.Callbacks{})

				win, ok, err := m.Scan(adapter)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if !ok {
					return cli.NewExitError("no playfield window found", 1)
				}

				fmt.Printf("%dx%d at (%d, %d)\n",
					win.Width(), win.Height(), win.Left, win.Top)

				return nil
			},
		},
		{
			Name:        "build",
			Usage:       "Build the map of a capture",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "output, o",
					Value: cwd,
					Usage: "directory for the map images",
				},
				&cli.BoolFlag{
					Name:  "force, f",
					Usage: "rebuild even if the catalog has this sequence",
				},
				&cli.StringFlag{
					Name:  "debug",
					Usage: "directory for diagnostic renders of each stage",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if dir := c.String("debug"); dir != "" {
					cfg.Debug = dir
				}

				m, err := mapstitch.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer m.Close()

				if err := m.BuildDir(
					c.Args().First(), c.String("output"),
					cfg, c.Bool("force")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import",
			Usage:       "Convert an image into a raw capture frame",
			Description: "Quantizes any PNG or JPEG to the console palette and writes it in raw frame form.",
			ArgsUsage:   "SOURCE DEST",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				frame, err := rawio.ImportFile(
					c.Args().Get(0), cfg.ScreenDimensions())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := rawio.SaveFrame(c.Args().Get(1), frame); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
