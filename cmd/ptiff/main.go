// ptiff builds and reads pyramidal tiled TIFF files.
//
// Usage:
//
//	ptiff build --input scan.tif --output scan-pyramid.tif [--compressed]
//	ptiff tile --input scan-pyramid.tif --page 0 --tile 1,0,1 --output tile.tif
//	ptiff tile --input scan-pyramid.tif --output tile.tif --tile 1 0 1
//	ptiff export --input scan-pyramid.tif --output levels
//	ptiff info --input scan-pyramid.tif [--stats]
//	ptiff compare --input a.tif --input b.tif [--tolerance 1]
//
// Exit codes:
//
//	0:   Success
//	127: Any failure
package main

import (
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mrjoshuak/go-ptiff/internal/config"
)

const (
	version  = "1.0.0"
	exitCode = 127
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "ptiff"
	app.Usage = "Pyramidal tiled TIFF builder and reader"
	app.Version = version

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"PTIFF_CONFIG"},
			Usage:   "path to TOML configuration file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "write log messages to a rotating file",
		},
	}

	app.Commands = []*cli.Command{
		buildCommand(),
		tileCommand(),
		exportCommand(),
		infoCommand(),
		compareCommand(),
	}
	return app
}

// setup loads the configuration and creates the logger shared by every
// command. Flags override the file.
func setup(c *cli.Context) (*config.Config, *log.Logger, io.Closer, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	if c.IsSet("log-file") {
		cfg.Logging.Logfile = c.String("log-file")
	}
	logger, closer := cfg.Logging.NewLogger(c.Bool("verbose"))
	return cfg, logger, closer, nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Print(err)
		os.Exit(exitCode)
	}
}
