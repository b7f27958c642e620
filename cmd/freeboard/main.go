// Command freeboard measures dam crest freeboard and road widths from a
// DEM and a wall centreline.
//
//	freeboard analyze -dem muro.asc -centerline eje.csv [-lama lamas.csv]
//	freeboard export  -db revanchas.db [-session <id>]
//	freeboard serve   -dem muro.asc -centerline eje.csv -listen :8080
//	freeboard migrate -db revanchas.db up|down|version|force <n>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch cmd := os.Args[1]; cmd {
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: freeboard <analyze|export|serve|migrate> [flags]")
	fmt.Fprintln(os.Stderr, "run 'freeboard <command> -h' for command flags")
	os.Exit(2)
}

// commonFlags are the inputs shared by analyze and serve.
type commonFlags struct {
	dem        *string
	centerline *string
	lamaFile   *string
	wall       *string
	mode       *string
	configFile *string
	db         *string
}

func addCommonFlags(fs *flag.FlagSet, defaultDB string) *commonFlags {
	return &commonFlags{
		dem:        fs.String("dem", "", "DEM raster in ESRI ASCII grid format"),
		centerline: fs.String("centerline", "", "Wall centreline vertices CSV (X,Y)"),
		lamaFile:   fs.String("lama", "", "Surveyed LAMA points CSV (Perfil,X,Y), optional"),
		wall:       fs.String("wall", "Muro 1", "Wall name"),
		mode:       fs.String("mode", "freeboard", "Measurement mode: freeboard or projected_width"),
		configFile: fs.String("config", "", "Tuning config JSON, built-in defaults if empty"),
		db:         fs.String("db", defaultDB, "SQLite database path, empty disables persistence"),
	}
}
