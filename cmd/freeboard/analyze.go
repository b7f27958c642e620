package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/crest-data/freeboard.report/internal/alignment"
	"github.com/crest-data/freeboard.report/internal/config"
	"github.com/crest-data/freeboard.report/internal/export"
	"github.com/crest-data/freeboard.report/internal/lama"
	"github.com/crest-data/freeboard.report/internal/measure"
	"github.com/crest-data/freeboard.report/internal/render"
	"github.com/crest-data/freeboard.report/internal/report"
	"github.com/crest-data/freeboard.report/internal/store"
	"github.com/crest-data/freeboard.report/internal/terrain"
)

// loadInputs turns the common flags into a ready-to-run analysis: surface,
// alignment, tuning config, LAMA seed and measurement mode.
func loadInputs(cf *commonFlags) (*terrain.Surface, *alignment.Alignment, *config.TuningConfig, measure.LamaSeed, measure.Mode, error) {
	if *cf.dem == "" || *cf.centerline == "" {
		return nil, nil, nil, nil, "", fmt.Errorf("-dem and -centerline are required")
	}
	mode := measure.Mode(*cf.mode)
	if !mode.Valid() {
		return nil, nil, nil, nil, "", fmt.Errorf("unknown mode %q", *cf.mode)
	}

	cfg := config.EmptyTuningConfig()
	if *cf.configFile != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*cf.configFile)
		if err != nil {
			return nil, nil, nil, nil, "", fmt.Errorf("load tuning config: %w", err)
		}
	}

	surf, err := terrain.LoadASC(*cf.dem)
	if err != nil {
		return nil, nil, nil, nil, "", fmt.Errorf("load DEM: %w", err)
	}
	info := surf.Info()
	log.Printf("loaded DEM: %dx%d cells, %.1fm resolution", info.Rows, info.Cols, info.CellSize)

	al, err := alignment.LoadPolylineFile(*cf.wall, *cf.centerline, cfg.GetStationInterval())
	if err != nil {
		return nil, nil, nil, nil, "", fmt.Errorf("build alignment: %w", err)
	}
	inside, total := al.Coverage(surf.Contains)
	log.Printf("alignment %q: %d stations over %.0fm, %d on the DEM", al.Name(), total, al.TotalLength(), inside)

	var seed measure.LamaSeed
	if *cf.lamaFile != "" {
		points, err := lama.LoadFile(*cf.lamaFile)
		if err != nil {
			return nil, nil, nil, nil, "", fmt.Errorf("load LAMA points: %w", err)
		}
		set, err := lama.NewSet(points, cfg.GetStationInterval())
		if err != nil {
			return nil, nil, nil, nil, "", fmt.Errorf("index LAMA points: %w", err)
		}
		extracted, failed := set.ExtractElevations(surf)
		log.Printf("LAMA points: %d loaded, %d elevations extracted, %d off the DEM", set.Len(), extracted, failed)
		seed = set.ForStation
	}

	return surf, al, cfg, seed, mode, nil
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cf := addCommonFlags(fs, "")
	outDir := fs.String("out", ".", "Directory for the exported CSV")
	plotDir := fs.String("plots", "", "Directory for per-station PNG cross-sections, optional")
	fs.Parse(args)

	surf, al, cfg, seed, mode, err := loadInputs(cf)
	if err != nil {
		return err
	}

	sess, err := measure.NewSession(*cf.wall, mode)
	if err != nil {
		return err
	}
	analyzer := measure.NewAnalyzer(surf, cfg, seed)
	err = analyzer.Run(context.Background(), al, sess, func(done, total int) {
		log.Printf("station %d/%d", done, total)
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	csvPath := filepath.Join(*outDir, export.DefaultFilename(mode, time.Now()))
	writer := export.Writer{Precision: cfg.GetExportPrecision()}
	if err := writer.WriteFile(csvPath, sess); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	log.Printf("wrote %s", csvPath)

	if *plotDir != "" {
		for _, rec := range sess.Records() {
			prof, ok := sess.Profile(rec.Chainage)
			if !ok {
				continue
			}
			path := filepath.Join(*plotDir, fmt.Sprintf("perfil_%s.png", rec.PK))
			if err := render.ProfilePNG(path, prof, rec); err != nil {
				log.Printf("failed to render %s: %v", rec.PK, err)
			}
		}
		log.Printf("wrote cross-sections to %s", *plotDir)
	}

	if *cf.db != "" {
		st, err := store.NewStore(*cf.db)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
		if err := st.SaveSession(sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := st.SaveAll(sess); err != nil {
			return fmt.Errorf("save records: %w", err)
		}
		log.Printf("saved session %s to %s", sess.ID(), *cf.db)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report.Build(sess))
}
