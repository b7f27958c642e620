package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/crest-data/freeboard.report/internal/api"
	"github.com/crest-data/freeboard.report/internal/measure"
	"github.com/crest-data/freeboard.report/internal/store"
)

// runServe analyzes the wall once at startup and then serves the session
// over HTTP for inspection, manual overrides and re-analysis.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cf := addCommonFlags(fs, "revanchas.db")
	listen := fs.String("listen", ":8080", "Listen address")
	fs.Parse(args)

	surf, al, cfg, seed, mode, err := loadInputs(cf)
	if err != nil {
		return err
	}

	var st *store.Store
	if *cf.db != "" {
		st, err = store.NewStore(*cf.db)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
	}

	sess, err := measure.NewSession(*cf.wall, mode)
	if err != nil {
		return err
	}
	analyzer := measure.NewAnalyzer(surf, cfg, seed)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("analyzing %d stations...", al.Len())
	if err := analyzer.Run(ctx, al, sess, nil); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	log.Printf("analysis complete: %d records", sess.Len())
	if st != nil {
		if err := st.SaveSession(sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := st.SaveAll(sess); err != nil {
			return fmt.Errorf("save records: %w", err)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(sess, al, analyzer, st, cfg.GetExportPrecision()).ServeMux()
		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	return nil
}
