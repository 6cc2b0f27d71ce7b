// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/gops/agent"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/analyzer"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/archive"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/config"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/eventmanager"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/fetchloop"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/flagmanager"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/metrics"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/pipe"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/resultwindow"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/store"
	"github.com/ClusterCockpit/tipup-flagwatch/pkg/log"
	"github.com/ClusterCockpit/tipup-flagwatch/pkg/nats"
)

func main() {
	var flagConfigFile, flagMetricsAddr string
	var flagGops bool
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Path to the daemon's `config.json`")
	flag.StringVar(&flagMetricsAddr, "metrics-addr", ":9090", "Address the Prometheus /metrics endpoint listens on")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.LogLevel != "" {
		log.SetLogLevel(cfg.LogLevel)
	}

	// See https://github.com/google/gops (runtime overhead is almost zero)
	if flagGops || cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := store.Connect(ctx, store.Config{
		IPAddress:       cfg.MongoDBIPAddress,
		Port:            cfg.MongoDBPort,
		Database:        cfg.Database,
		Username:        cfg.Username,
		Password:        cfg.Password,
		CAFile:          cfg.CAFile,
		CertificateFile: cfg.CertificateFile,
		KeyFile:         cfg.KeyFile,
	})
	if err != nil {
		log.Fatal(err)
	}

	measurementRepo := store.NewMeasurementRepository(conn)
	lastSeenRepo := store.NewLastSeenRepository(conn)
	flagRepo := store.NewFlagRepository(conn)
	eventRepo := store.NewEventRepository(conn)

	var notifier flagmanager.Notifier
	if cfg.Notify.NatsAddress != "" {
		client, err := nats.NewClient(&nats.Config{
			Address:       cfg.Notify.NatsAddress,
			CredsFilePath: cfg.Notify.NatsCredsFile,
		})
		if err != nil {
			log.Warnf("nats: disabled, connection failed: %s", err.Error())
		} else {
			defer client.Close()
			notifier = client
		}
	}

	flagMgr := flagmanager.New(flagRepo, notifier)

	rw := resultwindow.New()
	p := pipe.New()
	if err := buildAnalyzers(cfg, p, rw, flagMgr.Channel()); err != nil {
		log.Fatal(err)
	}

	if err := rw.Initialize(ctx, measurementRepo, time.Now()); err != nil {
		log.Fatalf("resultwindow: initial backfill failed: %s", err.Error())
	}

	loop := fetchloop.New(measurementRepo, lastSeenRepo, p, rw)

	var archiver eventmanager.Archiver
	if cfg.Archive.Enabled {
		s3, err := archive.NewS3Archiver(ctx, cfg.Archive.S3Bucket, cfg.Archive.S3Prefix)
		if err != nil {
			log.Warnf("archive: disabled, could not build S3 client: %s", err.Error())
		} else {
			archiver = s3
		}
	}
	events := eventmanager.New(flagRepo, eventRepo, archiver)

	flagManagerDone := make(chan struct{})
	go func() {
		flagMgr.Run(ctx)
		close(flagManagerDone)
	}()

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("gocron: could not create scheduler: %s", err.Error())
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(time.Duration(cfg.UpdateFlagsInterval)*time.Second),
		gocron.NewTask(func() {
			if err := loop.Tick(ctx); err != nil {
				log.Errorf("fetchloop: tick failed: %s", err.Error())
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		log.Fatalf("gocron: could not register fetch loop: %s", err.Error())
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(time.Duration(cfg.UpdateEventsInterval)*time.Second),
		gocron.NewTask(func() {
			if err := events.Tick(ctx, time.Now().Unix()); err != nil {
				log.Errorf("eventmanager: tick failed: %s", err.Error())
			}
		}),
	); err != nil {
		log.Fatalf("gocron: could not register event manager: %s", err.Error())
	}

	sched.Start()

	metricsServer := &http.Server{
		Addr:         flagMetricsAddr,
		Handler:      metrics.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("metrics: listening at %s", flagMetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics: server failed: %s", err.Error())
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info("tipupd: shutting down")
	if err := sched.Shutdown(); err != nil {
		log.Errorf("gocron: shutdown error: %s", err.Error())
	}
	if err := metricsServer.Shutdown(context.Background()); err != nil {
		log.Errorf("metrics: shutdown error: %s", err.Error())
	}

	close(flagMgr.Channel())
	cancel()
	<-flagManagerDone
	<-flagMgr.Done()

	log.Info("tipupd: graceful shutdown completed")
}

// buildAnalyzers constructs and registers one analyzer per entry in
// cfg.Analyzers, wiring StdDevAnalyzer entries to a shared Variable Window
// keyed by their configured path.
func buildAnalyzers(cfg *config.Config, p *pipe.Pipe, rw *resultwindow.ResultWindow, sink chan<- model.Flag) error {
	for _, a := range cfg.Analyzers {
		switch analyzer.Class(a.Class) {
		case analyzer.ClassError:
			status := model.FlagStatus(a.Status)
			inst := analyzer.NewErrorAnalyzer(a.Name, status, a.Fields, sink)
			if err := p.AddAnalyzer(a.MeasurementClass, a.Name, inst); err != nil {
				return fmt.Errorf("registering analyzer %q: %w", a.Name, err)
			}

		case analyzer.ClassStdDev:
			path := model.VariablePath(a.Parameters.VariableName)
			window := rw.RegisterVariable(path)
			inst := analyzer.NewStdDevAnalyzer(a.Name, path, window, sink)
			if err := p.AddAnalyzer(a.MeasurementClass, a.Name, inst); err != nil {
				return fmt.Errorf("registering analyzer %q: %w", a.Name, err)
			}

		default:
			return fmt.Errorf("analyzer %q: unknown class %q", a.Name, a.Class)
		}
	}
	return nil
}
