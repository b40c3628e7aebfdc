// Copyright 2015 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License. See the AUTHORS file
// for names of contributors.

// tplsd wires a deployment descriptor into a running LogSystem: it
// loads the descriptor, recruits the first epoch against the candidate
// tLog/log-router workers it names, publishes the resulting core state,
// and serves prometheus metrics until told to stop. It is not an
// administrative tool; operators drive recruitment and recovery by
// editing the descriptor and restarting, not through subcommands here.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tagpartitioned/tpls/config"
	"github.com/tagpartitioned/tpls/corestate"
	"github.com/tagpartitioned/tpls/internal/log"
	"github.com/tagpartitioned/tpls/internal/metric"
	"github.com/tagpartitioned/tpls/logsystem"
)

func main() {
	configPath := flag.String("config", "./deployment.yaml", "path to the deployment descriptor YAML")
	flag.Parse()

	deployment, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	logger, err := initLogger(deployment.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log.SetBase(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := metric.New()
	registry := prometheus.NewRegistry()
	for _, c := range metrics.PrometheusCollectors() {
		registry.MustRegister(c)
	}
	if deployment.Metrics.Enabled {
		go serveMetrics(ctx, deployment.Metrics.Addr, registry)
	}

	store := corestate.NewMemStore()
	sys, err := bootstrap(ctx, deployment, store, metrics)
	if err != nil {
		log.Fatalf(ctx, "bootstrapping log system: %v", err)
	}

	log.Infof(ctx, "tplsd running, recruitment %s, %d current log sets", sys.RecruitmentID(), len(sys.Current()))
	<-ctx.Done()
	log.Infof(ctx, "shutting down")
}

// bootstrap recruits the first epoch of sys from deployment's candidate
// workers and publishes the resulting core state to store at version 0,
// the state a freshly stood-up deployment (nothing recruited yet) is
// always in.
func bootstrap(ctx context.Context, d *config.Deployment, store corestate.Store, metrics *metric.Metrics) (*logsystem.LogSystem, error) {
	plan, err := d.RecruitmentPlan(nil, 0)
	if err != nil {
		return nil, err
	}
	old := logsystem.New(nil, nil, 0, plan.RecruitmentID)
	sys, err := logsystem.Recruit(ctx, old, plan)
	if err != nil {
		return nil, err
	}
	sys.SetMetrics(metrics)
	if _, err := corestate.Publish(ctx, store, 0, sys.ToCoreState()); err != nil {
		return nil, err
	}
	return sys, nil
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Infof(ctx, "serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf(ctx, "metrics server: %v", err)
	}
}

func initLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
