// metacoord compute node agent
// Joins the cluster, claims a worker id and mirrors cluster metadata locally
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nainya/metacoord/internal/logger"
	"github.com/nainya/metacoord/internal/metrics"
	"github.com/nainya/metacoord/internal/server"
	"github.com/nainya/metacoord/pkg/dispatch"
	"github.com/nainya/metacoord/pkg/dispatch/handler"
	"github.com/nainya/metacoord/pkg/instance"
	"github.com/nainya/metacoord/pkg/manager"
	"github.com/nainya/metacoord/pkg/persist"
	"github.com/nainya/metacoord/pkg/repository"
)

var (
	coordinator  = flag.String("coordinator", "localhost:50051", "Address of the coordination store")
	instanceID   = flag.String("instance-id", "", "Instance id (generated when empty)")
	instanceType = flag.String("type", instance.TypeProxy, "Instance type: PROXY or JDBC")
	attribute    = flag.String("attribute", "", "Attribute published with the online registration, e.g. host@port")
	labels       = flag.String("labels", "", "Comma separated instance labels")
	workers      = flag.Int("workers", dispatch.DefaultConfig().Workers, "Number of dispatch workers")
	queueSize    = flag.Int("queue-size", dispatch.DefaultConfig().QueueSize, "Events queued per dispatch worker")
	metricsPort  = flag.Int("metrics-port", 0, "Observability HTTP port, 0 disables it")
	logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	pretty       = flag.Bool("pretty", false, "Pretty-print logs for development")
)

const (
	version         = "1.0.0"
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	flag.Parse()

	logger.InitGlobalLogger(logger.Config{
		Level:   *logLevel,
		Pretty:  *pretty,
		Service: "computenode",
	})
	log := logger.GetGlobalLogger()

	if *instanceID == "" {
		*instanceID = instance.NewInstanceID()
	}
	local := instance.NewComputeNodeInstance(instance.MetaData{
		ID:        *instanceID,
		Type:      *instanceType,
		Attribute: *attribute,
		Version:   version,
	})
	local.Labels = splitLabels(*labels)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	var obs *server.ObservabilityServer
	if *metricsPort > 0 {
		obs = server.NewObservabilityServer(*metricsPort, prometheus.DefaultGatherer, log)
		go func() {
			if err := obs.Start(); err != nil {
				log.Error("Observability server failed").Err(err).Send()
			}
		}()
	}

	conn, err := grpc.NewClient(*coordinator, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to create coordinator client").Err(err).Send()
	}
	repo := repository.NewRemoteRepository(conn, log)

	cm := manager.NewContextManager(local, repo)
	defer cm.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := dispatch.New(cm, dispatch.Config{Workers: *workers, QueueSize: *queueSize}, log, m, handler.Defaults()...)
	dispatcher.Start(ctx)
	if err := dispatcher.Listen(ctx, repo); err != nil {
		log.Fatal("Failed to watch coordination store").Err(err).Send()
	}

	nodes := persist.NewComputeNodePersistService(repo)
	allocator := persist.NewWorkerIDAllocator(repo)

	reqCtx, reqCancel := context.WithTimeout(ctx, requestTimeout)
	if err := nodes.Online(reqCtx, *local); err != nil {
		log.Fatal("Failed to go online").Err(err).Send()
	}
	workerID, err := allocator.Allocate(reqCtx, local.MetaData.ID)
	reqCancel()
	if err != nil {
		log.Fatal("Failed to allocate worker id").Err(err).Send()
	}

	log.Info("Compute node online").
		Str("instance_id", local.MetaData.ID).
		Str("type", local.MetaData.Type).
		Int("worker_id", workerID).
		Str("coordinator", *coordinator).
		Send()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Compute node shutting down").
		Int("cluster_instances", len(cm.InstanceContext.ClusterInstances())).
		Interface("worker_ids", cm.InstanceContext.WorkerIDs()).
		Send()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := allocator.Release(shutdownCtx, local.MetaData.ID); err != nil {
		log.Warn("Failed to release worker id").Err(err).Send()
	}
	if err := nodes.Offline(shutdownCtx, cm.InstanceContext.LocalInstance()); err != nil {
		log.Warn("Failed to go offline").Err(err).Send()
	}

	cancel()
	dispatcher.Stop()
	if obs != nil {
		obs.Shutdown(shutdownCtx)
	}
}

func splitLabels(raw string) []string {
	var result []string
	for _, label := range strings.Split(raw, ",") {
		if label = strings.TrimSpace(label); label != "" {
			result = append(result, label)
		}
	}
	return result
}
