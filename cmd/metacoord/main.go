// metacoord coordination store daemon
// Serves an in-memory coordination store over gRPC for compute nodes
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/nainya/metacoord/internal/logger"
	"github.com/nainya/metacoord/internal/metrics"
	"github.com/nainya/metacoord/internal/server"
	"github.com/nainya/metacoord/pkg/repository"
)

var (
	port        = flag.Int("port", 50051, "The server port")
	metricsPort = flag.Int("metrics-port", 9090, "The observability HTTP port")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	pretty      = flag.Bool("pretty", false, "Pretty-print logs for development")
)

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	logger.InitGlobalLogger(logger.Config{
		Level:  *logLevel,
		Pretty: *pretty,
	})
	log := logger.GetGlobalLogger()

	log.Info("metacoord coordination store").
		Int("port", *port).
		Int("metrics_port", *metricsPort).
		Send()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	done := make(chan struct{})
	go m.RunUptimeUpdater(done)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatal("Failed to listen").Err(err).Send()
	}

	store := repository.NewMemoryRepository(log, m)
	coordinator := server.NewServer(store, log, m)
	defer coordinator.Close()

	// Create gRPC server with options
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.GrpcMetricsInterceptor(m, log)),
		grpc.StreamInterceptor(server.GrpcStreamMetricsInterceptor(m, log)),
	)
	coordinator.Register(grpcServer)

	// Register reflection service for grpcurl/grpcui
	reflection.Register(grpcServer)

	obs := server.NewObservabilityServer(*metricsPort, prometheus.DefaultGatherer, log)
	go func() {
		if err := obs.Start(); err != nil {
			log.Error("Observability server failed").Err(err).Send()
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.LogServerShutdown()
		close(done)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Shutdown(ctx); err != nil {
			log.Warn("Observability shutdown failed").Err(err).Send()
		}

		// Watch streams only end with their clients, so fall back to a hard stop.
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			grpcServer.Stop()
		}
	}()

	log.LogServerStart(*port)
	log.LogServerReady(*port)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatal("Failed to serve").Err(err).Send()
	}
}
