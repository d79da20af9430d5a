package api

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthReporter drives the standard gRPC health service from periodic store pings.
type HealthReporter struct {
	server      *health.Server
	store       Pinger
	serviceName string
	interval    time.Duration
	logger      *log.Logger
}

// NewHealthReporter creates a HealthReporter. Status starts as NOT_SERVING until
// the first successful ping.
func NewHealthReporter(store Pinger, serviceName string, interval time.Duration, logger *log.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	hr := &HealthReporter{
		server:      health.NewServer(),
		store:       store,
		serviceName: serviceName,
		interval:    interval,
		logger:      logger,
	}
	hr.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return hr
}

func (hr *HealthReporter) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	hr.server.SetServingStatus("", status)
	hr.server.SetServingStatus(hr.serviceName, status)
}

// Check pings the store once and publishes the result.
func (hr *HealthReporter) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := hr.store.Ping(ctx); err != nil {
		hr.logger.Printf("WARN: gRPC health store ping failed: %v", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	hr.setStatus(status)
	return status
}

// Run checks immediately and then on every interval until ctx is done.
func (hr *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(hr.interval)
	defer ticker.Stop()

	hr.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hr.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (hr *HealthReporter) Shutdown() {
	hr.server.Shutdown()
}

// NewGRPCServer registers the health service and reflection on a new server.
func NewGRPCServer(hr *HealthReporter, logger *log.Logger) *grpc.Server {
	s := grpc.NewServer()

	grpc_health_v1.RegisterHealthServer(s, hr.server)
	logger.Println("INFO: gRPC health check service registered.")

	reflection.Register(s)
	logger.Println("INFO: gRPC reflection service registered.")

	return s
}
