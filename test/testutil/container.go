package testutil

import (
	"context"
	"fmt"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
)

// startContainer runs opts and retries ready with the host port mapped to
// internalPort until it succeeds. The returned cleanup purges the container.
func startContainer(name string, opts *dockertest.RunOptions, internalPort string, ready func(hostPort string) error) (hostPort string, cleanup func(), err error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", nil, fmt.Errorf("could not start %s container: %w", name, err)
	}

	if err := pool.Retry(func() error {
		hostPort = resource.GetPort(internalPort)
		return ready(hostPort)
	}); err != nil {
		_ = pool.Purge(resource)
		return "", nil, fmt.Errorf("%s did not become ready: %w", name, err)
	}

	cleanup = func() {
		if err := pool.Purge(resource); err != nil {
			logger.Warnf(context.Background(), "could not purge %s container: %s", name, err)
		}
	}
	return hostPort, cleanup, nil
}
