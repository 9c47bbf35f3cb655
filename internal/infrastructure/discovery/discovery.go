package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound means a resolver has no location for the service
var ErrNotFound = errors.New("service not found")

// Resolver locates a service by name
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}

// Static resolves every service to fixed base URLs
type Static map[string]string

// Resolve implements Resolver
func (s Static) Resolve(_ context.Context, service string) (string, error) {
	if url, ok := s[service]; ok && url != "" {
		return strings.TrimRight(url, "/"), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, service)
}

// KubernetesEnv resolves services from the variables the kubelet injects
// into every pod: <SERVICE>_SERVICE_HOST and <SERVICE>_SERVICE_PORT, with
// the service name upper-cased and dashes turned into underscores.
type KubernetesEnv struct {
	// Scheme defaults to http
	Scheme string
	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(key string) (string, bool)
}

// Resolve implements Resolver
func (k KubernetesEnv) Resolve(_ context.Context, service string) (string, error) {
	lookup := k.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	scheme := k.Scheme
	if scheme == "" {
		scheme = "http"
	}

	prefix := EnvPrefix(service)
	host, ok := lookup(prefix + "_SERVICE_HOST")
	if !ok || host == "" {
		return "", fmt.Errorf("%w: %s (no %s_SERVICE_HOST)", ErrNotFound, service, prefix)
	}

	if port, ok := lookup(prefix + "_SERVICE_PORT"); ok && port != "" {
		return fmt.Sprintf("%s://%s:%s", scheme, host, port), nil
	}
	return fmt.Sprintf("%s://%s", scheme, host), nil
}

// EnvPrefix returns the environment variable prefix for a service name
func EnvPrefix(service string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(service))
}

// Chain tries each resolver in order and returns the first location found
type Chain []Resolver

// Resolve implements Resolver
func (c Chain) Resolve(ctx context.Context, service string) (string, error) {
	var errs []error
	for _, r := range c {
		url, err := r.Resolve(ctx, service)
		if err == nil {
			return url, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	return "", errors.Join(errs...)
}
