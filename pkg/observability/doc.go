/*
Package observability turns engine lifecycle hooks into logs and Prometheus metrics.

Both producers return domain.LifecycleHooks, so they can be combined with
LifecycleHooks.Merge and handed to the engine as a single value.
*/
package observability
