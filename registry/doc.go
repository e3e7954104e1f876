// Package registry caches provider adapters by connection fingerprint.
//
// A Registry hands out one adapter per distinct combination of vendor,
// credential, endpoint, timeout, headers and adapter profile. Lookups that hit
// the cache take a read lock only. Concurrent misses on the same fingerprint
// collapse into a single construction; misses on different fingerprints never
// wait for each other.
//
// Example:
//
//	reg := registry.New(registry.WithLogger(logger))
//	a, err := reg.Get(ctx, core.ChatConfig{Vendor: core.VendorAnthropic, Model: "claude-sonnet-4-5", APIKey: key})
//	if err != nil {
//	    return err
//	}
//	for ev := range a.Stream(ctx, core.NewID(), req) {
//	    // ...
//	}
package registry
