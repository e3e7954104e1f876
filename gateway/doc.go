// Package gateway is the request controller in front of the provider
// adapters.
//
// A Gateway validates a ChatRequest, resolves the adapter for its config,
// runs the stream under a per-request cancellable context and forwards the
// normalized events to the caller. It tracks every in-flight request by id so
// that Cancel can stop it from any goroutine.
//
// Guarantees per request:
//   - validation failures are returned synchronously and never reach a vendor
//   - at most one terminal event (done or error) is delivered, and it is last
//   - after Cancel no further events are delivered and no terminal event is
//     synthesized
//   - an adapter that closes its stream without a terminal event is reported
//     as an upstream_malformed error
//
// Example:
//
//	gw := gateway.New(registry.New(), gateway.WithLogger(logger))
//	id, events, err := gw.Start(ctx, req)
//	if err != nil {
//	    return err
//	}
//	for ev := range events {
//	    switch ev.Kind {
//	    case core.EventText:
//	        fmt.Print(ev.Content)
//	    case core.EventError:
//	        return ev.Err
//	    }
//	}
//	_ = id
package gateway
