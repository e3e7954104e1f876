// Package model defines the vendor-agnostic Adapter abstraction and the
// per-request Session that every concrete adapter drives.
//
// Core goals:
//   - One streaming capability behind a single interface (Adapter)
//   - Normalized events regardless of vendor (core.StreamEvent)
//   - Exactly one terminal event per request, none after cancellation (Session)
//   - Lightweight mocking for tests (MockAdapter)
//
// Vendors (OpenAI, Anthropic, Gemini) implement Adapter in sub-packages so the
// registry and gateway remain decoupled from vendor SDKs.
package model
