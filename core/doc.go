// Package core provides the vendor-neutral domain types shared by every layer
// of llmgate. It defines:
//
//   - ChatConfig / ChatRequest (what to send and where)
//   - Message and its closed set of content Parts (text, image)
//   - ToolDefinition / ParameterSchema / ToolCall (function calling)
//   - StreamEvent (the normalized, ordered output of a request)
//   - Error / ErrorKind (the closed failure taxonomy)
//
// The package has no knowledge of any vendor SDK. Adapters translate these
// types into wire formats and back.
package core
