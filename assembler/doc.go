// Package assembler reconstructs complete tool calls from streamed fragments.
//
// Vendors deliver tool calls in different shapes: whole per chunk, or as a
// "call started" signal followed by argument text fragments referenced by a
// positional slot index. An Assembler keeps one accumulator per slot and
// seals a call exactly once, either on an explicit completion signal, on an
// id transition within the same slot, or when the stream ends.
//
// Sealing parses the accumulated argument text with ParseArguments, which
// trims the buffer to its outermost {...} span and falls back to an empty
// mapping, so a garbled buffer never fails the request.
package assembler
