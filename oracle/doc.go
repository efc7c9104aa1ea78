// Package oracle defines the generative-reasoning capability used by every
// stage of a turn.
//
// An Oracle maps a structured prompt to either free text (possibly carrying
// capability requests) or a value conforming to a declared JSON schema.
// Backends live in sub-packages and register themselves with Register, so
// callers select one through New without importing provider SDKs:
//
//	import _ "github.com/becomeliminal/acc-agent/oracle/anthropic"
//
//	o, err := oracle.New(oracle.Config{Provider: "anthropic"})
//
// Implementations:
//   - anthropic: Claude Messages API (anthropic-sdk-go)
//   - openai: Chat Completions (go-openai)
//   - gemini: Gemini API (google.golang.org/genai)
//   - mock: scripted responses for tests
package oracle
