// Package memory provides the two append-only memory layers of the agent.
//
// The artifact store holds episodic traces and extracted facts and answers
// nearest-neighbor recall queries. The durable store keeps a long-term fact
// ledger (MEMORY.md) and one journal file per calendar day.
//
// Architecture:
//   - ArtifactStore: vector storage backend (chromem-go, persistent on disk)
//   - Embedder: text-to-vector conversion (OpenAI, Gemini, mock, cached)
//   - DurableStore: plain-text ledger and journals under the user directory
//   - Manager: orchestrates recall and the Finalize-phase writes
//
// Integration:
//   - RECALL phase: Manager.Recall before the compressor qualifies artifacts
//   - FINALIZE phase: Manager.RecordFacts and Manager.RecordEpisode after the reply
//
// Neither layer has an update or delete path.
package memory
