// Package services implements the driving port interfaces.
// Services contain the partitioning and streaming logic and orchestrate
// calls to driven ports (adapters).
//
// The partition/stream split mirrors how retrieval actually costs:
// planning is count probes only, streaming is one page fetch per
// partition, and nothing here retries or parallelises fetches.
package services
