// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - GenerationService: Maps a prompt to generated text
//   - VectorIndex: Persistent similarity index over chunk embeddings
//
// The pipeline depends only on these capabilities, never on a concrete
// backend, so local-inference and hosted-API variants are interchangeable
// without touching service logic.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or loader package
package driven
