// Package core defines the shared language of the spec engine.
//
// This package contains:
//   - Domain entities (Spec, Statement, ParameterDefinition, TestDefinition)
//   - Result types (ExecutionResult, PipelineResult, TestResult, QualityReport)
//   - The error taxonomy shared by all components
//
// The Golden Rule: pkg/core imports only the stdlib.
// All other packages depend on core, not the reverse.
package core
