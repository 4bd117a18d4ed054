// Package eplus provides the shared vocabulary for orchestrating an external
// whole-building energy simulation engine.
//
// # Reading Guide
//
// Start with these files:
//   - version.go: EngineVersion parsing and total ordering
//   - errors.go: the error taxonomy shared by every sub-package
//
// # Architecture
//
// The eplus package defines value types and errors; behavior lives in
// sub-packages:
//   - eplus/process/: launches an external executable and streams its output
//   - eplus/transition/: version ladder, transition tool discovery, and the
//     sequential upgrade pipeline (single model and parallel batches)
//   - eplus/progress/: progress sinks (logrus, kafka) shared by concurrent runs
//   - eplus/archive/: what happens to a model file superseded by an overwrite
//   - eplus/idf/: tagged-record store for model objects and output requests
//   - eplus/balance/: end-use energy balance decomposition over output series
//   - eplus/sankey/: directed energy-flow graph built from a balance summary
//   - eplus/construction/: layered constructions and their thermal properties
package eplus
