// Package workflow runs the per-query recommendation pipeline.
//
// Each incoming query gets its own State threaded through a fixed
// sequence of stages: intent classification, URL detection and source
// fetch, query enhancement, retrieval and selection, and finalization.
// Two side paths answer general questions and redirect out-of-context
// queries. Stage failures degrade rather than abort; only an unexpected
// panic terminates a run, and even that is converted into an apologetic
// answer at the executor boundary.
package workflow
