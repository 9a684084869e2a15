// Package engine implements the retrieve-rerank-balance pipeline that
// turns an enhanced query into a final list of recommended assessments.
//
// The pipeline runs five steps in order: search query construction,
// semantic retrieval, duration filtering, relevance reranking, and
// category balancing with a final-count policy. Retrieval returning zero
// candidates is a terminal outcome reported as ErrNoMatches; every later
// step degrades instead of failing.
package engine
