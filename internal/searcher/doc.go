// Package searcher plans and executes glossary queries over the storage
// layer.
//
// Two retrieval strategies share one request/response shape:
//
//   - Terms: ranked full-text search through the terms_fts index, BM25
//     rank ascending, matched spans highlighted by the index itself.
//   - Commands: a scored substring scan in memory, title matches counting
//     double, ordered by score descending with title order breaking ties.
//
// A blank query switches either kind to browse mode: the full filtered
// listing in canonical order, unscored.
//
// Category and visibility filters, pagination clamping, and the HTML-safe
// highlight rendering are identical across all four paths.
package searcher
