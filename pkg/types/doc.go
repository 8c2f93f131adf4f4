// Package types provides shared type definitions for the termdex glossary.
//
// The central type is ResultRecord, the display-ready search result produced
// by the query planner for both retrieval strategies:
//
//	rec := types.ResultRecord{
//	    ID:           42,
//	    Kind:         types.EntityTerm,
//	    CategoryName: "sql",
//	    EN:           "common table <mark>expression</mark>",
//	    RU:           "обобщённое табличное выражение",
//	}
//
// Callers never need to know whether a record came from the FTS-backed term
// path or the substring-scored command path; the shape is identical and the
// Score field carries whichever relevance signal applies (nil in browse mode).
package types
