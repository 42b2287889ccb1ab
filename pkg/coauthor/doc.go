// Package coauthor builds co-authorship graph payloads from reference lists.
//
// The input is a JSONL file with one paper per line:
//
//	{"id": "lovelace1843", "title": "Notes", "authors": [{"first": "Ada", "last": "Lovelace"}]}
//
// Every distinct author becomes a node whose publications count is the
// number of papers they appear on. Every pair of co-authors on a paper adds
// one to the value of the link between them. Authors are grouped by
// connected component, numbered from 1 in order of first appearance.
//
// The output is sorted by node id and link endpoints, so the same input
// always produces the same payload and the same content hash.
package coauthor
