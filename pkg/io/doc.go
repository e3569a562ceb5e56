// Package io serializes resolution results.
//
// # JSON Format
//
// [WriteJSON] produces the document served by the HTTP API and written by
// `cratedeps resolve --format json`:
//
//	{
//	  "id": "6f1c...",
//	  "root": 0,
//	  "nodes": [
//	    {"id": 0, "crate": "a", "version": "1.0.0", "label": "a - 1.0.0"},
//	    {"id": 1, "crate": "b", "version": "1.2.0", "label": "b - 1.2.0"}
//	  ],
//	  "edges": [
//	    {"from": 0, "to": 1}
//	  ],
//	  "issues": [
//	    {"code": "NO_COMPATIBLE_VERSION", "from": "b - 1.2.0", "crate": "c",
//	     "requirement": "^9", "message": "..."}
//	  ]
//	}
//
// Node ids are the graph's dense ids, so edges index into nodes. Labels are
// derived and ignored on import.
//
// [ReadJSON] rebuilds a frozen [deps.Result] from that document, checking
// that ids are dense and that no (crate, version) pair or edge repeats.
//
// # Graphviz
//
// [ToDOT] writes Graphviz DOT with one box per node labelled
// "crate - version". [RenderSVG] lays DOT out with the embedded Graphviz
// from go-graphviz, so no system installation is needed.
//
// [deps.Result]: github.com/matzehuels/cratedeps/pkg/deps.Result
package io
