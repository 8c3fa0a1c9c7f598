// Package io reads and writes survey snapshots as JSON.
//
// # JSON Format
//
// A snapshot is the JSON encoding of [survey.Survey]: site information, a
// list of services and a flat list of panels linked by id:
//
//	{
//	  "siteInfo": {"customerName": "Acme Logistics"},
//	  "services": [{"id": "service-1", "voltage": "277/480V", "amps": 800}],
//	  "panels": [
//	    {"id": "panel-1", "serviceId": "service-1", "name": "MDP", "mainBreakerAmps": 800,
//	     "breakers": [{"id": "breaker-1", "kind": "subpanel", "subPanelId": "panel-2", "amps": 100}]},
//	    {"id": "panel-2", "parentPanelId": "panel-1", "feedBreakerId": "breaker-1",
//	     "transformer": {"kva": 45, "primary": "277/480V", "secondary": "120/208V"},
//	     "panelVoltage": "120/208V", "breakers": []}
//	  ]
//	}
//
// # Import
//
// [ReadJSON] and [ImportJSON] decode a snapshot and run
// [survey.Survey.Validate], so a returned snapshot always satisfies the
// panel/feeder link invariants. Validation failures wrap
// [survey.ErrInvalidSnapshot]; malformed JSON wraps [ErrMalformed].
//
// # Export
//
// [WriteJSON] and [ExportJSON] write indented JSON. [Marshal] returns the
// compact encoding used to hash a snapshot for caching; equal snapshots
// always marshal to equal bytes.
package io
