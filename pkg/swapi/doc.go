// Package swapi defines the SWAPI record and list payload types.
//
// Items and list payloads are sealed variants: only the four record types in
// this package implement Item, and only the four list types implement List.
// Consumers switch over them exhaustively instead of probing arbitrary values.
//
// The JSON tags follow the SWAPI wire format, e.g. for GET /api/people/:
//
//	{
//	  "count": 82,
//	  "next": "https://swapi.dev/api/people/?page=2",
//	  "previous": null,
//	  "results": [{"name": "Luke Skywalker", "url": "https://swapi.dev/api/people/1/", ...}]
//	}
//
// A null or blank "next" marks the last page.
package swapi
