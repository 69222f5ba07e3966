// Package feed pulls ISS state vectors from the public CCSDS Orbit
// Ephemeris Message (OEM) published as XML.
//
// The feed is unversioned and pull-only. A Client fetches it over HTTP
// (or from a local file, for offline ingestion), decodes every
// stateVector element of every segment in document order, and rejects
// documents that are not in the OEM shape. Concurrent Fetch calls share
// one upstream request.
package feed
