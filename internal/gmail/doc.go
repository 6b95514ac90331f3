// Package gmail provides message retrieval, payload decoding, batch
// metadata fetching, and send/label operations on top of the Gmail API.
package gmail
