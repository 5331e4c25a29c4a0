// Package language maps the languages the client can translate into and speak.
//
// Codes, human-readable names, BCP-47 tags and prebuilt voice names for
// speech synthesis are consolidated here so the speech, live and CLI layers
// agree on one table.
package language
