// Package domain models corridor traffic telemetry and the deterministic
// scoring pipeline built on top of it.
//
// # Data Source
//
// Telemetry comes from a state road-data API polled every few minutes by the
// feed adapter. Four independent feeds cover the monitored corridor:
//
//	destinations     named travel-time entries, one per signed corridor stretch
//	incidents        free-text reports with a route, direction, and mile-marker span
//	road conditions  surface state per mile-marker span
//	weather stations per-station sensor readings, including surface condition
//
// The feeds are independently indexed: each record carries its own route name,
// direction spelling, and mile-marker orientation, none of which agree with
// each other or with the segment configuration. The matcher in this package
// normalizes all of that before comparison.
//
// # Mile markers
//
// Positions along a route are linear mile markers. A span may be given in
// either increasing or decreasing order depending on the direction of travel,
// so every range operation normalizes to (min, max) first. A span with equal
// start and end is valid and zero-length.
//
// # Scoring
//
// Score turns a reconciled SegmentData into a bounded 0-10 "vibe" score:
// a flow sub-score from the travel-time ratio, minus incident and weather
// penalties, clamped and rounded to one decimal. The calculation is a pure
// function so identical inputs always produce identical results.
package domain
