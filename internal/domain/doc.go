// Package domain models the data flowing through the crop risk advisory
// pipeline: weather snapshots, crop batch state, risk assessments, synthesized
// advisories, and the pending-notification entries held by the offline queue.
//
// # Weather Snapshots
//
// A WeatherReading is one snapshot from the external weather collaborator:
// temperature (°C), relative humidity (%), accumulated rainfall (mm), wind
// speed (m/s), and an optional rain probability (%). Readings are captured
// once per fetch cycle and discarded after scoring. Values are sanitized on
// entry: non-finite numbers degrade to the "ideal" value for that metric
// (25°C, 50% humidity, 0mm rain, 3m/s wind) rather than zero, so malformed
// input can never inflate a risk score. Percentages are clamped to [0,100].
//
// # Crop Batches
//
// A crop batch is either growing (carries an expected harvest date) or
// harvested (carries a storage method). The growing→harvested transition is
// one-way; a batch never reverts. Storage methods rank by vulnerability:
//
//	silo < tin_shed < jute_bag < open_space
//
// # Risk Levels and Severities
//
// Scoring produces an integer score in [0,100] mapped to a coarse level:
//
//	<40 Low | 40–59 Medium | 60–79 High | ≥80 Critical
//
// Advisories use a separate three-step severity (low, medium, high) that
// drives delivery behavior: high interrupts, medium is delayed, low is
// informational only.
//
// # Advisory Identity
//
// An advisory's identity for deduplication is the composite key
// "type-severity-title". Synthesis is deterministic, so the same conditions
// always produce the same key and a condition that persists across evaluation
// cycles is delivered once. See [Advisory.Key].
package domain
