// Package sim groups the deterministic models and the playback engine of
// prompt-cache-sim. It holds no code of its own.
//
// # Reading Guide
//
// Data flows one way: configuration, then a pure model, then the stateful player,
// then a passive render sink.
//   - sim/ttl/: sliding-expiration classification (create, hit-refresh, miss-expired)
//     and the alive intervals derived from it. Cache state at any time is a pure
//     function of the event log and the query time.
//   - sim/throughput/: cold vs warm prefill progress and cost curves.
//   - sim/playback/: the tick loop. A Player owns one loop at a time, advances
//     simulated time by a fixed step per wall-clock tick and emits Snapshots.
//   - sim/trace/: an in-memory Sink that records snapshots and summarizes a run.
//   - sim/scenario/: YAML scenario files and built-in presets.
//
// Models never fail once constructed; every config is validated up front and
// the first invalid field is named in the returned error.
package sim
