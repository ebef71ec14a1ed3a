// Package director orchestrates production runs. A run takes one manifest
// through five sequential phases: narration, visuals, background music,
// sound effects, and per-export assembly. Progress is weighted per phase
// and published as a full status snapshot after every unit of work; any
// phase error aborts the run and is reported as FAILED with progress
// frozen at its last value. The watcher re-executes the whole pipeline on
// every manifest change, relying on the asset cache to make repeat work
// cheap rather than skipping it.
package director
