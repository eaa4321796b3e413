// Package override rewires behavior definitions in place. An override
// merges replacement entries into a definition's shared behavior map, either
// unconditionally or gated by a condition, so hosts can swap capabilities at
// setup time without touching the instances already built from the
// definition.
//
// Static entries go through Apply/ApplyIf. When a replacement needs the
// pre-override values (wrapping a capability so it can still call the
// original), Derive/DeriveIf invoke a generator with a capture object. The
// capture is empty while the generator runs and is populated with the
// original values after it returns, keyed by the entries the generator
// produced. Closures inside the returned entries therefore see the originals
// as soon as the override has been applied.
//
// Every entry point returns its target, so sequential overrides chain.
package override
