// Package serialization provides the native .born format for saving and
// loading models.
//
// The format is a little-endian binary stream that records each layer by
// kind, version and hyperparameters, followed by its weights:
//
//	Format Structure:
//	  [4 bytes: Magic "BORN"]
//	  [4 bytes: Version (uint32 LE)]
//	  [16 bytes: Model ID (UUID)]
//	  [4 bytes: Layer count (uint32 LE)]
//	  per layer:
//	    [string: kind] [uint32: layer version]
//	    [uint32: hyperparameter count] ([string: name] [float64: value])*
//	    [uint32: weight count] ([string: name] [uint8: rank] [uint32: dims]* [float32: data]*)*
//	  [32 bytes: SHA-256 of everything above]
//
// Strings are a uint16 length followed by UTF-8 bytes. Layers are rebuilt
// through an nn.Registry, so an unknown kind or version is reported as an
// error value rather than a panic.
//
// Example usage:
//
//	// Save a model
//	id, err := serialization.Save("model.born", model)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load a model
//	model, header, err := serialization.Load("model.born", nn.StandardRegistry(rng))
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
