/*
Package jniscan implements the columnar transfer bridge between a native Go
vectorized executor and scanners hosted in a JVM.

# Overview

Scanners for external data sources (Hive tables, object storage formats,
JDBC sources) are implemented in Java and run inside a JVM hosted by a
small native bridge library. This package drives one scanner per scan
task: it constructs the scanner with a serialized configuration, asks it
for batch metadata addresses, decodes the raw, self-describing metadata
stream into strongly typed native column buffers with a single copy per
buffer, and tells the scanner when each column and batch can be released.

The bridge library is loaded dynamically through purego, so the package
builds and runs without CGO. Its entry points are resolved once per
process and cached.

# Batch protocol

Each fetch returns the address of a flat word stream owned by the scanner:

	[row_count,
	 col 0: null_map_ptr, payload ptrs...,
	 col 1: null_map_ptr, payload ptrs...,
	 ...]

in the exact column order negotiated at session construction. Fixed-width
types carry one payload pointer; string types carry an offsets pointer and
a shared data pointer. The stream is borrowed, never parsed into a
structured form, and walked exactly once per batch.

# Example

	session, err := jniscan.NewSession(jniscan.SessionConfig{
		ClassName: "org/acme/hive/HiveJniScanner",
		Columns: []jniscan.SchemaColumn{
			{Name: "id", Type: jniscan.TypeDesc{ID: jniscan.TypeBigInt}, Nullable: true},
			{Name: "name", Type: jniscan.TypeDesc{ID: jniscan.TypeString}, Nullable: true},
		},
		Params: map[string]string{"uri": "thrift://metastore:9083"},
	})
	if err != nil {
		log.Fatal(err)
	}
	session.Init(nil)
	if err := session.Open(); err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	cols := session.NewColumns()
	for {
		rows, eof, err := session.FetchNext(ctx, cols)
		if err != nil {
			log.Fatal(err)
		}
		if eof {
			break
		}
		_ = rows // consume the appended rows
	}

# Resource discipline

Every foreign call is followed by an explicit error check; a pending
foreign failure never flows past a later call. Close is idempotent and
reachable from every state, and a finalizer closes leaked sessions. A
release failure during close is escalated as a panic: it means the
foreign runtime's resource tracking is broken, and continuing would turn
the bridge into a stable memory leak.
*/
package jniscan
