// Package testing provides test helpers for mcint.
//
// StartEmbeddedNATS runs an in-process NATS server with JetStream so the NATS
// communicator and the KV result sink can be tested without external infrastructure.
//
//	import mctest "github.com/arloliu/mcint/testing"
//
//	func TestCluster(t *testing.T) {
//	    ns, nc := mctest.StartEmbeddedNATS(t)
//	    peer := mctest.Connect(t, ns)
//	    ...
//	}
package testing
