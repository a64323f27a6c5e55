// Sentinel is a financial compliance rule engine.
//
// It loads compliance rules written in a small condition-expression language,
// compiles them into an immutable versioned rule set, and evaluates incoming
// facts against it, producing findings with severity-driven handling
// deadlines and hash-linked evidence chains.
//
// Usage:
//
//	# Start the engine with default configuration
//	sentinel run
//
//	# Start with a custom configuration file
//	sentinel run --config /etc/sentinel/config.yaml
//
//	# Validate rule files without publishing them
//	sentinel validate --rules ./rules
//
//	# List rules in a directory
//	sentinel rules list --rules ./rules
//
//	# Show version information
//	sentinel version
package main

func main() {
	Execute()
}
