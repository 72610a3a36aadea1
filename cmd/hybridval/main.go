// Command hybridval is the CLI facade over the Orchestrator: two
// subcommands, value and analyze, each with a --refresh flag, binding
// directly to getValuation/refreshValuation and
// getAnalysis/refreshAnalysis — no HTTP server, no auth, no telemetry.
package main

func main() {
	Execute()
}
