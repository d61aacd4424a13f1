// Callisto is a provider-agnostic command line client for LLM completion
// APIs.
//
// It speaks to OpenAI, Anthropic, and Gemini through a unified adapter
// layer with shared retry, error normalization, and usage accounting.
//
// Usage:
//
//	# One-shot completion using the default provider
//	callisto complete "Write a haiku about the sea"
//
//	# Stream a completion from a specific provider
//	callisto stream --provider anthropic "Tell me a story"
//
//	# List the models a provider offers
//	callisto models --provider gemini
//
//	# Show configured providers and their health
//	callisto providers --check
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
