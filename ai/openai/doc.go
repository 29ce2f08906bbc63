// Package openai implements the ai interfaces using OpenAI-compatible APIs
// via langchaingo. It works with any endpoint speaking the OpenAI wire
// protocol, including local servers such as Ollama, LocalAI and vLLM.
package openai
